// Package tui provides an interactive app browser over the local catalog.
// The list is a live query: it re-renders whenever an index commit touches
// the tables it reads.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
)

type mode int

const (
	modeList mode = iota
	modeInput
	modeDetail
)

// App is the root Bubbletea model of the browser.
type App struct {
	catalog driving.CatalogService
	ctx     context.Context
	styles  *Styles
	keys    *KeyMap
	input   textinput.Model

	query       domain.AppListQuery
	items       []domain.AppListItem
	selected    int
	generation  int
	stopWatch   context.CancelFunc
	updates     <-chan domain.LiveResult[[]domain.AppListItem]
	refreshedAt time.Time

	mode   mode
	detail *domain.App
	err    error
	width  int
	height int
	ready  bool
}

// NewApp creates a browser over catalog starting from query.
func NewApp(ctx context.Context, catalog driving.CatalogService, query domain.AppListQuery) (*App, error) {
	if catalog == nil {
		return nil, ErrMissingCatalogService
	}
	if query.SortBy == "" {
		query.SortBy = domain.SortByName
	}

	ti := textinput.New()
	ti.Placeholder = "Search apps..."
	ti.CharLimit = 128
	ti.Width = 50
	ti.SetValue(query.Search)

	return &App{
		catalog: catalog,
		ctx:     ctx,
		styles:  DefaultStyles(),
		keys:    DefaultKeyMap(),
		input:   ti,
		query:   query,
		width:   80,
		height:  24,
	}, nil
}

// Init starts the live query.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("catalog"), a.watch())
}

// watch replaces the current live query with one for a.query.
func (a *App) watch() tea.Cmd {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.stopWatch = cancel
	a.generation++
	a.updates = a.catalog.WatchApps(ctx, a.query)
	return waitForApps(a.generation, a.updates)
}

func waitForApps(generation int, ch <-chan domain.LiveResult[[]domain.AppListItem]) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return watchClosed{generation: generation}
		}
		return appsChanged{generation: generation, result: result}
	}
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case appsChanged:
		if msg.generation != a.generation {
			return a, nil
		}
		a.applyResult(msg.result)
		return a, waitForApps(a.generation, a.updates)

	case watchClosed:
		return a, nil

	case appLoaded:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		if msg.app != nil {
			a.detail = msg.app
			a.mode = modeDetail
		}
		return a, nil
	}

	if a.mode == modeInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) applyResult(result domain.LiveResult[[]domain.AppListItem]) {
	if result.Err != nil {
		a.err = result.Err
		return
	}
	a.err = nil
	a.items = result.Value
	a.refreshedAt = time.Now()
	if a.selected >= len(a.items) {
		a.selected = max(len(a.items)-1, 0)
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, a.quit()
	}

	switch a.mode {
	case modeInput:
		switch {
		case key.Matches(msg, a.keys.Submit):
			a.mode = modeList
			a.input.Blur()
			a.query.Search = strings.TrimSpace(a.input.Value())
			a.selected = 0
			return a, a.watch()
		case key.Matches(msg, a.keys.Back):
			a.mode = modeList
			a.input.Blur()
			a.input.SetValue(a.query.Search)
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case modeDetail:
		switch {
		case key.Matches(msg, a.keys.Back):
			a.mode = modeList
			a.detail = nil
		case key.Matches(msg, a.keys.Quit):
			return a, a.quit()
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.quit()
	case key.Matches(msg, a.keys.Filter):
		a.mode = modeInput
		return a, a.input.Focus()
	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}
	case key.Matches(msg, a.keys.Down):
		if a.selected < len(a.items)-1 {
			a.selected++
		}
	case key.Matches(msg, a.keys.Sort):
		if a.query.SortBy == domain.SortByName {
			a.query.SortBy = domain.SortByLastUpdated
		} else {
			a.query.SortBy = domain.SortByName
		}
		a.selected = 0
		return a, a.watch()
	case key.Matches(msg, a.keys.Open):
		return a, a.loadSelected()
	}
	return a, nil
}

func (a *App) loadSelected() tea.Cmd {
	item := a.SelectedItem()
	if item == nil {
		return nil
	}
	pkg := item.PackageName
	return func() tea.Msg {
		app, err := a.catalog.GetApp(a.ctx, pkg)
		return appLoaded{app: app, err: err}
	}
}

func (a *App) quit() tea.Cmd {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	return tea.Quit
}

// View renders the browser.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, a.styles.Title.Render("Catalog"), "")

	if a.mode == modeInput {
		sections = append(sections, a.styles.InputField.Render(a.input.View()), "")
	} else if a.query.Search != "" {
		sections = append(sections, a.styles.Subtitle.Render("Search: "+a.query.Search), "")
	}

	if a.err != nil {
		sections = append(sections, a.styles.Error.Render("Error: "+a.err.Error()), "")
	}

	if a.mode == modeDetail && a.detail != nil {
		sections = append(sections, a.renderDetail())
	} else {
		sections = append(sections, a.renderList())
	}

	sections = append(sections, "", a.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderList() string {
	if len(a.items) == 0 {
		return a.styles.Muted.Render("No apps")
	}

	visible := max(a.height-8, 1)
	start := 0
	if a.selected >= visible {
		start = a.selected - visible + 1
	}
	end := min(start+visible, len(a.items))

	nameWidth := max(min(a.width/3, 40), 10)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item := a.items[i]
		name := truncate(displayName(item.Name, item.PackageName), nameWidth)
		summary := truncate(item.Summary, max(a.width-nameWidth-6, 10))
		if i == a.selected {
			lines = append(lines, a.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", nameWidth, name, summary)))
			continue
		}
		line := a.styles.Normal.Render(fmt.Sprintf("  %-*s  ", nameWidth, name)) + a.styles.Muted.Render(summary)
		if !item.IsCompatible {
			line += a.styles.Warning.Render(" (incompatible)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderDetail() string {
	app := a.detail
	lines := []string{
		a.styles.Subtitle.Render(displayName(app.LocalizedName, app.PackageName)),
		a.styles.Muted.Render(app.PackageName),
	}
	if app.LocalizedSummary != "" {
		lines = append(lines, "", app.LocalizedSummary)
	}
	lines = append(lines, "")
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, a.styles.Muted.Render(label+": ")+value)
		}
	}
	add("Repository", fmt.Sprintf("%d", app.RepoID))
	add("Author", app.AuthorName)
	add("License", app.License)
	add("Website", app.WebSite)
	add("Source", app.SourceCode)
	add("Categories", strings.Join(app.Categories, ", "))
	if app.LastUpdated > 0 {
		add("Updated", time.UnixMilli(app.LastUpdated).UTC().Format("2006-01-02"))
	}
	if app.IsCompatible {
		lines = append(lines, a.styles.Success.Render("Compatible with this device"))
	} else {
		lines = append(lines, a.styles.Warning.Render("No compatible version"))
	}
	return a.styles.Detail.Width(max(a.width-4, 20)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderStatus() string {
	left := fmt.Sprintf("%d apps, sorted by %s", len(a.items), a.query.SortBy)
	if a.query.Category != "" {
		left += ", category " + a.query.Category
	}
	if !a.refreshedAt.IsZero() {
		left += ", refreshed " + a.refreshedAt.Format("15:04:05")
	}

	var bindings []key.Binding
	switch a.mode {
	case modeInput:
		bindings = a.keys.InputHelp()
	case modeDetail:
		bindings = a.keys.DetailHelp()
	default:
		bindings = a.keys.ListHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	right := strings.Join(hints, " | ")

	padding := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return a.styles.StatusBar.Width(a.width).Render(left + strings.Repeat(" ", padding) + right)
}

// Run starts the browser and blocks until it exits.
func (a *App) Run() error {
	defer func() {
		if a.stopWatch != nil {
			a.stopWatch()
		}
	}()
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.input.Width = max(width-10, 20)
}

// Items returns the current app list.
func (a *App) Items() []domain.AppListItem {
	return a.items
}

// SelectedItem returns the highlighted row, or nil when the list is empty.
func (a *App) SelectedItem() *domain.AppListItem {
	if a.selected < 0 || a.selected >= len(a.items) {
		return nil
	}
	return &a.items[a.selected]
}

// Query returns the active list query.
func (a *App) Query() domain.AppListQuery {
	return a.query
}

// Detail returns the app shown in the detail pane, if any.
func (a *App) Detail() *domain.App {
	return a.detail
}

// Err returns the last error, if any.
func (a *App) Err() error {
	return a.err
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
