package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	appRepo     int64
	appCategory string
	appSort     string
	appLimit    int
	appJSON     bool
	appUnpin    bool
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Query apps and manage per-app preferences",
}

var appShowCmd = &cobra.Command{
	Use:   "show [package]",
	Short: "Show the copy of an app that wins precedence",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppShow,
}

var appListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one app per package",
	Args:  cobra.NoArgs,
	RunE:  runAppList,
}

var appInstalledCmd = &cobra.Command{
	Use:   "installed",
	Short: "List installed apps known to a repository",
	Args:  cobra.NoArgs,
	RunE:  runAppInstalled,
}

var appVersionsCmd = &cobra.Command{
	Use:   "versions [package]",
	Short: "List versions of an app from enabled repositories",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppVersions,
}

var appCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE:  runAppCategories,
}

var appCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count apps in a category or repository",
	Args:  cobra.NoArgs,
	RunE:  runAppCount,
}

var appPreferCmd = &cobra.Command{
	Use:   "prefer [package] [repo-id]",
	Short: "Pin an app to a repository",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAppPrefer,
}

var appIgnoreCmd = &cobra.Command{
	Use:   "ignore [package] [version-code|all]",
	Short: "Ignore updates of an app",
	Long: `Ignores updates up to and including a version code. "all" toggles between
ignoring every update and none.`,
	Args: cobra.ExactArgs(2),
	RunE: runAppIgnore,
}

var appChannelCmd = &cobra.Command{
	Use:   "channel [package] [channel]",
	Short: "Toggle an extra release channel for an app",
	Args:  cobra.ExactArgs(2),
	RunE:  runAppChannel,
}

func init() {
	appShowCmd.Flags().Int64Var(&appRepo, "repo", 0, "show the copy of this repository")
	appShowCmd.Flags().BoolVar(&appJSON, "json", false, "output the app as JSON")
	appListCmd.Flags().StringVar(&appCategory, "category", "", "only apps in this category")
	appListCmd.Flags().StringVar(&appSort, "sort", string(domain.SortByName), "sort by name or lastUpdated")
	appListCmd.Flags().IntVarP(&appLimit, "limit", "n", 0, "maximum number of apps")
	appListCmd.Flags().BoolVar(&appJSON, "json", false, "output apps as JSON")
	appCountCmd.Flags().StringVar(&appCategory, "category", "", "count apps in this category")
	appCountCmd.Flags().Int64Var(&appRepo, "repo", 0, "count apps of this repository")
	appPreferCmd.Flags().BoolVar(&appUnpin, "unpin", false, "remove the pin")

	appCmd.AddCommand(appShowCmd, appListCmd, appInstalledCmd, appVersionsCmd, appCategoriesCmd,
		appCountCmd, appPreferCmd, appIgnoreCmd, appChannelCmd)
	rootCmd.AddCommand(appCmd)
}

func requireCatalogService() error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	return nil
}

func runAppShow(cmd *cobra.Command, args []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	ctx := commandContext(cmd)

	var (
		app *domain.App
		err error
	)
	if cmd.Flags().Changed("repo") {
		app, err = catalogService.GetAppInRepo(ctx, appRepo, args[0])
	} else {
		app, err = catalogService.GetApp(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get app: %w", err)
	}
	if app == nil {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
	}
	if appJSON {
		return outputJSON(cmd, app)
	}

	locales := settingsLocales()
	cmd.Printf("%s\n", displayName(app.LocalizedName, app.PackageName))
	cmd.Println(strings.Repeat("=", len(displayName(app.LocalizedName, app.PackageName))))
	cmd.Printf("  Package: %s\n", app.PackageName)
	cmd.Printf("  Repository: %d\n", app.RepoID)
	if app.LocalizedSummary != "" {
		cmd.Printf("  Summary: %s\n", app.LocalizedSummary)
	}
	if app.AuthorName != "" {
		cmd.Printf("  Author: %s\n", app.AuthorName)
	}
	if app.License != "" {
		cmd.Printf("  License: %s\n", app.License)
	}
	if app.WebSite != "" {
		cmd.Printf("  Website: %s\n", app.WebSite)
	}
	if len(app.Categories) > 0 {
		cmd.Printf("  Categories: %s\n", strings.Join(app.Categories, ", "))
	}
	cmd.Printf("  Last updated: %d\n", app.LastUpdated)
	cmd.Printf("  Compatible: %t\n", app.IsCompatible)
	if desc := domain.BestText(app.Description, locales); desc != "" {
		cmd.Println()
		cmd.Println(desc)
	}
	return nil
}

func runAppList(cmd *cobra.Command, _ []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	items, err := catalogService.ListApps(commandContext(cmd), domain.AppListQuery{
		Category: appCategory,
		SortBy:   domain.AppSortOrder(appSort),
		Limit:    appLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}
	return outputAppList(cmd, items)
}

func runAppInstalled(cmd *cobra.Command, _ []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	items, err := catalogService.InstalledAppListItems(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list installed apps: %w", err)
	}
	return outputAppList(cmd, items)
}

func outputAppList(cmd *cobra.Command, items []domain.AppListItem) error {
	if appJSON {
		return outputJSON(cmd, items)
	}
	if len(items) == 0 {
		cmd.Println("No apps found.")
		return nil
	}
	for i := range items {
		it := &items[i]
		cmd.Printf("  %s (%s)\n", displayName(it.Name, it.PackageName), it.PackageName)
		if it.Summary != "" {
			cmd.Printf("      %s\n", it.Summary)
		}
		if it.InstalledVersionCode != nil {
			cmd.Printf("      Installed: %s (%d)\n", it.InstalledVersionName, *it.InstalledVersionCode)
		}
	}
	return nil
}

func runAppVersions(cmd *cobra.Command, args []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	versions, err := catalogService.AppVersions(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) == 0 {
		cmd.Println("No versions found.")
		return nil
	}
	for i := range versions {
		v := &versions[i]
		flags := []string{fmt.Sprintf("repo %d", v.RepoID)}
		if !v.IsCompatible {
			flags = append(flags, "incompatible")
		}
		if v.HasKnownVulnerability() {
			flags = append(flags, "vulnerable")
		}
		if len(v.ReleaseChannels) > 0 {
			flags = append(flags, strings.Join(v.ReleaseChannels, ","))
		}
		cmd.Printf("  %s (%d) [%s]\n", v.Manifest.VersionName, v.VersionCode(), strings.Join(flags, ", "))
	}
	return nil
}

func runAppCategories(cmd *cobra.Command, _ []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	categories, err := catalogService.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		cmd.Println("No categories found.")
		return nil
	}
	locales := settingsLocales()
	for i := range categories {
		c := &categories[i]
		count, err := catalogService.CountAppsInCategory(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to count apps: %w", err)
		}
		cmd.Printf("  %s (%d)\n", displayName(domain.BestText(c.Name, locales), c.ID), count)
	}
	return nil
}

func runAppCount(cmd *cobra.Command, _ []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	var (
		count int
		err   error
	)
	switch {
	case appCategory != "" && cmd.Flags().Changed("repo"):
		return fmt.Errorf("%w: use either --category or --repo", domain.ErrInvalidInput)
	case appCategory != "":
		count, err = catalogService.CountAppsInCategory(ctx, appCategory)
	case cmd.Flags().Changed("repo"):
		count, err = catalogService.CountAppsInRepository(ctx, appRepo)
	default:
		return fmt.Errorf("%w: --category or --repo is required", domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("failed to count apps: %w", err)
	}
	cmd.Println(count)
	return nil
}

func runAppPrefer(cmd *cobra.Command, args []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	var repoID *int64
	switch {
	case appUnpin && len(args) == 2:
		return fmt.Errorf("%w: --unpin takes no repository", domain.ErrInvalidInput)
	case !appUnpin && len(args) == 1:
		return fmt.Errorf("%w: repository id is required", domain.ErrInvalidInput)
	case !appUnpin:
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		repoID = &id
	}

	if err := catalogService.SetPreferredRepo(commandContext(cmd), args[0], repoID); err != nil {
		return fmt.Errorf("failed to set preferred repository: %w", err)
	}
	if repoID == nil {
		cmd.Printf("Unpinned %s\n", args[0])
	} else {
		cmd.Printf("Pinned %s to repository %d\n", args[0], *repoID)
	}
	return nil
}

func runAppIgnore(cmd *cobra.Command, args []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if args[1] == "all" {
		prefs, err := catalogService.ToggleIgnoreAll(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to update preferences: %w", err)
		}
		if prefs.IgnoresAllUpdates() {
			cmd.Printf("Ignoring all updates of %s\n", args[0])
		} else {
			cmd.Printf("No longer ignoring updates of %s\n", args[0])
		}
		return nil
	}

	code, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || code < 0 {
		return fmt.Errorf("%w: invalid version code %q", domain.ErrInvalidInput, args[1])
	}
	if err := catalogService.IgnoreUpdates(ctx, args[0], code); err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	cmd.Printf("Ignoring updates of %s up to %d\n", args[0], code)
	return nil
}

func runAppChannel(cmd *cobra.Command, args []string) error {
	if err := requireCatalogService(); err != nil {
		return err
	}
	prefs, err := catalogService.ToggleReleaseChannel(commandContext(cmd), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if len(prefs.ReleaseChannels) == 0 {
		cmd.Printf("%s follows the default channels\n", args[0])
		return nil
	}
	cmd.Printf("%s follows %s\n", args[0], strings.Join(prefs.ReleaseChannels, ", "))
	return nil
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
