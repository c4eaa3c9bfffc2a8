package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driving/tui"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	browseCategory string
	browseSort     string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse apps interactively",
	Long: `Opens a terminal browser over the apps of enabled repositories. The list
refreshes by itself when an index is applied, for example by a running
"catalog inbox watch".`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseCategory, "category", "", "only apps in this category")
	browseCmd.Flags().StringVar(&browseSort, "sort", string(domain.SortByName), "initial order: name or lastUpdated")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}
	sort := domain.AppSortOrder(browseSort)
	if !sort.IsValid() {
		return fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidInput, browseSort)
	}

	app, err := tui.NewApp(commandContext(cmd), catalogService, domain.AppListQuery{
		Category: browseCategory,
		SortBy:   sort,
	})
	if err != nil {
		return err
	}
	return app.Run()
}
