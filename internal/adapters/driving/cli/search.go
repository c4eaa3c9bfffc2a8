package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	searchLimit    int
	searchCategory string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search apps in enabled repositories",
	Long: `Ranks apps by where the query terms match: the name counts most, then
the summary, description, author and package name. Apps not updated for a
long time rank lower.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results, 0 uses the configured limit")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "only apps in this category")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	hits, err := searchService.Search(commandContext(cmd), domain.SearchQuery{
		Text:     strings.Join(args, " "),
		Category: searchCategory,
		Limit:    searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		h := &hits[i]
		cmd.Printf("  [%d] %s (%d)\n", i+1, displayName(h.Name, h.PackageName), h.Score)
		cmd.Printf("      Package: %s\n", h.PackageName)
		if h.Summary != "" {
			cmd.Printf("      %s\n", h.Summary)
		}
		cmd.Println()
	}
	return nil
}
