package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite/migrations"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version number and schema version",
	Annotations: map[string]string{skipServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("catalog version %s\n", version)
		cmd.Printf("schema version %d\n", migrations.Latest())
		cmd.Printf("built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
