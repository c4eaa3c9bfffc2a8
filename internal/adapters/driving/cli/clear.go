package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all app data",
	Long: `Removes every app and version and resets repository timestamps so the
next sync fetches full indexes. Repositories and preferences are kept.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	if !clearForce {
		cmd.Print("Remove all app data? [y/N]: ")
		if !strings.EqualFold(readLine(bufio.NewReader(cmd.InOrStdin())), "y") {
			cmd.Println("Aborted.")
			return nil
		}
	}
	if err := repositoryService.ClearAppData(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to clear app data: %w", err)
	}
	cmd.Println("App data cleared.")
	return nil
}
