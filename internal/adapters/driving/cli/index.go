package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	indexVersion       int64
	indexFormatVersion string
	indexBase          int64
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Apply verified index files",
	Long: `Applies index files whose signature has already been verified.
Use "-" as the file to read the index from stdin.`,
}

var indexFullCmd = &cobra.Command{
	Use:   "full [repo-id] [file]",
	Short: "Replace a repository's data with a full index",
	Args:  cobra.ExactArgs(2),
	RunE:  runIndexFull,
}

var indexDiffCmd = &cobra.Command{
	Use:   "diff [repo-id] [file]",
	Short: "Merge a diff into a repository's data",
	Long: `Merges a diff index. With --base the stored timestamp must match the one
the diff was generated against, otherwise a full index is needed.`,
	Args: cobra.ExactArgs(2),
	RunE: runIndexDiff,
}

func init() {
	for _, c := range []*cobra.Command{indexFullCmd, indexDiffCmd} {
		c.Flags().Int64Var(&indexVersion, "version", 0, "index version recorded with the repository")
	}
	indexFullCmd.Flags().StringVar(&indexFormatVersion, "format", "2", "index format version")
	indexDiffCmd.Flags().Int64Var(&indexBase, "base", 0, "timestamp the diff was generated against")
	indexCmd.AddCommand(indexFullCmd, indexDiffCmd)
	rootCmd.AddCommand(indexCmd)
}

func openIndex(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return f, nil
}

func runIndexFull(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	repoID, err := parseID(args[0])
	if err != nil {
		return err
	}
	r, err := openIndex(cmd, args[1])
	if err != nil {
		return err
	}
	defer r.Close()

	if err := indexService.ApplyFull(commandContext(cmd), repoID, indexVersion, indexFormatVersion, r); err != nil {
		return fmt.Errorf("failed to apply index: %w", err)
	}
	cmd.Printf("Applied full index to repository %d\n", repoID)
	return nil
}

func runIndexDiff(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	repoID, err := parseID(args[0])
	if err != nil {
		return err
	}
	r, err := openIndex(cmd, args[1])
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := commandContext(cmd)
	if cmd.Flags().Changed("base") {
		err = indexService.Update(ctx, repoID, indexBase, indexVersion, r)
	} else {
		err = indexService.ApplyDiff(ctx, repoID, indexVersion, r)
	}
	if errors.Is(err, domain.ErrStaleDiff) {
		return fmt.Errorf("diff does not apply to the stored index, fetch a full index: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to apply diff: %w", err)
	}
	cmd.Printf("Applied diff to repository %d\n", repoID)
	return nil
}
