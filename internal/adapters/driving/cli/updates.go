package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	updatesJSON  bool
	historyLimit int
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Check installed apps for updates and issues",
	Long: `Compares installed packages with every enabled repository and reports
available updates, known vulnerabilities and apps that cannot be updated.`,
	Args: cobra.NoArgs,
	RunE: runUpdates,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [package]",
	Short: "Show the version suggested for installing an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent background update checks",
	Long: `Lists the update checks run by "catalog inbox watch" at the interval set
by updates.check_interval, most recent first.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	updatesCmd.Flags().BoolVar(&updatesJSON, "json", false, "output the result as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	updatesCmd.AddCommand(suggestCmd)
	updatesCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(updatesCmd)
}

func runUpdates(cmd *cobra.Command, _ []string) error {
	if updateService == nil {
		return errors.New("update service not configured")
	}
	result, err := updateService.Check(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to check updates: %w", err)
	}
	if updatesJSON {
		return outputJSON(cmd, result)
	}

	if len(result.Updates) == 0 {
		cmd.Println("All apps are up to date.")
	} else {
		cmd.Printf("Updates (%d):\n", len(result.Updates))
		for i := range result.Updates {
			u := &result.Updates[i]
			line := fmt.Sprintf("  %s: %s -> %s (%d)", displayName(u.Name, u.PackageName),
				u.InstalledVersionName, u.Update.Manifest.VersionName, u.Update.VersionCode())
			if !u.IsFromPreferredRepo {
				line += fmt.Sprintf(" from repository %d", u.RepoID)
			}
			if u.HasKnownVulnerability {
				line += " [vulnerable]"
			}
			cmd.Println(line)
		}
	}

	if len(result.Issues) > 0 {
		cmd.Println()
		cmd.Printf("Issues (%d):\n", len(result.Issues))
		for i := range result.Issues {
			it := &result.Issues[i]
			cmd.Printf("  %s: %s\n", displayName(it.Name, it.PackageName), describeIssue(it.Issue))
		}
	}
	return nil
}

func describeIssue(issue domain.AppIssue) string {
	switch issue.Kind {
	case domain.IssueKnownVulnerability:
		if issue.FromPreferredRepo {
			return "installed version has a known vulnerability"
		}
		return "installed version has a known vulnerability, fixed in another repository"
	case domain.IssueUpdateInOtherRepo:
		if issue.RepoID != nil {
			return fmt.Sprintf("update available in repository %d", *issue.RepoID)
		}
		return "update available in another repository"
	case domain.IssueNoCompatibleSigner:
		if issue.RepoID != nil {
			return fmt.Sprintf("no compatible signer, repository %d has one", *issue.RepoID)
		}
		return "no version with a compatible signer"
	case domain.IssueNotAvailable:
		return "no longer available"
	default:
		return string(issue.Kind)
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if updateService == nil {
		return errors.New("update service not configured")
	}
	v, err := updateService.SuggestedVersion(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to suggest a version: %w", err)
	}
	if v == nil {
		cmd.Printf("No suitable version of %s\n", args[0])
		return nil
	}
	cmd.Printf("%s %s (%d) from repository %d\n", args[0], v.Manifest.VersionName, v.VersionCode(), v.RepoID)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}
	ctx := commandContext(cmd)

	tasks, err := schedulerService.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	for i := range tasks {
		task := &tasks[i]
		if task.ID != domain.TaskIDUpdateCheck {
			continue
		}
		if task.Enabled {
			cmd.Printf("Every %s, next run %s\n", task.Interval, task.NextRun.Format(time.DateTime))
		} else {
			cmd.Println("Background update checks are disabled.")
		}
	}

	results, err := schedulerService.History(ctx, domain.TaskIDUpdateCheck, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(results) == 0 {
		cmd.Println("No update checks have run yet.")
		return nil
	}
	for i := range results {
		r := &results[i]
		if r.Success {
			cmd.Printf("  %s  %d updates (%s)\n", r.StartedAt.Format(time.DateTime), r.ItemsProcessed,
				r.Duration().Round(time.Millisecond))
		} else {
			cmd.Printf("  %s  failed: %s\n", r.StartedAt.Format(time.DateTime), r.Error)
		}
	}
	return nil
}
