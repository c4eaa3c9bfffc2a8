package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/platform"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var (
	repoName     string
	repoCert     string
	repoUsername string
	repoJSON     bool
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
	Long: `Add, order and configure the repositories apps are resolved from.

When several repositories carry the same package, the one with the highest
weight wins unless the package is pinned to a repository.`,
}

var repoAddCmd = &cobra.Command{
	Use:   "add [address]",
	Short: "Add a repository below all others",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoAdd,
}

var repoSubscribeCmd = &cobra.Command{
	Use:   "subscribe [address]",
	Short: "Subscribe to a repository above all others",
	Long: `Creates an empty repository with the highest weight. Its data arrives
with the first full index.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepoSubscribe,
}

var repoSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Insert the repositories listed in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoSeed,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repositories by precedence",
	Args:  cobra.NoArgs,
	RunE:  runRepoList,
}

var repoShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoShow,
}

var repoEnableCmd = &cobra.Command{
	Use:   "enable [id]",
	Short: "Enable a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoSetEnabled(true),
}

var repoDisableCmd = &cobra.Command{
	Use:   "disable [id]",
	Short: "Disable a repository and its archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoSetEnabled(false),
}

var repoDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a repository and its archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoDelete,
}

var repoReorderCmd = &cobra.Command{
	Use:   "reorder [id] [target-id]",
	Short: "Move a repository to the position of another",
	Args:  cobra.ExactArgs(2),
	RunE:  runRepoReorder,
}

var repoArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive of a repository",
}

var repoArchiveAddCmd = &cobra.Command{
	Use:   "add [id] [address]",
	Short: "Add the archive of a repository",
	Args:  cobra.ExactArgs(2),
	RunE:  runRepoArchiveAdd,
}

var repoArchiveEnableCmd = &cobra.Command{
	Use:   "enable [id]",
	Short: "Enable the archive of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoArchiveSetEnabled(true),
}

var repoArchiveDisableCmd = &cobra.Command{
	Use:   "disable [id]",
	Short: "Disable the archive of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoArchiveSetEnabled(false),
}

var repoMigrateCmd = &cobra.Command{
	Use:   "migrate-weights",
	Short: "Rewrite weights so archives sit below their repository",
	Args:  cobra.NoArgs,
	RunE:  runRepoMigrate,
}

var repoMirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Manage repository mirrors",
}

var repoMirrorsListCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List the mirrors in use",
	Args:  cobra.ExactArgs(1),
	RunE:  runMirrorsList,
}

var repoMirrorsAddCmd = &cobra.Command{
	Use:   "add [id] [url]",
	Short: "Add a user mirror",
	Args:  cobra.ExactArgs(2),
	RunE:  runMirrorsAdd,
}

var repoMirrorsDeleteCmd = &cobra.Command{
	Use:   "delete [id] [url]",
	Short: "Delete a user mirror",
	Args:  cobra.ExactArgs(2),
	RunE:  runMirrorsDelete,
}

var repoMirrorsEnableCmd = &cobra.Command{
	Use:   "enable [id] [url]",
	Short: "Enable a mirror",
	Args:  cobra.ExactArgs(2),
	RunE:  runMirrorsSetEnabled(true),
}

var repoMirrorsDisableCmd = &cobra.Command{
	Use:   "disable [id] [url]",
	Short: "Disable a mirror",
	Args:  cobra.ExactArgs(2),
	RunE:  runMirrorsSetEnabled(false),
}

var repoCredentialsCmd = &cobra.Command{
	Use:   "credentials [id] [username]",
	Short: "Set basic auth credentials",
	Long: `Sets the username and password sent to a repository. The password is
read from the terminal without echo.`,
	Args: cobra.ExactArgs(2),
	RunE: runRepoCredentials,
}

func init() {
	repoAddCmd.Flags().StringVar(&repoName, "name", "", "display name")
	repoAddCmd.Flags().StringVar(&repoCert, "certificate", "", "hex encoded signing certificate")
	repoAddCmd.Flags().StringVar(&repoUsername, "username", "", "basic auth username, prompts for the password")
	repoSubscribeCmd.Flags().StringVar(&repoUsername, "username", "", "basic auth username, prompts for the password")
	repoListCmd.Flags().BoolVar(&repoJSON, "json", false, "output repositories as JSON")

	repoArchiveCmd.AddCommand(repoArchiveAddCmd, repoArchiveEnableCmd, repoArchiveDisableCmd)
	repoMirrorsCmd.AddCommand(repoMirrorsListCmd, repoMirrorsAddCmd, repoMirrorsDeleteCmd,
		repoMirrorsEnableCmd, repoMirrorsDisableCmd)
	repoCmd.AddCommand(repoAddCmd, repoSubscribeCmd, repoSeedCmd, repoListCmd, repoShowCmd,
		repoEnableCmd, repoDisableCmd, repoDeleteCmd, repoReorderCmd, repoArchiveCmd,
		repoMigrateCmd, repoMirrorsCmd, repoCredentialsCmd)
	rootCmd.AddCommand(repoCmd)
}

func requireRepositoryService() error {
	if repositoryService == nil {
		return errors.New("repository service not configured")
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid repository id %q", domain.ErrInvalidInput, arg)
	}
	return id, nil
}

func promptCredentials(cmd *cobra.Command, username string) (string, error) {
	if username == "" {
		return "", nil
	}
	cmd.Printf("Password for %s: ", username)
	password := readPassword(cmd)
	cmd.Println()
	if password == "" {
		return "", fmt.Errorf("%w: password is required with a username", domain.ErrInvalidInput)
	}
	return password, nil
}

func runRepoAdd(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	password, err := promptCredentials(cmd, repoUsername)
	if err != nil {
		return err
	}

	id, err := repositoryService.Add(commandContext(cmd), domain.NewRepository{
		Address:     args[0],
		Name:        repoName,
		Certificate: repoCert,
		Username:    repoUsername,
		Password:    password,
	})
	if err != nil {
		return fmt.Errorf("failed to add repository: %w", err)
	}
	cmd.Printf("Added repository %d: %s\n", id, args[0])
	return nil
}

func runRepoSubscribe(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	password, err := promptCredentials(cmd, repoUsername)
	if err != nil {
		return err
	}

	id, err := repositoryService.SubscribeEmpty(commandContext(cmd), args[0], repoUsername, password)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	cmd.Printf("Subscribed repository %d: %s\n", id, args[0])
	return nil
}

func runRepoSeed(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	repos, err := platform.LoadSeed(args[0])
	if err != nil {
		return err
	}

	ids, err := repositoryService.Seed(commandContext(cmd), repos)
	if err != nil {
		return fmt.Errorf("failed to seed repositories: %w", err)
	}
	cmd.Printf("Seeded %d repositories\n", len(ids))
	return nil
}

func runRepoList(cmd *cobra.Command, _ []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	repos, err := repositoryService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	if repoJSON {
		return outputJSON(cmd, repoSummaries(repos))
	}
	if len(repos) == 0 {
		cmd.Println("No repositories configured.")
		cmd.Println("Use 'catalog repo add' to add one.")
		return nil
	}

	locales := settingsLocales()
	cmd.Println("Repositories:")
	cmd.Println()
	for i := range repos {
		r := &repos[i]
		state := "enabled"
		if !r.Preferences.Enabled {
			state = "disabled"
		}
		cmd.Printf("  [%d] %s (%s)\n", r.ID, repoDisplayName(r, locales), state)
		cmd.Printf("      Address: %s\n", r.Address)
		cmd.Printf("      Weight: %d\n", r.Preferences.Weight)
		if r.Timestamp > 0 {
			cmd.Printf("      Timestamp: %d\n", r.Timestamp)
		}
		cmd.Println()
	}
	return nil
}

func runRepoShow(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	repo, err := repositoryService.Get(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}
	if repo == nil {
		return fmt.Errorf("%w: %d", domain.ErrRepositoryNotFound, id)
	}

	locales := settingsLocales()
	cmd.Printf("Repository %d\n", repo.ID)
	cmd.Println("==============")
	cmd.Printf("  Name: %s\n", repoDisplayName(repo, locales))
	cmd.Printf("  Address: %s\n", repo.Address)
	if desc := domain.BestText(repo.Description, locales); desc != "" {
		cmd.Printf("  Description: %s\n", desc)
	}
	cmd.Printf("  Enabled: %t\n", repo.Preferences.Enabled)
	cmd.Printf("  Weight: %d\n", repo.Preferences.Weight)
	cmd.Printf("  Timestamp: %d\n", repo.Timestamp)
	if repo.Version != nil {
		cmd.Printf("  Version: %d\n", *repo.Version)
	}
	if repo.FormatVersion != "" {
		cmd.Printf("  Format: %s\n", repo.FormatVersion)
	}
	if repo.Preferences.Username != "" {
		cmd.Printf("  Username: %s\n", repo.Preferences.Username)
		cmd.Printf("  Password: %s\n", maskSecret(repo.Preferences.Password))
	}
	cmd.Printf("  Mirrors: %d\n", len(repo.AllMirrors()))
	cmd.Printf("  Categories: %d\n", len(repo.Categories))
	cmd.Printf("  Anti-features: %d\n", len(repo.AntiFeatures))
	cmd.Printf("  Release channels: %d\n", len(repo.ReleaseChannels))
	return nil
}

func runRepoSetEnabled(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := requireRepositoryService(); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := repositoryService.SetEnabled(commandContext(cmd), id, enabled); err != nil {
			return fmt.Errorf("failed to update repository: %w", err)
		}
		cmd.Printf("Repository %d %s\n", id, enabledWord(enabled))
		return nil
	}
}

func runRepoDelete(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := repositoryService.Delete(commandContext(cmd), id); err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	cmd.Printf("Deleted repository %d\n", id)
	return nil
}

func runRepoReorder(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	moveID, err := parseID(args[0])
	if err != nil {
		return err
	}
	targetID, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := repositoryService.Reorder(commandContext(cmd), moveID, targetID); err != nil {
		return fmt.Errorf("failed to reorder repositories: %w", err)
	}
	cmd.Printf("Moved repository %d to the position of %d\n", moveID, targetID)
	return nil
}

func runRepoArchiveAdd(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	mainID, err := parseID(args[0])
	if err != nil {
		return err
	}
	id, err := repositoryService.AddArchive(commandContext(cmd), mainID, args[1])
	if err != nil {
		return fmt.Errorf("failed to add archive: %w", err)
	}
	cmd.Printf("Added archive %d of repository %d\n", id, mainID)
	return nil
}

func runRepoArchiveSetEnabled(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := requireRepositoryService(); err != nil {
			return err
		}
		mainID, err := parseID(args[0])
		if err != nil {
			return err
		}
		archiveID, err := repositoryService.SetArchiveEnabled(commandContext(cmd), mainID, enabled)
		if err != nil {
			return fmt.Errorf("failed to update archive: %w", err)
		}
		if archiveID == nil {
			cmd.Printf("Repository %d has no archive\n", mainID)
			return nil
		}
		cmd.Printf("Archive %d %s\n", *archiveID, enabledWord(enabled))
		return nil
	}
}

func runRepoMigrate(cmd *cobra.Command, _ []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	if err := repositoryService.MigrateWeights(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to migrate weights: %w", err)
	}
	cmd.Println("Repository weights migrated.")
	return nil
}

func runMirrorsList(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	repo, err := repositoryService.Get(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}
	if repo == nil {
		return fmt.Errorf("%w: %d", domain.ErrRepositoryNotFound, id)
	}

	mirrors := repo.AllMirrors()
	if len(mirrors) == 0 {
		cmd.Println("No mirrors in use.")
		return nil
	}
	for _, m := range mirrors {
		cmd.Println(m)
	}
	return nil
}

func runMirrorsAdd(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := repositoryService.AddUserMirror(commandContext(cmd), id, args[1]); err != nil {
		return fmt.Errorf("failed to add mirror: %w", err)
	}
	cmd.Printf("Added mirror %s\n", args[1])
	return nil
}

func runMirrorsDelete(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := repositoryService.DeleteUserMirror(commandContext(cmd), id, args[1]); err != nil {
		return fmt.Errorf("failed to delete mirror: %w", err)
	}
	cmd.Printf("Deleted mirror %s\n", args[1])
	return nil
}

func runMirrorsSetEnabled(enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := requireRepositoryService(); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := repositoryService.SetMirrorEnabled(commandContext(cmd), id, args[1], enabled); err != nil {
			return fmt.Errorf("failed to update mirror: %w", err)
		}
		cmd.Printf("Mirror %s %s\n", args[1], enabledWord(enabled))
		return nil
	}
}

func runRepoCredentials(cmd *cobra.Command, args []string) error {
	if err := requireRepositoryService(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	password, err := promptCredentials(cmd, args[1])
	if err != nil {
		return err
	}
	if err := repositoryService.UpdateCredentials(commandContext(cmd), id, args[1], password); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	cmd.Printf("Updated credentials of repository %d\n", id)
	return nil
}

// repoSummary is the JSON shape of a listed repository.
type repoSummary struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Enabled   bool     `json:"enabled"`
	Weight    int64    `json:"weight"`
	Timestamp int64    `json:"timestamp"`
	Mirrors   []string `json:"mirrors,omitempty"`
}

func repoSummaries(repos []domain.RepositoryDetail) []repoSummary {
	locales := settingsLocales()
	out := make([]repoSummary, 0, len(repos))
	for i := range repos {
		r := &repos[i]
		out = append(out, repoSummary{
			ID:        r.ID,
			Name:      repoDisplayName(r, locales),
			Address:   r.Address,
			Enabled:   r.Preferences.Enabled,
			Weight:    r.Preferences.Weight,
			Timestamp: r.Timestamp,
			Mirrors:   r.AllMirrors(),
		})
	}
	return out
}

func repoDisplayName(r *domain.RepositoryDetail, locales []string) string {
	if name := domain.BestText(r.Name, locales); name != "" {
		return name
	}
	return r.Address
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
