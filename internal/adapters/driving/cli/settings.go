package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage catalog settings",
	Long: `View and configure the device profile, locales, release channels and
search ranking stored in config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the device profile step by step.`,
	RunE:  runSettingsWizard,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[General]")
	cmd.Printf("  Data dir: %s\n", orUnset(settings.DataDir))
	cmd.Printf("  Locales: %s\n", strings.Join(settings.Locales, ", "))
	cmd.Printf("  Installed file: %s\n", orUnset(settings.InstalledFile))
	cmd.Println()

	cmd.Println("[Device]")
	cmd.Printf("  SDK: %d\n", settings.Device.SDK)
	cmd.Printf("  ABIs: %s\n", strings.Join(settings.Device.ABIs, ", "))
	cmd.Printf("  Features: %s\n", orUnset(strings.Join(settings.Device.Features, ", ")))
	cmd.Println()

	cmd.Println("[Updates]")
	cmd.Printf("  Release channels: %s\n", orUnset(strings.Join(settings.Updates.ReleaseChannels, ", ")))
	if settings.Updates.CheckInterval > 0 {
		cmd.Printf("  Check interval: %s\n", settings.Updates.CheckInterval)
	} else {
		cmd.Println("  Check interval: (disabled)")
	}
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Limit: %d\n", settings.Search.Limit)
	w := settings.Search.Weights
	cmd.Printf("  Weights: name %d, summary %d, description %d, author %d, package %d\n",
		w.Name, w.Summary, w.Description, w.Author, w.PackageName)
	cmd.Println()

	cmd.Println("[Inbox]")
	cmd.Printf("  Dir: %s\n", orUnset(settings.Inbox.Dir))
	cmd.Printf("  Rate: %d/s\n", settings.Inbox.Rate)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'catalog settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Catalog Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Device SDK level")
	cmd.Printf("Enter SDK level [%d]: ", settings.Device.SDK)
	if input := readLine(reader); input != "" {
		sdk, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("%w: sdk level %q", domain.ErrInvalidInput, input)
		}
		settings.Device.SDK = sdk
	}
	cmd.Println()

	cmd.Println("Step 2: Primary ABI")
	abis := []string{domain.ABIArm64, domain.ABIArmV7, domain.ABIX8664, domain.ABIX86}
	for i, abi := range abis {
		cmd.Printf("  %d. %s\n", i+1, abi)
	}
	cmd.Print("\nEnter choice [1]: ")
	primary := abis[parseChoice(readLine(reader), len(abis), 1)-1]
	settings.Device.ABIs = append([]string{primary}, without(settings.Device.ABIs, primary)...)
	cmd.Println()

	cmd.Println("Step 3: Locales")
	cmd.Printf("Enter locales, comma separated [%s]: ", strings.Join(settings.Locales, ","))
	if input := readLine(reader); input != "" {
		settings.Locales = splitList(input)
	}
	cmd.Println()

	cmd.Println("Step 4: Beta updates")
	cmd.Print("Offer beta versions? [y/N]: ")
	channels := without(settings.Updates.ReleaseChannels, domain.ReleaseChannelBeta)
	if strings.EqualFold(readLine(reader), "y") {
		channels = append(channels, domain.ReleaseChannelBeta)
	}
	if len(channels) == 0 {
		channels = nil
	}
	settings.Updates.ReleaseChannels = channels
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are valid and saved.")
	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings restored to defaults.")
	return nil
}

// settingsLocales returns the configured locales, falling back to the default.
func settingsLocales() []string {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && len(s.Locales) > 0 {
			return s.Locales
		}
	}
	return []string{domain.DefaultLocale}
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(cmd *cobra.Command) string {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(bufio.NewReader(in))
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:2] + "..." + secret[len(secret)-2:]
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func splitList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
