package domain

import (
	"fmt"
	"time"
)

// Well-known native ABIs a device profile can declare.
const (
	ABIArm64 = "arm64-v8a"
	ABIArmV7 = "armeabi-v7a"
	ABIX86   = "x86"
	ABIX8664 = "x86_64"
)

// SDK levels.
const (
	DefaultSDK  = 34
	MinSDKLevel = 1
)

// DeviceSettings describe the device the catalog resolves versions for.
type DeviceSettings struct {
	// SDK is the platform API level.
	SDK int

	// ABIs are the supported native ABIs, most preferred first.
	ABIs []string

	// Features are the hardware and software features available.
	Features []string
}

// UpdateSettings tune update suggestions.
type UpdateSettings struct {
	// ReleaseChannels are allowed for every package on top of stable.
	ReleaseChannels []string

	// CheckInterval is how often a watching process checks installed
	// packages for updates. Zero disables the check.
	CheckInterval time.Duration
}

// SearchSettings tune ranked search.
type SearchSettings struct {
	// Limit caps the number of results, 0 means no limit.
	Limit int

	// Weights score a term hit per column.
	Weights ColumnWeights
}

// InboxSettings configure the drop-folder importer.
type InboxSettings struct {
	// Dir is watched for dropped index files.
	Dir string

	// Rate is the number of index files applied per second.
	Rate int
}

// Settings holds all catalog settings.
type Settings struct {
	// DataDir holds the database. Empty means the default location.
	DataDir string

	// Locales are the preferred locales, most preferred first.
	Locales []string

	Device  DeviceSettings
	Updates UpdateSettings
	Search  SearchSettings
	Inbox   InboxSettings

	// InstalledFile is a YAML inventory of installed packages.
	InstalledFile string
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Locales: []string{DefaultLocale},
		Device: DeviceSettings{
			SDK:  DefaultSDK,
			ABIs: []string{ABIArm64, ABIArmV7},
		},
		Updates: UpdateSettings{
			CheckInterval: DefaultUpdateCheckInterval,
		},
		Search: SearchSettings{
			Limit:   50,
			Weights: DefaultColumnWeights(),
		},
		Inbox: InboxSettings{
			Rate: 1,
		},
	}
}

// Validate checks that the settings can be used.
func (s Settings) Validate() error {
	if s.Device.SDK < MinSDKLevel {
		return fmt.Errorf("%w: device sdk %d", ErrInvalidInput, s.Device.SDK)
	}
	if !s.Search.Weights.IsOrdered() {
		return fmt.Errorf("%w: search weights must rank name > summary > description > author > package",
			ErrInvalidInput)
	}
	if s.Search.Limit < 0 {
		return fmt.Errorf("%w: search limit %d", ErrInvalidInput, s.Search.Limit)
	}
	if s.Updates.CheckInterval < 0 {
		return fmt.Errorf("%w: update check interval %s", ErrInvalidInput, s.Updates.CheckInterval)
	}
	if s.Inbox.Rate < 0 {
		return fmt.Errorf("%w: inbox rate %d", ErrInvalidInput, s.Inbox.Rate)
	}
	return nil
}
