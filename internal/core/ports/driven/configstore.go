package driven

// ConfigStore holds user settings under dotted keys such as
// "search.weights.name" or "updates.check_interval".
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" for a missing or non-string value.
	GetString(key string) string

	// GetInt returns 0 for a missing or non-integer value.
	GetInt(key string) int

	// GetStringSlice returns nil for a missing or non-list value.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Path returns where the settings are persisted.
	Path() string
}
