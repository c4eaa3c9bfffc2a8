package driven

import "context"

// Store table names, used to scope live query notifications.
const (
	TableRepository  = "repository"
	TablePreferences = "repository_preferences"
	TableAttributes  = "repo_attribute"
	TableApp         = "app_metadata"
	TableVersion     = "version"
	TableAppPrefs    = "app_prefs"
)

// Transactor runs units of work atomically.
type Transactor interface {
	// WithinTx runs fn inside one transaction carried by the context passed
	// to fn. Store calls made with that context join the transaction.
	// Nested calls join the outer transaction. Any error or panic rolls
	// back everything.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Subscription receives a signal after every committed transaction that
// touched one of its tables. Signals are coalesced: at most one is pending.
type Subscription struct {
	ID     string
	C      <-chan struct{}
	Cancel func()
}

// Notifier fans committed table changes out to subscribers.
type Notifier interface {
	// Subscribe registers interest in tables. An empty list watches everything.
	Subscribe(tables ...string) Subscription

	// Publish signals subscribers of any of the given tables.
	Publish(tables ...string)
}
