// Package sqlite provides a unified SQLite-based implementation of the
// catalog store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, with jmoiron/sqlx for struct scanning and IN expansion.
// It implements every store interface through a single database handle:
//
//   - RepositoryStore: Repositories, preferences, mirrors and attributes
//   - AppStore: App metadata, localized files and precedence-aware lists
//   - VersionStore: Versions and their permissions
//   - AppPrefsStore: Per-package user preferences
//   - SearchIndex: FTS5 candidate lookup with per-column hits
//   - SchedulerStore: Scheduled task state and run history
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory as NNN_name.up.sql files. Applied versions are
// recorded in schema_migrations. Deleting a repository cascades to every
// row rooted at it. The preferred_app view resolves which repository's copy
// of a package takes precedence.
//
// # Transactions
//
// Store.WithinTx carries the transaction in the context. Every store method
// called with that context joins it, as do nested WithinTx calls. Tables
// written by a committed transaction are published to the Notifier.
//
// # Data Location
//
// By default, the database is stored at ~/.catalog/data/catalog.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite in WAL mode;
// write transactions take the write lock when they begin.
package sqlite
