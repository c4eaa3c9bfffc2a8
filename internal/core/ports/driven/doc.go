// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Store Interfaces
//
// These are implemented by the relational store and must be provided:
//
//   - Transactor: Runs a unit of work in one all-or-nothing transaction
//   - Notifier: Publishes committed table changes to live queries
//   - RepositoryStore: Repositories, preferences, mirrors and attributes
//   - AppStore: App metadata, localized files and precedence-aware reads
//   - VersionStore: Versions and their permissions
//   - AppPrefsStore: Per-package user preferences
//   - SearchIndex: Full-text candidate lookup
//   - SchedulerStore: Scheduled task state and run history
//
// # Collaborator Interfaces
//
// These abstract the host platform:
//
//   - CompatibilityChecker: Decides whether a manifest can run on this device
//   - InstalledPackages: Inventory of installed packages
//   - LocaleProvider: Preferred locales, most preferred first
//   - ConfigStore: Application configuration
//
// Every read returns nil or an empty slice when nothing matches.
// Writes referencing an unknown repository fail with domain.ErrRepositoryNotFound.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
