// Package domain defines the core catalog entities.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Repository: A subscribed package repository and its preferences
//   - App: Package metadata as published by one repository
//   - Version: One installable artifact of a package
//   - AppPrefs: Per-package user state (preferred repo, ignored updates)
//   - IndexRepo, IndexPackage: The decoded shape of a full index feed
//
// Struct tags describe the index wire format (json) and the constraints a
// full-index record must satisfy (validate). Both are plain tags, so this
// package stays free of imports beyond the standard library.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
