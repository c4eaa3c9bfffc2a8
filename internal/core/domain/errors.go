package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Read operations never return it; they return nil or empty results.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Index Errors.

	// ErrSerialization indicates index or diff content that cannot be
	// decoded or that touches a deny-listed identity field.
	// The enclosing transaction is always rolled back.
	ErrSerialization = errors.New("serialization error")

	// ErrValidation indicates a full-index record is missing required data,
	// such as a file without checksum or a path that is not rooted.
	ErrValidation = errors.New("validation error")

	// ErrStaleDiff indicates a diff was generated against a timestamp that
	// does not match the stored repository. Callers fall back to a full index.
	ErrStaleDiff = errors.New("diff does not match stored repository timestamp")

	// Repository Errors.

	// ErrRepositoryNotFound indicates a write referenced a repository id that
	// does not exist. This is a programming error upstream and is not retried.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrArchiveReorder indicates an attempt to move an archive repository on
	// its own. Archive repositories move together with their main repository.
	ErrArchiveReorder = errors.New("archive repositories cannot be reordered directly")
)
