package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/logger"
	"github.com/custodia-labs/catalog-sync/internal/metrics"
)

// maxParams is the bound-parameter limit per statement. Key-list queries are
// split into chunks so that keys plus other arguments stay within it.
const maxParams = 999

// dsnParams enables WAL, waits on locks, enforces foreign keys and takes the
// write lock when a transaction begins.
const dsnParams = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"

// Store is a unified SQLite-based storage that provides access to
// all catalog store interfaces through wrapper types.
type Store struct {
	db       *sqlx.DB
	path     string
	notifier *notifier
}

var _ driven.Transactor = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.catalog/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".catalog", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	db, err := sqlx.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		notifier: newNotifier(),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RepositoryStore returns a RepositoryStore interface backed by this store.
func (s *Store) RepositoryStore() driven.RepositoryStore {
	return &repositoryStore{store: s}
}

// AppStore returns an AppStore interface backed by this store.
func (s *Store) AppStore() driven.AppStore {
	return &appStore{store: s}
}

// VersionStore returns a VersionStore interface backed by this store.
func (s *Store) VersionStore() driven.VersionStore {
	return &versionStore{store: s}
}

// AppPrefsStore returns an AppPrefsStore interface backed by this store.
func (s *Store) AppPrefsStore() driven.AppPrefsStore {
	return &appPrefsStore{store: s}
}

// SearchIndex returns a SearchIndex interface backed by this store.
func (s *Store) SearchIndex() driven.SearchIndex {
	return &searchIndex{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// Notifier returns the change notifier fed by committed transactions.
func (s *Store) Notifier() driven.Notifier {
	return s.notifier
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	all, err := migrations.All()
	if err != nil {
		return err
	}
	for _, m := range all {
		if m.Version <= currentVersion {
			continue
		}
		logger.Debug("Applying migration %s", m.Name)

		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", m.Name, err)
		}
	}

	return nil
}

// ==================== Transactions ====================

type txKey struct{}

// txState is the transaction carried in a context, with the tables it wrote.
type txState struct {
	tx *sqlx.Tx

	mu     sync.Mutex
	tables map[string]struct{}
}

// WithinTx runs fn in a transaction carried by the context passed to fn.
// A nested call joins the outer transaction. The transaction commits when fn
// returns nil and rolls back on error or panic. Tables written during the
// transaction are published to live queries after commit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	state := &txState{tx: tx, tables: make(map[string]struct{})}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, state)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	tables := make([]string, 0, len(state.tables))
	for t := range state.tables {
		tables = append(tables, t)
	}
	s.notifier.Publish(tables...)
	return nil
}

// conn returns the transaction in ctx, or the database handle.
func (s *Store) conn(ctx context.Context) sqlx.ExtContext {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return s.db
}

// touch marks tables as written. Outside a transaction the change is
// already committed and is published right away.
func (s *Store) touch(ctx context.Context, tables ...string) {
	state, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		s.notifier.Publish(tables...)
		return
	}
	state.mu.Lock()
	for _, t := range tables {
		state.tables[t] = struct{}{}
	}
	state.mu.Unlock()
}

// exec runs a write statement and marks tables as written.
func (s *Store) exec(ctx context.Context, query string, args []any, tables ...string) (sql.Result, error) {
	res, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, tables...)
	return res, nil
}

// ==================== Helper Functions ====================

// instrumentQuery records the duration of a store operation.
func instrumentQuery(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveQuery(operation, start)
	return err
}

// chunked calls fn with consecutive slices of at most size keys.
func chunked[T any](keys []T, size int, fn func(chunk []T) error) error {
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		if err := fn(keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// selectIn runs query with keys bound to its first placeholder, an "IN (?)",
// and args to the rest. Keys are chunked so that keys and args together stay
// within maxParams, and every chunk's rows are appended to dest.
func selectIn[T any, K any](ctx context.Context, q sqlx.ExtContext, dest *[]T, query string, keys []K, args ...any) error {
	return chunked(keys, maxParams-len(args), func(chunk []K) error {
		bound := make([]any, 0, len(args)+1)
		bound = append(bound, chunk)
		bound = append(bound, args...)
		expanded, expandedArgs, err := sqlx.In(query, bound...)
		if err != nil {
			return fmt.Errorf("expanding query: %w", err)
		}
		var rows []T
		if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(expanded), expandedArgs...); err != nil {
			return err
		}
		*dest = append(*dest, rows...)
		return nil
	})
}

// nullString converts an empty string to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// toJSON encodes v, storing NULL for empty values.
func toJSON(v any) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding json: %w", err)
	}
	s := string(data)
	if s == "null" || s == "{}" || s == "[]" || s == `""` {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// fromJSON decodes a nullable JSON column into v.
func fromJSON(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), v); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// joinList stores a string list as ",a,b," so membership is a LIKE match.
func joinList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: "," + strings.Join(items, ",") + ",", Valid: true}
}

// splitList reverses joinList.
func splitList(col sql.NullString) []string {
	trimmed := strings.Trim(col.String, ",")
	if !col.Valid || trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ",")
}

// likeEscape ends every LIKE clause that takes a likeList pattern.
const likeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeList returns the LIKE pattern matching id in a joinList column.
// Wildcards in id match literally.
func likeList(id string) string {
	return "%," + likeEscaper.Replace(id) + ",%"
}

// isForeignKeyViolation reports whether err is a foreign key constraint failure.
func isForeignKeyViolation(err error) bool {
	var serr *moderncsqlite.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// repoWriteError maps a foreign key failure on a repository-rooted row to
// domain.ErrRepositoryNotFound.
func repoWriteError(op string, repoID int64, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: repo %d: %w", op, repoID, domain.ErrRepositoryNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
