package sqlite

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/macrolens/scanner/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - products, scan_history, user_preferences
const currentSchemaVersion = 1

// Store is the SQLite-backed domain.ProductStore.
//
// The pool is pinned to a single connection. Writers are serialized, and a
// batch transaction holds the connection until commit, so readers observe
// either the pre-batch or the post-batch catalog and never a mix.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ domain.ProductStore = (*Store)(nil)

// Open creates or opens the cache database at path and lazily creates the
// schema. Safe to call against an existing database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorage, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect to database: %v", domain.ErrStorage, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// :memory: databases vanish with their connection
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the version.
func applySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
