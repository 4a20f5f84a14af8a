// Package localstore is the durable medium behind the emulated datastore:
// one SQLite file holding a key-value table, with each logical table stored
// as a single JSON array under a fixed key. Reads return the full collection
// in insertion order; writes replace it wholesale. Two concurrent processes
// doing read-modify-write can lose one writer's update, accepted at the
// local-development scale this store exists for.
package localstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/claude/liftlog/internal/models"
)

const (
	tableKeyPrefix = "table:"
	identityKey    = "identity"
)

// Store is a keyed collection of records per table, persisted to disk.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the local store database at dir/local.db.
func Open(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "local.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Get returns every record in the named table, in insertion order.
// A table that was never written is an empty collection, not an error.
func (s *Store) Get(table string) ([]map[string]any, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, tableKeyPrefix+table).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", table, err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decoding table %s: %w", table, err)
	}
	return records, nil
}

// Set replaces the full collection for the named table. There is no partial
// update primitive: callers read the collection, mutate it, and write it back.
func (s *Store) Set(table string, records []map[string]any) error {
	if records == nil {
		records = []map[string]any{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding table %s: %w", table, err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`,
		tableKeyPrefix+table, string(raw),
	)
	if err != nil {
		return fmt.Errorf("writing table %s: %w", table, err)
	}
	return nil
}

// Identity returns the current mock identity, or nil when signed out.
func (s *Store) Identity() (*models.User, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, identityKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity: %w", err)
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decoding identity: %w", err)
	}
	return &u, nil
}

// SetIdentity stores the current mock identity.
func (s *Store) SetIdentity(u models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding identity: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, identityKey, string(raw))
	if err != nil {
		return fmt.Errorf("writing identity: %w", err)
	}
	return nil
}

// ClearIdentity removes the current mock identity.
func (s *Store) ClearIdentity() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, identityKey); err != nil {
		return fmt.Errorf("clearing identity: %w", err)
	}
	return nil
}

// LegacyOwnerID reports whether id looks like a timestamp-derived owner id
// from before identities were made deterministic from the login name
// ("mock-1702903458293" rather than "mock-user-alice-example-com").
func LegacyOwnerID(id string) bool {
	return strings.HasPrefix(id, "mock-") && !strings.HasPrefix(id, "mock-user-")
}

// MigrateLegacyOwners reassigns workout records carrying a legacy
// timestamp-derived owner id to the given user. It runs only when explicitly
// invoked (on sign-in) and returns the number of records rewritten.
func (s *Store) MigrateLegacyOwners(table, userID string) (int, error) {
	records, err := s.Get(table)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, rec := range records {
		owner, _ := rec["user_id"].(string)
		if owner == "" || owner == userID || !LegacyOwnerID(owner) {
			continue
		}
		rec["user_id"] = userID
		migrated++
	}
	if migrated == 0 {
		return 0, nil
	}

	if err := s.Set(table, records); err != nil {
		return 0, err
	}
	s.log.Info("migrated legacy-owned records", "table", table, "count", migrated, "user", userID)
	return migrated, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
