//go:build sqlite

package fitcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"svjfit/internal/model"

	_ "modernc.org/sqlite"
)

const (
	currentSchemaVersion = 1
	currentCodecVersion  = 1
)

var errVersionMismatch = errors.New("cached fit record version mismatch")

// SQLiteStore persists fit results in a single sqlite table. Writes are
// committed immediately; there is no buffering and no eviction.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fits (
			hash TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, hash string) (model.FitResult, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.FitResult{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM fits WHERE hash = ?`, hash).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FitResult{}, false, nil
		}
		return model.FitResult{}, false, err
	}

	var res model.FitResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return model.FitResult{}, false, fmt.Errorf("decode cached fit %s: %w", hash, err)
	}
	if res.SchemaVersion != currentSchemaVersion || res.CodecVersion != currentCodecVersion {
		return model.FitResult{}, false, fmt.Errorf("fit %s: %w", hash, errVersionMismatch)
	}
	return res, true, nil
}

func (s *SQLiteStore) Write(ctx context.Context, hash string, res model.FitResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	res.SchemaVersion = currentSchemaVersion
	res.CodecVersion = currentCodecVersion
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO fits (hash, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, hash, res.SchemaVersion, res.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("fit cache store is not initialized")
	}
	return s.db, nil
}
