//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"pyrcn/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}

func DefaultStoreKind() string {
	return "sqlite"
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

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveLayer(ctx context.Context, record model.LayerRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeLayer(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO layers (id, name, created_at_utc, n_components, n_features, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_at_utc = excluded.created_at_utc,
			n_components = excluded.n_components,
			n_features = excluded.n_features,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.ID, record.Name, record.CreatedAtUTC, record.Config.NComponents, record.NFeatures,
		record.SchemaVersion, record.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetLayer(ctx context.Context, id string) (model.LayerRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.LayerRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM layers WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LayerRecord{}, false, nil
		}
		return model.LayerRecord{}, false, err
	}

	record, err := DecodeLayer(payload)
	if err != nil {
		return model.LayerRecord{}, false, fmt.Errorf("decode layer %s: %w", id, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListLayers(ctx context.Context) ([]model.LayerSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, created_at_utc, n_components, n_features
		FROM layers
		ORDER BY created_at_utc, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LayerSummary{}
	for rows.Next() {
		var summary model.LayerSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.CreatedAtUTC, &summary.NComponents, &summary.NFeatures); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteLayer(ctx context.Context, id string) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM layers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
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
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS layers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at_utc TEXT NOT NULL,
			n_components INTEGER NOT NULL,
			n_features INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
