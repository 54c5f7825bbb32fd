package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"cogmap/application/ports"
	"cogmap/domain/core/aggregates"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_nodes (
    position  INTEGER PRIMARY KEY,
    id        TEXT NOT NULL UNIQUE,
    label     TEXT NOT NULL,
    parent_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
    singleton  INTEGER PRIMARY KEY CHECK (singleton = 1),
    current_id TEXT NOT NULL,
    saved_at   INTEGER NOT NULL
);
`

// SnapshotStore keeps the last-known tree in a SQLite file. Each Save
// replaces the previous snapshot in one transaction.
type SnapshotStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// Open opens (or creates) the database at path
func Open(path string, logger *zap.Logger) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %q: %w", path, err)
	}
	// One writer; the session saves from a single goroutine.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SnapshotStore{db: db, logger: logger.Named("snapshots")}, nil
}

// Close closes the database connection
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot
func (s *SnapshotStore) Save(ctx context.Context, snap ports.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_nodes`); err != nil {
		return fmt.Errorf("clear snapshot nodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_nodes (position, id, label, parent_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		if _, err := stmt.ExecContext(ctx, i, rec.ID, rec.Label, rec.ParentID); err != nil {
			return fmt.Errorf("insert snapshot node %q: %w", rec.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (singleton, current_id, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET current_id = excluded.current_id, saved_at = excluded.saved_at
	`, snap.CurrentID, snap.SavedAt.UnixNano()); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Debug("Snapshot saved", zap.Int("nodes", len(snap.Records)))
	return nil
}

// Load returns the stored snapshot; ok is false when nothing was saved yet
func (s *SnapshotStore) Load(ctx context.Context) (ports.Snapshot, bool, error) {
	var (
		snap    ports.Snapshot
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT current_id, saved_at FROM snapshot_meta WHERE singleton = 1`,
	).Scan(&snap.CurrentID, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Snapshot{}, false, nil
	}
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("read snapshot meta: %w", err)
	}
	snap.SavedAt = time.Unix(0, savedAt).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, parent_id FROM snapshot_nodes ORDER BY position`)
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("read snapshot nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec aggregates.NodeRecord
		if err := rows.Scan(&rec.ID, &rec.Label, &rec.ParentID); err != nil {
			return ports.Snapshot{}, false, fmt.Errorf("scan snapshot node: %w", err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("iterate snapshot nodes: %w", err)
	}

	return snap, true, nil
}
