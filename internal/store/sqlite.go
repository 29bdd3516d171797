package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/akravchenko/alertmap/internal/models"
)

// SQLite is the embedded-store implementation of Store. Timestamps are kept
// as integer unix nanoseconds so window comparisons happen in SQL and a
// stored record reads back with full precision.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Single-writer discipline: every append/snapshot/prune goes through one
	// connection, so a compaction pass can never interleave with an append.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLite{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			place_raw TEXT NOT NULL,
			place TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			timestamp INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Append(ctx context.Context, r *models.AlertRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (message, place_raw, place, latitude, longitude, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Message, r.PlaceRaw, r.Place, r.Latitude, r.Longitude, r.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading insert id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLite) SnapshotWithin(ctx context.Context, window time.Duration, now time.Time) ([]models.AlertRecord, error) {
	cutoff := now.Add(-window).UTC().UnixNano()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, place_raw, place, latitude, longitude, timestamp
		 FROM alerts WHERE timestamp >= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	var records []models.AlertRecord
	for rows.Next() {
		var r models.AlertRecord
		var ns int64
		if err := rows.Scan(&r.ID, &r.Message, &r.PlaceRaw, &r.Place, &r.Latitude, &r.Longitude, &ns); err != nil {
			return nil, fmt.Errorf("error scanning alert row: %w", err)
		}
		r.Timestamp = time.Unix(0, ns).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return records, nil
}

func (s *SQLite) Prune(ctx context.Context, window time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-window).UTC().UnixNano()

	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error pruning alerts: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
