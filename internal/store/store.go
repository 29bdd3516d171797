package store

import (
	"context"
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

// Store is the time-windowed alert collection. All three operations must be
// safe to call concurrently from independent goroutines; a record appended
// inside the window is never lost to a racing prune.
type Store interface {
	// Append persists one resolved record. The record is visible to
	// SnapshotWithin once Append returns.
	Append(ctx context.Context, r *models.AlertRecord) error

	// SnapshotWithin returns every record with now - timestamp <= window,
	// in unspecified order.
	SnapshotWithin(ctx context.Context, window time.Duration, now time.Time) ([]models.AlertRecord, error)

	// Prune permanently evicts every record with now - timestamp > window
	// and reports how many were removed.
	Prune(ctx context.Context, window time.Duration, now time.Time) (int64, error)
}
