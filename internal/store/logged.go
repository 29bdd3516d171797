package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

// Logged decorates a Store with the CSV alert-log mirror. The sqlite store
// stays authoritative; mirror write failures are logged and never fail the
// pipeline.
type Logged struct {
	inner Store
	log   *CSVLog
}

func NewLogged(inner Store, log *CSVLog) *Logged {
	return &Logged{
		inner: inner,
		log:   log,
	}
}

func (l *Logged) Append(ctx context.Context, r *models.AlertRecord) error {
	if err := l.inner.Append(ctx, r); err != nil {
		return err
	}
	if err := l.log.Append(*r); err != nil {
		slog.Warn("alert log append failed", "place", r.Place, "error", err)
	}
	return nil
}

func (l *Logged) SnapshotWithin(ctx context.Context, window time.Duration, now time.Time) ([]models.AlertRecord, error) {
	return l.inner.SnapshotWithin(ctx, window, now)
}

func (l *Logged) Prune(ctx context.Context, window time.Duration, now time.Time) (int64, error) {
	evicted, err := l.inner.Prune(ctx, window, now)
	if err != nil {
		return evicted, err
	}
	if evicted == 0 {
		return 0, nil
	}

	kept, err := l.inner.SnapshotWithin(ctx, window, now)
	if err != nil {
		slog.Warn("alert log rewrite snapshot failed", "error", err)
		return evicted, nil
	}
	if err := l.log.Rewrite(kept); err != nil {
		slog.Warn("alert log rewrite failed", "error", err)
	}
	return evicted, nil
}
