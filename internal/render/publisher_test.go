package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akravchenko/alertmap/internal/models"
	"github.com/akravchenko/alertmap/internal/store"
)

func setupPublisher(t *testing.T, now time.Time) (*Publisher, *store.SQLite, string) {
	t.Helper()

	st, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	path := filepath.Join(t.TempDir(), "static", "alerts.html")
	clock := clockwork.NewFakeClockAt(now)
	return NewPublisher(st, NewRenderer(), time.Hour, path, clock), st, path
}

func TestPublisher_RefreshEmptyStore(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	p, _, path := setupPublisher(t, now)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed on empty store: %v", err)
	}

	html, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if !strings.Contains(string(html), "L.map") {
		t.Error("expected valid empty-state artifact")
	}
}

func TestPublisher_RefreshPrunesAndRenders(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	p, st, path := setupPublisher(t, now)
	ctx := context.Background()

	fresh := models.AlertRecord{
		Message: "свіже повідомлення", PlaceRaw: "Оболоні", Place: "Оболонь",
		Latitude: 50.5155, Longitude: 30.4852, Timestamp: now.Add(-5 * time.Minute),
	}
	stale := models.AlertRecord{
		Message: "застаріле повідомлення", PlaceRaw: "Києві", Place: "Київ",
		Latitude: 50.45, Longitude: 30.52, Timestamp: now.Add(-2 * time.Hour),
	}
	for _, r := range []models.AlertRecord{fresh, stale} {
		rec := r
		if err := st.Append(ctx, &rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	html, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	page := string(html)
	if !strings.Contains(page, "свіже повідомлення") {
		t.Error("expected fresh record marker in artifact")
	}
	if strings.Contains(page, "застаріле повідомлення") {
		t.Error("expected stale record excluded from artifact")
	}

	// The stale record must be gone from the store, not just the artifact.
	remaining, err := st.SnapshotWithin(ctx, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("SnapshotWithin failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected 1 record after prune, got %d", len(remaining))
	}
}

func TestPublisher_RefreshIsRepeatable(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	p, _, path := setupPublisher(t, now)
	ctx := context.Background()

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Error("expected identical artifact when nothing changed")
	}
}
