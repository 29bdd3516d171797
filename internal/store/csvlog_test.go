package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akravchenko/alertmap/internal/models"
)

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return rows
}

func TestCSVLog_CreatesHeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.csv")

	if _, err := NewCSVLog(path); err != nil {
		t.Fatalf("NewCSVLog failed: %v", err)
	}

	rows := readLog(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected header-only file, got %d rows", len(rows))
	}
	want := []string{"message", "place", "lat", "lon", "timestamp"}
	for i, col := range want {
		if rows[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, rows[0][i])
		}
	}
}

func TestCSVLog_AppendAndRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.csv")
	l, err := NewCSVLog(path)
	if err != nil {
		t.Fatalf("NewCSVLog failed: %v", err)
	}

	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	rec := models.AlertRecord{
		Message:   "Помічено рух техніки в районі Оболоні",
		PlaceRaw:  "Оболоні",
		Place:     "Оболонь",
		Latitude:  50.5155,
		Longitude: 30.4852,
		Timestamp: ts,
	}

	if err := l.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rows := readLog(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != rec.Message || rows[1][1] != "Оболонь" {
		t.Errorf("unexpected row: %v", rows[1])
	}
	if rows[1][4] != "2026-08-25T12:00:00Z" {
		t.Errorf("expected RFC-3339 UTC timestamp, got %q", rows[1][4])
	}

	// Rewrite with one record drops the other row but keeps the header.
	if err := l.Rewrite([]models.AlertRecord{rec}); err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	rows = readLog(t, path)
	if len(rows) != 2 {
		t.Errorf("expected header + 1 row after rewrite, got %d", len(rows))
	}
}

func TestLogged_MirrorsStoreOperations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locations.csv")

	inner, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer inner.Close()

	csvLog, err := NewCSVLog(path)
	if err != nil {
		t.Fatalf("NewCSVLog failed: %v", err)
	}
	logged := NewLogged(inner, csvLog)

	ctx := context.Background()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	fresh := models.AlertRecord{Message: "свіже", PlaceRaw: "Києві", Place: "Київ", Latitude: 50.45, Longitude: 30.52, Timestamp: now.Add(-time.Minute)}
	stale := models.AlertRecord{Message: "старе", PlaceRaw: "Києві", Place: "Київ", Latitude: 50.45, Longitude: 30.52, Timestamp: now.Add(-2 * time.Hour)}

	for _, r := range []models.AlertRecord{fresh, stale} {
		rec := r
		if err := logged.Append(ctx, &rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	if rows := readLog(t, path); len(rows) != 3 {
		t.Fatalf("expected header + 2 rows after appends, got %d", len(rows))
	}

	evicted, err := logged.Prune(ctx, time.Hour, now)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if evicted != 1 {
		t.Errorf("expected 1 evicted, got %d", evicted)
	}

	rows := readLog(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row after prune rewrite, got %d", len(rows))
	}
	if rows[1][0] != "свіже" {
		t.Errorf("expected fresh record to survive rewrite, got %v", rows[1])
	}
}
