package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akravchenko/alertmap/internal/broadcast"
	"github.com/akravchenko/alertmap/internal/models"
	"github.com/akravchenko/alertmap/internal/nlp"
	"github.com/akravchenko/alertmap/internal/observability"
	"github.com/akravchenko/alertmap/internal/render"
	"github.com/akravchenko/alertmap/internal/store"
)

// stubTagger returns canned spans, standing in for the NER model server.
type stubTagger struct {
	spans []string
	err   error
}

func (s *stubTagger) TagLocations(ctx context.Context, text string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.spans, nil
}

// stubGeocoder resolves from a fixed table.
type stubGeocoder struct {
	known map[string]models.Coordinates
}

func (s *stubGeocoder) Resolve(ctx context.Context, name string) (models.Coordinates, bool) {
	coords, ok := s.known[name]
	return coords, ok
}

type fixture struct {
	pipeline *Pipeline
	store    *store.SQLite
	clock    *clockwork.FakeClock
	mapPath  string
}

func setupPipeline(t *testing.T, tagger nlp.LocationTagger, geo *stubGeocoder) *fixture {
	t.Helper()

	dict, err := nlp.ReadDict(strings.NewReader("оболоні\tоболонь\nтроєщини\tтроєщина"))
	if err != nil {
		t.Fatalf("ReadDict failed: %v", err)
	}

	st, err := store.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	mapPath := filepath.Join(t.TempDir(), "alerts.html")
	publisher := render.NewPublisher(st, render.NewRenderer(), time.Hour, mapPath, clock)

	p := New(tagger, nlp.NewNormalizer(dict), geo, st, publisher, broadcast.New(),
		observability.NewMetricsForTesting(), clock)

	return &fixture{pipeline: p, store: st, clock: clock, mapPath: mapPath}
}

func TestProcess_EndToEnd(t *testing.T) {
	tagger := &stubTagger{spans: []string{"Оболоні"}}
	geo := &stubGeocoder{known: map[string]models.Coordinates{
		"Оболонь": {Latitude: 50.5155, Longitude: 30.4852},
	}}
	f := setupPipeline(t, tagger, geo)

	msg := models.InboundMessage{Text: "Помічено рух техніки в районі Оболоні"}
	if err := f.pipeline.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	records, err := f.store.SnapshotWithin(context.Background(), time.Hour, f.clock.Now())
	if err != nil {
		t.Fatalf("SnapshotWithin failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Message != msg.Text {
		t.Errorf("expected original message preserved, got %q", r.Message)
	}
	if r.PlaceRaw != "Оболоні" || r.Place != "Оболонь" {
		t.Errorf("place mismatch: raw=%q canonical=%q", r.PlaceRaw, r.Place)
	}
	if r.Latitude != 50.5155 || r.Longitude != 30.4852 {
		t.Errorf("coordinates mismatch: %v, %v", r.Latitude, r.Longitude)
	}
	if !r.Timestamp.Equal(f.clock.Now().UTC()) {
		t.Errorf("expected message timestamp %v, got %v", f.clock.Now().UTC(), r.Timestamp)
	}

	// Five minutes later the alert still renders as a critical marker.
	f.clock.Advance(5 * time.Minute)
	if err := f.pipeline.publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	html, err := os.ReadFile(f.mapPath)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	page := string(html)
	if !strings.Contains(page, msg.Text) {
		t.Error("expected raw message as marker label")
	}
	if !strings.Contains(page, `"red"`) {
		t.Error("expected critical-tier marker")
	}
}

func TestProcess_UnresolvedLocationDropped(t *testing.T) {
	tagger := &stubTagger{spans: []string{"Оболоні", "Троєщини"}}
	geo := &stubGeocoder{known: map[string]models.Coordinates{
		"Троєщина": {Latitude: 50.513, Longitude: 30.605},
	}}
	f := setupPipeline(t, tagger, geo)

	msg := models.InboundMessage{Text: "Вибухи в районах Оболоні та Троєщини"}
	if err := f.pipeline.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	records, err := f.store.SnapshotWithin(context.Background(), time.Hour, f.clock.Now())
	if err != nil {
		t.Fatalf("SnapshotWithin failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record (unresolved dropped), got %d", len(records))
	}
	if records[0].Place != "Троєщина" {
		t.Errorf("expected resolved location stored, got %q", records[0].Place)
	}
}

func TestProcess_DuplicateMentionsYieldDuplicateRecords(t *testing.T) {
	tagger := &stubTagger{spans: []string{"Оболоні", "Оболоні"}}
	geo := &stubGeocoder{known: map[string]models.Coordinates{
		"Оболонь": {Latitude: 50.5155, Longitude: 30.4852},
	}}
	f := setupPipeline(t, tagger, geo)

	msg := models.InboundMessage{Text: "Оболоні, знову Оболоні"}
	if err := f.pipeline.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	records, _ := f.store.SnapshotWithin(context.Background(), time.Hour, f.clock.Now())
	if len(records) != 2 {
		t.Errorf("expected 2 records for a doubled mention, got %d", len(records))
	}
}

func TestProcess_NoResolutionsSkipsRender(t *testing.T) {
	tagger := &stubTagger{spans: []string{"Оболоні"}}
	geo := &stubGeocoder{known: nil}
	f := setupPipeline(t, tagger, geo)

	msg := models.InboundMessage{Text: "щось про Оболоні"}
	if err := f.pipeline.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if _, err := os.Stat(f.mapPath); !os.IsNotExist(err) {
		t.Error("expected no artifact when nothing was stored")
	}
}

func TestProcess_TagFailureDropsMessageOnly(t *testing.T) {
	tagger := &stubTagger{err: errors.New("model server down")}
	f := setupPipeline(t, tagger, &stubGeocoder{})

	err := f.pipeline.Process(context.Background(), models.InboundMessage{Text: "текст"})
	if err == nil {
		t.Error("expected error surfaced for logging")
	}

	records, _ := f.store.SnapshotWithin(context.Background(), time.Hour, f.clock.Now())
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestProcess_BroadcastsStoredRecords(t *testing.T) {
	tagger := &stubTagger{spans: []string{"Оболоні"}}
	geo := &stubGeocoder{known: map[string]models.Coordinates{
		"Оболонь": {Latitude: 50.5155, Longitude: 30.4852},
	}}
	f := setupPipeline(t, tagger, geo)

	id, ch := f.pipeline.broadcaster.Subscribe()
	defer f.pipeline.broadcaster.Unsubscribe(id)

	if err := f.pipeline.Process(context.Background(), models.InboundMessage{Text: "рух на Оболоні"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	select {
	case rec := <-ch:
		if rec.Place != "Оболонь" {
			t.Errorf("expected broadcast of stored record, got %q", rec.Place)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast")
	}
}
