package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/akravchenko/alertmap/internal/store"
)

// Publisher regenerates the map artifact from the store: prune, snapshot,
// render, atomic write. Safe to call with no new data; invoked after every
// successful pipeline append and on every dashboard read.
type Publisher struct {
	store    store.Store
	renderer *Renderer
	window   time.Duration
	path     string
	clock    clockwork.Clock

	mu sync.Mutex // one refresh cycle at a time
}

func NewPublisher(st store.Store, renderer *Renderer, window time.Duration, path string, clock clockwork.Clock) *Publisher {
	return &Publisher{
		store:    st,
		renderer: renderer,
		window:   window,
		path:     path,
		clock:    clock,
	}
}

// Refresh compacts the store and rewrites the artifact in place.
func (p *Publisher) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now().UTC()

	if _, err := p.store.Prune(ctx, p.window, now); err != nil {
		return fmt.Errorf("error pruning store: %w", err)
	}

	records, err := p.store.SnapshotWithin(ctx, p.window, now)
	if err != nil {
		return fmt.Errorf("error reading store: %w", err)
	}

	html, err := p.renderer.Render(records, now)
	if err != nil {
		return err
	}

	return p.writeAtomic(html)
}

// Path is where the artifact is served from.
func (p *Publisher) Path() string {
	return p.path
}

// writeAtomic replaces the artifact via temp file + rename so a concurrent
// HTTP read never sees a torn document.
func (p *Publisher) writeAtomic(data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".alerts-*.html")
	if err != nil {
		return fmt.Errorf("error creating temp artifact: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error replacing artifact: %w", err)
	}
	return nil
}
