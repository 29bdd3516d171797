package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/akravchenko/alertmap/internal/models"
)

// Broadcaster fans freshly stored alert records out to live dashboard
// streams. Slow subscribers are skipped rather than blocking the pipeline.
type Broadcaster struct {
	subscribers map[uint64]chan models.AlertRecord
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func New() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan models.AlertRecord),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan models.AlertRecord) {
	id := b.nextID.Add(1)
	ch := make(chan models.AlertRecord, 16)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(r models.AlertRecord) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- r:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, ending their streams gracefully.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
