package geocode

import (
	"container/list"
	"context"
	"sync"

	"github.com/akravchenko/alertmap/internal/models"
)

// Cached wraps a Geocoder with an in-memory LRU keyed on the canonical place
// name. Canonical names recur constantly (the same districts get mentioned in
// message after message), and each upstream call costs a rate-limiter slot.
// Only hits are cached, so a transient failure stays retryable.
type Cached struct {
	inner      Geocoder
	maxEntries int

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

type cacheEntry struct {
	name   string
	coords models.Coordinates
}

func NewCached(inner Geocoder, maxEntries int) *Cached {
	return &Cached{
		inner:      inner,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *Cached) Resolve(ctx context.Context, name string) (models.Coordinates, bool) {
	if coords, ok := c.get(name); ok {
		return coords, true
	}

	coords, ok := c.inner.Resolve(ctx, name)
	if ok {
		c.put(name, coords)
	}
	return coords, ok
}

func (c *Cached) get(name string) (models.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[name]
	if !ok {
		return models.Coordinates{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).coords, true
}

func (c *Cached) put(name string, coords models.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[name]; ok {
		el.Value.(*cacheEntry).coords = coords
		c.order.MoveToFront(el)
		return
	}

	c.entries[name] = c.order.PushFront(&cacheEntry{name: name, coords: coords})

	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).name)
	}
}

// Len reports the number of cached names.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
