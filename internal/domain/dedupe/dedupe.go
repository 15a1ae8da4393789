// Package dedupe tracks already-seen gateway message ids so a redelivered
// announcement is dropped before it ever reaches the pipeline.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen message ids for at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing a retry. Used when an announcement
	// was marked seen but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently tracked.
	Size() int64
}

// memoryDeduper is a bounded in-memory Deduper. When full, the oldest
// recorded id is evicted (FIFO) via a ring of insertion order.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int
	maxSize int
}

// NewMemoryDeduper creates a bounded in-memory deduper. A non-positive max
// size falls back to the default.
func NewMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: 50_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.ring = make([]string, 0, d.maxSize)
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if len(d.ring) < d.maxSize {
		d.ring = append(d.ring, id)
	} else {
		// Full: overwrite the oldest slot.
		old := d.ring[d.head]
		if old != "" {
			delete(d.seen, old)
		}
		d.ring[d.head] = id
		d.head = (d.head + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	// Blank the ring slot so eviction does not delete a re-added id later.
	for i, v := range d.ring {
		if v == id {
			d.ring[i] = ""
			break
		}
	}
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
