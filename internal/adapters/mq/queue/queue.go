// Package queue buffers accepted announcements between the HTTP surface and
// the single pipeline runner.
package queue

import (
	"context"
	"sync"

	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/pkg/metrics"
)

const defaultCapacity = 1024

// Announcement is the payload type flowing through the queue.
type Announcement = model.Announcement

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an announcement. Returns false when the queue is full
	// or closed.
	Enqueue(ctx context.Context, a Announcement) bool

	// Dequeue returns a channel delivering announcements in order. The
	// channel closes when the queue closes.
	Dequeue(ctx context.Context) <-chan Announcement

	// Len returns the current number of buffered announcements.
	Len(ctx context.Context) int

	// Close stops the queue; further enqueues fail.
	Close() error
}

// MemoryQueue implements Queue over a buffered channel.
type MemoryQueue struct {
	items    chan Announcement
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a bounded in-memory queue.
func NewMemoryQueue(opts ...Option) *MemoryQueue {
	q := &MemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Announcement, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *MemoryQueue) Enqueue(ctx context.Context, a Announcement) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.items <- a:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// Full.
		metrics.RecordQueueEnqueueError()
		return false
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) <-chan Announcement {
	out := make(chan Announcement)
	go func() {
		defer close(out)
		for a := range q.items {
			select {
			case out <- a:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *MemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}
