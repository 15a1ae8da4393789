// Package runner consumes the announcement queue with a single goroutine,
// which keeps pipeline runs strictly sequential: one announcement finishes
// before the next is considered.
package runner

import (
	"context"
	"fmt"

	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/pkg/logger"
)

// Processor runs the daily pipeline for one announcement.
type Processor interface {
	ProcessAnnouncement(ctx context.Context, a model.Announcement) (model.RunOutcome, error)
}

// Queue defines how the runner receives announcements.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Announcement
}

// Runner is the single pipeline consumer.
type Runner struct {
	queue     Queue
	processor Processor
	log       logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// New constructs a Runner over the given queue and processor.
func New(q Queue, p Processor, opts ...Option) *Runner {
	r := &Runner{
		queue:     q,
		processor: p,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("runner")
	}
	return r
}

// Run consumes announcements until ctx is canceled, the queue closes, or
// Shutdown is called.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	in := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case a, ok := <-in:
			if !ok {
				return
			}
			r.process(ctx, a)
		}
	}
}

// Shutdown stops the runner after the in-flight announcement completes.
func (r *Runner) Shutdown(ctx context.Context) error {
	close(r.shutdown)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runner shutdown timed out: %w", ctx.Err())
	}
}

func (r *Runner) process(ctx context.Context, a model.Announcement) {
	outcome, err := r.processor.ProcessAnnouncement(ctx, a)
	if err != nil {
		r.log.Error(ctx, "pipeline run failed",
			logger.String("message_id", a.MessageID),
			logger.Error(err),
		)
		return
	}

	fields := []logger.Field{
		logger.String("message_id", a.MessageID),
		logger.String("status", string(outcome.Status)),
	}
	if outcome.GameDate != "" {
		fields = append(fields, logger.String("game_date", outcome.GameDate))
	}
	if outcome.Skipped() {
		r.log.Info(ctx, "announcement skipped", fields...)
		return
	}
	fields = append(fields, logger.Int("participants", outcome.Participants))
	r.log.Info(ctx, "game day processed", fields...)
}
