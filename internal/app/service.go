// Package app wires the daily results pipeline: ingress dedupe, the
// announcement queue, the single runner, and the repository, and exposes the
// read operations the HTTP API serves.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/guessrank/guessrank/internal/adapters/mq/queue"
	"github.com/guessrank/guessrank/internal/adapters/mq/runner"
	"github.com/guessrank/guessrank/internal/adapters/repository"
	"github.com/guessrank/guessrank/internal/domain/dedupe"
	"github.com/guessrank/guessrank/internal/domain/identity"
	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/internal/domain/parse"
	"github.com/guessrank/guessrank/pkg/logger"
	"github.com/guessrank/guessrank/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Service owns the pipeline and its collaborators.
type Service struct {
	mu sync.Mutex

	store     repository.Store
	deduper   dedupe.Deduper
	queue     *queue.MemoryQueue
	runner    *runner.Runner
	extractor *parse.Extractor
	resolver  *identity.Resolver
	directory identity.Directory

	// Configuration.
	kFactor             float64
	defaultRating       int
	inactivityThreshold int
	queueSize           int
	dedupeSize          int
	dbPath              string

	// dateLocks serializes runs per target date, so a second trigger
	// surface cannot race the idempotence gate.
	dateLocks sync.Map

	started bool
	cancel  context.CancelFunc

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a repository, bypassing the DBPath selection. Used by
// tests and custom wiring.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDirectory sets the fallback member directory used when an announcement
// carries no directory snapshot.
func WithDirectory(dir identity.Directory) Option {
	return func(s *Service) {
		if dir != nil {
			s.directory = dir
		}
	}
}

// WithKFactor sets the per-round rating sensitivity.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDefaultRating sets the rating assigned to newly sighted players.
func WithDefaultRating(rating int) Option {
	return func(s *Service) {
		if rating >= 0 {
			s.defaultRating = rating
		}
	}
}

// WithInactivityThreshold sets the consecutive missed days after which a
// player goes inactive.
func WithInactivityThreshold(days int) Option {
	return func(s *Service) {
		if days >= 1 {
			s.inactivityThreshold = days
		}
	}
}

// WithQueueSize bounds the announcement queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps the ingress message-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDBPath selects the SQLite database file; empty keeps the in-memory
// store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with defaults matching the config package.
func New(opts ...Option) *Service {
	s := &Service{
		kFactor:             32,
		defaultRating:       1000,
		inactivityThreshold: 3,
		queueSize:           1024,
		dedupeSize:          100_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes collaborators and launches the runner.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Named("app")
	}

	if s.store == nil {
		if s.dbPath != "" {
			store, err := repository.OpenSQLite(s.dbPath)
			if err != nil {
				return err
			}
			s.store = store
			s.log.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
		} else {
			s.store = repository.NewMemoryStore()
			s.log.Info(ctx, "using in-memory store")
		}
	}

	s.deduper = dedupe.NewMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewMemoryQueue(queue.WithCapacity(s.queueSize))
	s.extractor = parse.New(parse.WithLogger(s.log.Named("parse")))
	s.resolver = identity.New(identity.WithLogger(s.log.Named("identity")))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.runner = runner.New(s.queue, s, runner.WithLogger(s.log.Named("runner")))
	go s.runner.Run(runCtx)

	s.started = true
	s.log.Info(ctx, "rating service started",
		logger.Float64("k_factor", s.kFactor),
		logger.Int("default_rating", s.defaultRating),
		logger.Int("inactivity_threshold_days", s.inactivityThreshold),
	)
	return nil
}

// Stop drains the runner and closes the queue and store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.log.Info(ctx, "stopping rating service...")

	_ = s.queue.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.runner.Shutdown(shutdownCtx); err != nil {
		s.log.Warn(ctx, "runner did not drain in time", logger.Error(err))
	}
	s.cancel()

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.log.Info(ctx, "rating service stopped")
}

// SeenAndRecord atomically checks and records a gateway message id.
// Returns true if the message was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordAnnouncementSkipped(string(model.StatusDuplicateMessage))
	}
	return seen
}

// Unrecord forgets a message id so its delivery can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size reports how many message ids the ingress dedupe cache tracks.
// Returns 0 before Start.
func (s *Service) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an announcement for sequential processing. Returns false
// on backpressure.
func (s *Service) Enqueue(ctx context.Context, a model.Announcement) bool {
	ok := s.queue.Enqueue(ctx, a)
	if ok {
		metrics.RecordAnnouncementReceived()
	}
	return ok
}

// Leaderboard returns the top n players by rating.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]repository.Player, error) {
	return s.store.TopN(ctx, n)
}

// Player returns one player's state.
func (s *Service) Player(ctx context.Context, id string) (*repository.Player, error) {
	return s.store.FindPlayer(ctx, id)
}

// GetStats returns a service statistics snapshot for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"started":                   s.started,
		"k_factor":                  s.kFactor,
		"default_rating":            s.defaultRating,
		"inactivity_threshold_days": s.inactivityThreshold,
	}
	if s.started {
		ctx := context.Background()
		stats["queue_length"] = s.queue.Len(ctx)
		stats["players_tracked"] = s.store.Count(ctx)
		stats["seen_messages"] = s.deduper.Size()
	}
	return stats
}

// dateLock returns the mutex guarding a single game date.
func (s *Service) dateLock(date string) *sync.Mutex {
	lock, _ := s.dateLocks.LoadOrStore(date, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
