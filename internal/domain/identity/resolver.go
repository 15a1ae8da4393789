package identity

import (
	"context"

	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/pkg/logger"
	"github.com/guessrank/guessrank/pkg/metrics"
)

// Resolver turns parsed result rows into confirmed participants. Rows that
// cannot be resolved are dropped individually; the batch never fails as a
// whole on resolution gaps.
type Resolver struct {
	log logger.Logger
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for dropped-row observability.
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// New constructs a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve filters rows down to participants with a confirmed stable id.
// Output keeps first-seen order; a second row for an already-seen id is
// dropped. A broadly failing directory degrades to per-row drops.
func (r *Resolver) Resolve(ctx context.Context, dir Directory, rows []model.ResultRow) []model.Participant {
	participants := make([]model.Participant, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		p, ok := r.resolveRow(ctx, dir, row)
		if !ok {
			metrics.RecordResolutionGap()
			continue
		}
		if _, dup := seen[p.ID]; dup {
			r.warn(ctx, "duplicate participant row dropped", row)
			continue
		}
		seen[p.ID] = struct{}{}
		participants = append(participants, p)
	}

	return participants
}

func (r *Resolver) resolveRow(ctx context.Context, dir Directory, row model.ResultRow) (model.Participant, bool) {
	if row.PlayerID != "" {
		name, err := dir.ResolveByID(ctx, row.PlayerID)
		if err != nil {
			r.warn(ctx, "mention id no longer resolvable", row)
			return model.Participant{}, false
		}
		return model.Participant{ID: row.PlayerID, DisplayName: name, GuessCount: row.GuessCount}, true
	}

	member, err := dir.FindByDisplayName(ctx, row.Name)
	if err != nil {
		r.warn(ctx, "bare name did not match any member", row)
		return model.Participant{}, false
	}
	name := member.DisplayName
	if name == "" {
		name = member.Username
	}
	return model.Participant{ID: member.ID, DisplayName: name, GuessCount: row.GuessCount}, true
}

func (r *Resolver) warn(ctx context.Context, msg string, row model.ResultRow) {
	if r.log == nil {
		return
	}
	r.log.Warn(ctx, msg,
		logger.String("player_id", row.PlayerID),
		logger.String("name", row.Name),
		logger.Int("guess_count", row.GuessCount),
	)
}
