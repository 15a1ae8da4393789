package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/guessrank/guessrank/internal/adapters/repository"
	"github.com/guessrank/guessrank/internal/domain/identity"
	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/internal/domain/rating"
	"github.com/guessrank/guessrank/pkg/logger"
	"github.com/guessrank/guessrank/pkg/metrics"
)

// ErrPersistence wraps any repository write failure during a run. The run
// aborts without writing the daily summary, so a reprocessing attempt stays
// safe: players already holding a game record are excluded from the next
// comparison round.
var ErrPersistence = errors.New("persistence failure")

// ProcessAnnouncement runs the daily pipeline for one announcement:
// parse -> resolve -> duplicate check -> rate -> persist -> activity refresh
// -> daily summary. Soft skips come back as outcome statuses; only
// persistence failures return an error.
func (s *Service) ProcessAnnouncement(ctx context.Context, a model.Announcement) (model.RunOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPipelineDuration(float64(time.Since(start).Microseconds()) / 1000)
	}()

	day := s.extractor.Extract(ctx, a.Text, a.Timestamp)
	if day == nil {
		metrics.RecordAnnouncementSkipped(string(model.StatusNotQualifying))
		return model.RunOutcome{Status: model.StatusNotQualifying}, nil
	}

	participants := s.resolver.Resolve(ctx, s.directoryFor(a), day.Rows)
	if len(participants) == 0 {
		s.log.Warn(ctx, "no participant survived identity resolution",
			logger.String("game_date", day.GameDate))
		metrics.RecordAnnouncementSkipped(string(model.StatusEmptyBatch))
		return model.RunOutcome{Status: model.StatusEmptyBatch, GameDate: day.GameDate}, nil
	}

	// One run at a time per date, even under concurrent triggers.
	lock := s.dateLock(day.GameDate)
	lock.Lock()
	defer lock.Unlock()

	processed, err := s.store.IsDateProcessed(ctx, day.GameDate)
	if err != nil {
		return model.RunOutcome{}, s.persistenceError(ctx, "check processed date", err)
	}
	if processed {
		s.log.Warn(ctx, "date already processed, skipping",
			logger.String("game_date", day.GameDate))
		metrics.RecordAnnouncementSkipped(string(model.StatusAlreadyProcessed))
		return model.RunOutcome{Status: model.StatusAlreadyProcessed, GameDate: day.GameDate}, nil
	}

	// Secondary safety net: a player already holding a game record for this
	// date (a previous run that died before closing the day) is excluded
	// from the comparison set entirely.
	fresh := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		has, err := s.store.HasGameRecord(ctx, p.ID, day.GameDate)
		if err != nil {
			return model.RunOutcome{}, s.persistenceError(ctx, "check game record", err)
		}
		if has {
			s.log.Warn(ctx, "participant already rated for date, excluding",
				logger.String("player_id", p.ID),
				logger.String("game_date", day.GameDate))
			continue
		}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		metrics.RecordAnnouncementSkipped(string(model.StatusEmptyBatch))
		return model.RunOutcome{Status: model.StatusEmptyBatch, GameDate: day.GameDate}, nil
	}

	players, err := s.loadOrCreatePlayers(ctx, fresh)
	if err != nil {
		return model.RunOutcome{}, err
	}

	entrants := make([]rating.Participant, len(fresh))
	for i, p := range fresh {
		entrants[i] = rating.Participant{
			ID:         p.ID,
			Rating:     players[p.ID].Rating,
			GuessCount: p.GuessCount,
		}
	}
	deltas := rating.Rate(entrants, s.kFactor)

	if err := s.persistRound(ctx, fresh, players, deltas, day); err != nil {
		return model.RunOutcome{}, err
	}

	if err := s.refreshActivity(ctx, day.GameDate); err != nil {
		return model.RunOutcome{}, err
	}

	topIDs, bottomIDs, err := s.closeDay(ctx, day, len(fresh))
	if err != nil {
		return model.RunOutcome{}, err
	}

	metrics.RecordDayProcessed()
	metrics.RecordParticipantsRated(len(fresh))

	return model.RunOutcome{
		Status:          model.StatusProcessed,
		GameDate:        day.GameDate,
		PuzzleNumber:    day.PuzzleNumber,
		Participants:    len(fresh),
		TopPlayerIDs:    topIDs,
		BottomPlayerIDs: bottomIDs,
	}, nil
}

// directoryFor prefers the directory snapshot shipped with the announcement
// over the service-wide fallback.
func (s *Service) directoryFor(a model.Announcement) identity.Directory {
	if len(a.Members) > 0 {
		return identity.NewSnapshot(a.Members)
	}
	if s.directory != nil {
		return s.directory
	}
	return identity.NewSnapshot(nil)
}

// loadOrCreatePlayers fetches the current player rows, registering first-time
// players at the default rating and refreshing stale display names.
func (s *Service) loadOrCreatePlayers(ctx context.Context, participants []model.Participant) (map[string]*repository.Player, error) {
	players := make(map[string]*repository.Player, len(participants))
	for _, p := range participants {
		player, err := s.store.FindPlayer(ctx, p.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			player, err = s.store.CreatePlayer(ctx, p.ID, p.DisplayName, s.defaultRating)
			if err != nil {
				return nil, s.persistenceError(ctx, "create player", err)
			}
			s.log.Info(ctx, "registered new player",
				logger.String("player_id", p.ID),
				logger.String("display_name", p.DisplayName))
		case err != nil:
			return nil, s.persistenceError(ctx, "find player", err)
		case p.DisplayName != "" && p.DisplayName != player.DisplayName:
			if err := s.store.SaveDisplayName(ctx, p.ID, p.DisplayName); err != nil {
				return nil, s.persistenceError(ctx, "refresh display name", err)
			}
			player.DisplayName = p.DisplayName
		}
		players[p.ID] = player
	}
	return players, nil
}

// persistRound applies the rating deltas: the immutable game record goes
// first so a crashed run is conservative on reprocessing, then the player
// row, then the history sample.
func (s *Service) persistRound(ctx context.Context, participants []model.Participant, players map[string]*repository.Player, deltas map[string]int, day *model.DayResult) error {
	winningGuess := bestSolvedGuess(participants)

	for _, p := range participants {
		before := players[p.ID].Rating
		after := before + deltas[p.ID]
		won := p.Solved() && p.GuessCount == winningGuess

		rec := repository.GameRecord{
			PlayerID:     p.ID,
			Date:         day.GameDate,
			GuessCount:   p.GuessCount,
			RatingBefore: before,
			RatingAfter:  after,
			PuzzleNumber: day.PuzzleNumber,
		}
		if err := s.store.RecordGame(ctx, rec); err != nil {
			return s.persistenceError(ctx, "record game", err)
		}
		if err := s.store.UpdateRatingAndCounters(ctx, p.ID, after, p.GuessCount, day.GameDate, won); err != nil {
			return s.persistenceError(ctx, "update rating", err)
		}
		if err := s.store.RecordRatingHistory(ctx, p.ID, after, day.GameDate); err != nil {
			return s.persistenceError(ctx, "record rating history", err)
		}

		metrics.RecordRatingDelta(math.Abs(float64(deltas[p.ID])))
		s.log.Info(ctx, "rating applied",
			logger.String("player_id", p.ID),
			logger.String("game_date", day.GameDate),
			logger.Int("guess_count", p.GuessCount),
			logger.Int("delta", deltas[p.ID]),
			logger.Int("rating", after),
			logger.Bool("won", won))
	}
	return nil
}

// refreshActivity bumps the consecutive-miss counter of every player without
// a game on the date, flagging those who cross the threshold.
func (s *Service) refreshActivity(ctx context.Context, date string) error {
	missed, err := s.store.PlayersWithNoGameOn(ctx, date)
	if err != nil {
		return s.persistenceError(ctx, "list absent players", err)
	}
	for _, p := range missed {
		days, err := s.store.IncrementInactiveDays(ctx, p.ID)
		if err != nil {
			return s.persistenceError(ctx, "increment inactive days", err)
		}
		if days >= s.inactivityThreshold && !p.Inactive {
			if err := s.store.MarkInactive(ctx, p.ID); err != nil {
				return s.persistenceError(ctx, "mark inactive", err)
			}
			s.log.Info(ctx, "player went inactive",
				logger.String("player_id", p.ID),
				logger.Int("missed_days", days))
		}
	}
	return nil
}

// closeDay computes the tie-aware extremal rating holder sets and writes the
// daily summary, which is the idempotence proof for future runs.
func (s *Service) closeDay(ctx context.Context, day *model.DayResult, participantCount int) (topIDs, bottomIDs []string, err error) {
	all, err := s.store.AllPlayers(ctx)
	if err != nil {
		return nil, nil, s.persistenceError(ctx, "list players", err)
	}
	topIDs, bottomIDs = extremalHolders(all)

	summary := repository.DailySummary{
		Date:             day.GameDate,
		ParticipantCount: participantCount,
		PuzzleNumber:     day.PuzzleNumber,
		TopPlayerIDs:     topIDs,
		BottomPlayerIDs:  bottomIDs,
	}
	if err := s.store.RecordDailySummary(ctx, summary); err != nil {
		return nil, nil, s.persistenceError(ctx, "record daily summary", err)
	}

	metrics.UpdatePlayersTracked(len(all))
	inactive := 0
	for _, p := range all {
		if p.Inactive {
			inactive++
		}
	}
	metrics.UpdatePlayersInactive(inactive)

	return topIDs, bottomIDs, nil
}

// bestSolvedGuess returns the lowest solved guess count of the round, or 0
// when nobody solved.
func bestSolvedGuess(participants []model.Participant) int {
	best := 0
	for _, p := range participants {
		if !p.Solved() {
			continue
		}
		if best == 0 || p.GuessCount < best {
			best = p.GuessCount
		}
	}
	return best
}

// extremalHolders returns every player sharing the maximum rating and, among
// players with at least one recorded game, every player sharing the minimum.
func extremalHolders(players []repository.Player) (topIDs, bottomIDs []string) {
	maxRating := math.MinInt
	minRating := math.MaxInt

	for _, p := range players {
		if p.Rating > maxRating {
			maxRating = p.Rating
		}
		if p.GamesPlayed > 0 && p.Rating < minRating {
			minRating = p.Rating
		}
	}
	for _, p := range players {
		if p.Rating == maxRating {
			topIDs = append(topIDs, p.ID)
		}
		if p.GamesPlayed > 0 && p.Rating == minRating {
			bottomIDs = append(bottomIDs, p.ID)
		}
	}
	return topIDs, bottomIDs
}

func (s *Service) persistenceError(ctx context.Context, op string, err error) error {
	metrics.RecordPersistenceError()
	s.log.Error(ctx, "pipeline persistence failure",
		logger.String("op", op),
		logger.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
