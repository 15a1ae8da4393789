package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/guessrank/guessrank/internal/domain/model"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// zero-config runs where no database path is given.
type MemoryStore struct {
	mu        sync.RWMutex
	players   map[string]*Player
	games     map[string]map[string]GameRecord // player id -> date -> record
	samples   []RatingSample
	summaries map[string]DailySummary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:   make(map[string]*Player),
		games:     make(map[string]map[string]GameRecord),
		summaries: make(map[string]DailySummary),
	}
}

func (s *MemoryStore) FindPlayer(_ context.Context, id string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) CreatePlayer(_ context.Context, id, displayName string, rating int) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := &Player{
		ID:          id,
		DisplayName: displayName,
		Rating:      rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.players[id] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SaveDisplayName(_ context.Context, id, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	p.DisplayName = displayName
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateRatingAndCounters(_ context.Context, id string, newRating, guessCount int, _ string, won bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	p.Rating = newRating
	p.GamesPlayed++
	if guessCount <= model.MaxSolvedGuessCount {
		p.GamesSolved++
		p.GuessSum += guessCount
	}
	if won {
		p.Crowns++
	}
	// Playing resets the activity state.
	p.InactiveDays = 0
	p.Inactive = false
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) HasGameRecord(_ context.Context, id, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.games[id][date]
	return ok, nil
}

func (s *MemoryStore) RecordGame(_ context.Context, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, ok := s.games[rec.PlayerID]
	if !ok {
		byDate = make(map[string]GameRecord)
		s.games[rec.PlayerID] = byDate
	}
	if _, exists := byDate[rec.Date]; exists {
		return ErrDuplicateGame
	}
	rec.CreatedAt = time.Now()
	byDate[rec.Date] = rec
	return nil
}

func (s *MemoryStore) RecordRatingHistory(_ context.Context, id string, rating int, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, RatingSample{PlayerID: id, Rating: rating, Date: date})
	return nil
}

func (s *MemoryStore) IsDateProcessed(_ context.Context, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.summaries[date]
	return ok, nil
}

func (s *MemoryStore) RecordDailySummary(_ context.Context, summary DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.summaries[summary.Date]; exists {
		return ErrDuplicateDay
	}
	summary.CreatedAt = time.Now()
	s.summaries[summary.Date] = summary
	return nil
}

func (s *MemoryStore) PlayersWithNoGameOn(_ context.Context, date string) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Player
	for id, p := range s.players {
		if _, played := s.games[id][date]; !played {
			out = append(out, *p)
		}
	}
	sortPlayersByID(out)
	return out, nil
}

func (s *MemoryStore) IncrementInactiveDays(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.InactiveDays++
	p.UpdatedAt = time.Now()
	return p.InactiveDays, nil
}

func (s *MemoryStore) MarkInactive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return ErrNotFound
	}
	p.Inactive = true
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AllPlayers(_ context.Context) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sortPlayersByID(out)
	return out, nil
}

func (s *MemoryStore) TopN(_ context.Context, n int) ([]Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

func sortPlayersByID(players []Player) {
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
}
