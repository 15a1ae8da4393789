package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/pkg/metrics"
)

// GormStore is the SQLite-backed Store used in production runs.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the schema.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&Player{}, &GameRecord{}, &RatingSample{}, &DailySummary{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("access sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close sql db: %w", err)
	}
	return nil
}

func observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func observeWrite(start time.Time) {
	metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
}

func (s *GormStore) FindPlayer(ctx context.Context, id string) (*Player, error) {
	defer observeQuery(time.Now())

	var p Player
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find player: %w", err)
	}
	return &p, nil
}

func (s *GormStore) CreatePlayer(ctx context.Context, id, displayName string, rating int) (*Player, error) {
	defer observeWrite(time.Now())

	p := Player{ID: id, DisplayName: displayName, Rating: rating}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &p, nil
}

func (s *GormStore) SaveDisplayName(ctx context.Context, id, displayName string) error {
	defer observeWrite(time.Now())

	res := s.db.WithContext(ctx).Model(&Player{}).Where("id = ?", id).
		Update("display_name", displayName)
	if res.Error != nil {
		return fmt.Errorf("save display name: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UpdateRatingAndCounters(ctx context.Context, id string, newRating, guessCount int, _ string, won bool) error {
	defer observeWrite(time.Now())

	updates := map[string]any{
		"rating":        newRating,
		"games_played":  gorm.Expr("games_played + 1"),
		"inactive_days": 0,
		"inactive":      false,
	}
	if guessCount <= model.MaxSolvedGuessCount {
		updates["games_solved"] = gorm.Expr("games_solved + 1")
		updates["guess_sum"] = gorm.Expr("guess_sum + ?", guessCount)
	}
	if won {
		updates["crowns"] = gorm.Expr("crowns + 1")
	}

	res := s.db.WithContext(ctx).Model(&Player{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update rating and counters: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) HasGameRecord(ctx context.Context, id, date string) (bool, error) {
	defer observeQuery(time.Now())

	var count int64
	err := s.db.WithContext(ctx).Model(&GameRecord{}).
		Where("player_id = ? AND date = ?", id, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check game record: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) RecordGame(ctx context.Context, rec GameRecord) error {
	defer observeWrite(time.Now())

	// Existence is checked before any write; the unique index is the last
	// line of defense, not control flow.
	exists, err := s.HasGameRecord(ctx, rec.PlayerID, rec.Date)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateGame
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

func (s *GormStore) RecordRatingHistory(ctx context.Context, id string, rating int, date string) error {
	defer observeWrite(time.Now())

	sample := RatingSample{PlayerID: id, Rating: rating, Date: date}
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return fmt.Errorf("record rating history: %w", err)
	}
	return nil
}

func (s *GormStore) IsDateProcessed(ctx context.Context, date string) (bool, error) {
	defer observeQuery(time.Now())

	var count int64
	err := s.db.WithContext(ctx).Model(&DailySummary{}).
		Where("date = ?", date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check daily summary: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) RecordDailySummary(ctx context.Context, summary DailySummary) error {
	defer observeWrite(time.Now())

	exists, err := s.IsDateProcessed(ctx, summary.Date)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateDay
	}
	if err := s.db.WithContext(ctx).Create(&summary).Error; err != nil {
		return fmt.Errorf("record daily summary: %w", err)
	}
	return nil
}

func (s *GormStore) PlayersWithNoGameOn(ctx context.Context, date string) ([]Player, error) {
	defer observeQuery(time.Now())

	sub := s.db.Model(&GameRecord{}).Select("player_id").Where("date = ?", date)

	var players []Player
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", sub).
		Order("id").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("players with no game: %w", err)
	}
	return players, nil
}

func (s *GormStore) IncrementInactiveDays(ctx context.Context, id string) (int, error) {
	defer observeWrite(time.Now())

	res := s.db.WithContext(ctx).Model(&Player{}).Where("id = ?", id).
		Update("inactive_days", gorm.Expr("inactive_days + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("increment inactive days: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var p Player
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return 0, fmt.Errorf("reload player: %w", err)
	}
	return p.InactiveDays, nil
}

func (s *GormStore) MarkInactive(ctx context.Context, id string) error {
	defer observeWrite(time.Now())

	res := s.db.WithContext(ctx).Model(&Player{}).Where("id = ?", id).
		Update("inactive", true)
	if res.Error != nil {
		return fmt.Errorf("mark inactive: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AllPlayers(ctx context.Context) ([]Player, error) {
	defer observeQuery(time.Now())

	var players []Player
	if err := s.db.WithContext(ctx).Order("id").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *GormStore) TopN(ctx context.Context, n int) ([]Player, error) {
	defer observeQuery(time.Now())

	var players []Player
	err := s.db.WithContext(ctx).
		Order("rating DESC, id ASC").
		Limit(n).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	return players, nil
}

func (s *GormStore) Count(ctx context.Context) int {
	defer observeQuery(time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&Player{}).Count(&count).Error; err != nil {
		return 0
	}
	return int(count)
}
