// Package repository defines the persistence contract for players, game
// records and daily summaries, plus its in-memory and SQLite-backed stores.
package repository

import (
	"context"
	"time"
)

// Player is the persisted state of one known player.
type Player struct {
	ID           string `gorm:"type:TEXT NOT NULL;primaryKey"`
	DisplayName  string `gorm:"type:TEXT NOT NULL"`
	Rating       int    `gorm:"type:INTEGER NOT NULL"`
	GamesPlayed  int    `gorm:"type:INTEGER NOT NULL;default:0"`
	GamesSolved  int    `gorm:"type:INTEGER NOT NULL;default:0"`
	Crowns       int    `gorm:"type:INTEGER NOT NULL;default:0"`
	GuessSum     int    `gorm:"type:INTEGER NOT NULL;default:0"`
	InactiveDays int    `gorm:"type:INTEGER NOT NULL;default:0"`
	Inactive     bool   `gorm:"type:BOOLEAN NOT NULL;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName implements the GORM tabler interface.
func (Player) TableName() string { return "players" }

// GameRecord is the immutable audit trail of one rated game. The unique
// (player, date) index is what makes reprocessing a half-finished day safe.
type GameRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	PlayerID     string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_game_player_date,priority:1"`
	Date         string `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_game_player_date,priority:2"`
	GuessCount   int    `gorm:"type:INTEGER NOT NULL"`
	RatingBefore int    `gorm:"type:INTEGER NOT NULL"`
	RatingAfter  int    `gorm:"type:INTEGER NOT NULL"`
	PuzzleNumber int    `gorm:"type:INTEGER NOT NULL;default:0"`
	CreatedAt    time.Time
}

// TableName implements the GORM tabler interface.
func (GameRecord) TableName() string { return "game_records" }

// RatingSample is one point of a player's rating history.
type RatingSample struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	PlayerID string `gorm:"type:TEXT NOT NULL;index"`
	Rating   int    `gorm:"type:INTEGER NOT NULL"`
	Date     string `gorm:"type:TEXT NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (RatingSample) TableName() string { return "rating_samples" }

// DailySummary closes a game day. Its existence is the idempotence proof
// that the date's ratings have been applied.
type DailySummary struct {
	Date             string   `gorm:"type:TEXT NOT NULL;primaryKey"`
	ParticipantCount int      `gorm:"type:INTEGER NOT NULL"`
	PuzzleNumber     int      `gorm:"type:INTEGER NOT NULL;default:0"`
	TopPlayerIDs     []string `gorm:"serializer:json"`
	BottomPlayerIDs  []string `gorm:"serializer:json"`
	CreatedAt        time.Time
}

// TableName implements the GORM tabler interface.
func (DailySummary) TableName() string { return "daily_summaries" }

// Store provides read/write access to the rating state. The pipeline owns
// all mutation; handlers only read.
type Store interface {
	// FindPlayer returns a player or ErrNotFound.
	FindPlayer(ctx context.Context, id string) (*Player, error)

	// CreatePlayer registers a player first seen in a processed result.
	CreatePlayer(ctx context.Context, id, displayName string, rating int) (*Player, error)

	// SaveDisplayName refreshes a player's display name on a later sighting.
	SaveDisplayName(ctx context.Context, id, displayName string) error

	// UpdateRatingAndCounters applies a rated day to the player row: new
	// rating, cumulative counters, and an activity reset.
	UpdateRatingAndCounters(ctx context.Context, id string, newRating, guessCount int, date string, won bool) error

	// HasGameRecord reports whether (player, date) was already rated.
	HasGameRecord(ctx context.Context, id, date string) (bool, error)

	// RecordGame appends the immutable audit record for a rated game.
	RecordGame(ctx context.Context, rec GameRecord) error

	// RecordRatingHistory appends one rating history sample.
	RecordRatingHistory(ctx context.Context, id string, rating int, date string) error

	// IsDateProcessed reports whether a daily summary exists for date.
	IsDateProcessed(ctx context.Context, date string) (bool, error)

	// RecordDailySummary closes the date. Must be the last write of a run.
	RecordDailySummary(ctx context.Context, summary DailySummary) error

	// PlayersWithNoGameOn lists players lacking a game record for date.
	PlayersWithNoGameOn(ctx context.Context, date string) ([]Player, error)

	// IncrementInactiveDays bumps the consecutive-miss counter and returns
	// the new value.
	IncrementInactiveDays(ctx context.Context, id string) (int, error)

	// MarkInactive flags a player as inactive.
	MarkInactive(ctx context.Context, id string) error

	// AllPlayers returns every known player.
	AllPlayers(ctx context.Context) ([]Player, error)

	// TopN returns the n best players by rating, ties broken by id.
	TopN(ctx context.Context, n int) ([]Player, error)

	// Count returns the number of known players.
	Count(ctx context.Context) int
}
