package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrDuplicateGame = errors.New("game record already exists for player and date")
	ErrDuplicateDay  = errors.New("daily summary already exists for date")
)
