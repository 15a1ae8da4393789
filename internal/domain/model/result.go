// Package model contains domain values passed between layers.
package model

import "time"

// DateLayout is the calendar-day key format used everywhere a game date is
// stored or compared.
const DateLayout = "2006-01-02"

// FailedGuessCount is the sentinel for an unsolved attempt. It sorts strictly
// worse than any solved count in the 1..6 range.
const FailedGuessCount = 7

// MaxSolvedGuessCount is the highest guess count that still counts as solved.
const MaxSolvedGuessCount = 6

// Announcement is a raw gateway message under consideration for processing.
type Announcement struct {
	MessageID string    // gateway message id, used for ingress dedupe
	AuthorID  string    // gateway author id (the announcing bot)
	Text      string    // full raw message text
	Timestamp time.Time // gateway delivery timestamp
	Members   []Member  // optional directory snapshot shipped with the message
}

// Member is one entry of the guild member directory.
type Member struct {
	ID          string
	Username    string
	DisplayName string
	Nickname    string
}

// ResultRow is one parsed per-player result line entry. Exactly one of
// PlayerID and Name is set: PlayerID comes from a structured mention,
// Name from a bare @name token.
type ResultRow struct {
	PlayerID   string
	Name       string
	GuessCount int
}

// DayResult is the parsed shape of a qualifying announcement.
type DayResult struct {
	GameDate     string // the day the results belong to, DateLayout
	PuzzleNumber int    // external puzzle sequence number, 0 when absent
	Rows         []ResultRow
}

// Participant is a resolved player entering the comparison round.
type Participant struct {
	ID          string
	DisplayName string
	GuessCount  int
}

// Solved reports whether the participant finished the puzzle.
func (p Participant) Solved() bool {
	return p.GuessCount >= 1 && p.GuessCount <= MaxSolvedGuessCount
}

// GameDateFor derives the game day an announcement reports on. Announcements
// are posted the morning after, so the game day is the previous calendar day.
func GameDateFor(ts time.Time) string {
	return ts.AddDate(0, 0, -1).Format(DateLayout)
}
