package rating_test

import (
	"math"
	"testing"

	"github.com/guessrank/guessrank/internal/domain/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failedGuess = 7 // mirrors model.FailedGuessCount without the import

func TestRateSmallRounds(t *testing.T) {
	tests := []struct {
		name         string
		participants []rating.Participant
		kFactor      float64
		want         map[string]int
	}{
		{
			name:         "empty round",
			participants: nil,
			kFactor:      32,
			want:         map[string]int{},
		},
		{
			name: "single participant has no opponent",
			participants: []rating.Participant{
				{ID: "a", Rating: 1000, GuessCount: 3},
			},
			kFactor: 32,
			want:    map[string]int{"a": 0},
		},
		{
			name: "two equal players tie at 3/6",
			participants: []rating.Participant{
				{ID: "a", Rating: 1000, GuessCount: 3},
				{ID: "b", Rating: 1000, GuessCount: 3},
			},
			kFactor: 32,
			want:    map[string]int{"a": 0, "b": 0},
		},
		{
			name: "clear winner between equals",
			participants: []rating.Participant{
				{ID: "a", Rating: 1000, GuessCount: 2},
				{ID: "b", Rating: 1000, GuessCount: 5},
			},
			kFactor: 32,
			want:    map[string]int{"a": 16, "b": -16},
		},
		{
			name: "failed attempt loses against a six",
			participants: []rating.Participant{
				{ID: "solver", Rating: 1000, GuessCount: 6},
				{ID: "failer", Rating: 1000, GuessCount: failedGuess},
			},
			kFactor: 32,
			want:    map[string]int{"solver": 16, "failer": -16},
		},
		{
			name: "two failed attempts tie",
			participants: []rating.Participant{
				{ID: "a", Rating: 1000, GuessCount: failedGuess},
				{ID: "b", Rating: 1000, GuessCount: failedGuess},
			},
			kFactor: 32,
			want:    map[string]int{"a": 0, "b": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rating.Rate(tt.participants, tt.kFactor)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateFourPlayerRound(t *testing.T) {
	// Guesses 2,3,4,5 at equal ratings: strictly ordered deltas with the
	// best guesser gaining the most and the worst losing the most.
	participants := []rating.Participant{
		{ID: "p2", Rating: 1000, GuessCount: 2},
		{ID: "p3", Rating: 1000, GuessCount: 3},
		{ID: "p4", Rating: 1000, GuessCount: 4},
		{ID: "p5", Rating: 1000, GuessCount: 5},
	}

	deltas := rating.Rate(participants, 32)
	require.Len(t, deltas, 4)

	assert.Greater(t, deltas["p2"], deltas["p3"])
	assert.Greater(t, deltas["p3"], deltas["p4"])
	assert.Greater(t, deltas["p4"], deltas["p5"])

	assert.Positive(t, deltas["p2"])
	assert.Negative(t, deltas["p5"])

	// Around equal starting ratings the middle pair mirrors.
	assert.Equal(t, 16, deltas["p2"])
	assert.Equal(t, -16, deltas["p5"])
	assert.Equal(t, deltas["p3"], -deltas["p4"])
	assert.Less(t, math.Abs(float64(deltas["p3"])), math.Abs(float64(deltas["p2"])))
}

func TestRateDeltaBound(t *testing.T) {
	// Each participant's movement is bounded by the scaled K-factor times
	// the opponent count, which is the configured K-factor.
	participants := []rating.Participant{
		{ID: "a", Rating: 700, GuessCount: 1},
		{ID: "b", Rating: 1900, GuessCount: 6},
		{ID: "c", Rating: 1000, GuessCount: failedGuess},
		{ID: "d", Rating: 1300, GuessCount: 3},
		{ID: "e", Rating: 1000, GuessCount: 2},
	}
	kFactor := 32.0

	deltas := rating.Rate(participants, kFactor)
	for id, d := range deltas {
		assert.LessOrEqualf(t, math.Abs(float64(d)), kFactor+1,
			"participant %s moved more than the K-factor", id)
	}
}

func TestRateSymmetry(t *testing.T) {
	// Swapping two participants' ratings and guess counts swaps their deltas.
	forward := rating.Rate([]rating.Participant{
		{ID: "a", Rating: 1200, GuessCount: 2},
		{ID: "b", Rating: 900, GuessCount: 5},
	}, 32)
	swapped := rating.Rate([]rating.Participant{
		{ID: "a", Rating: 900, GuessCount: 5},
		{ID: "b", Rating: 1200, GuessCount: 2},
	}, 32)

	assert.Equal(t, forward["a"], swapped["b"])
	assert.Equal(t, forward["b"], swapped["a"])
}

func TestRateMonotonicityAtEqualRatings(t *testing.T) {
	deltas := rating.Rate([]rating.Participant{
		{ID: "fast", Rating: 1100, GuessCount: 2},
		{ID: "slow", Rating: 1100, GuessCount: 4},
		{ID: "other", Rating: 1400, GuessCount: 3},
	}, 32)

	assert.GreaterOrEqual(t, deltas["fast"], deltas["slow"])
}

func TestRateUnderdogWinPaysMore(t *testing.T) {
	deltas := rating.Rate([]rating.Participant{
		{ID: "underdog", Rating: 800, GuessCount: 2},
		{ID: "favorite", Rating: 1400, GuessCount: 4},
	}, 32)

	// The favorite was expected to win, so the upset moves close to the
	// full K-factor.
	assert.Greater(t, deltas["underdog"], 16)
	assert.Less(t, deltas["favorite"], -16)
}

func TestRateDeterminism(t *testing.T) {
	participants := []rating.Participant{
		{ID: "a", Rating: 1000, GuessCount: 2},
		{ID: "b", Rating: 1050, GuessCount: 3},
		{ID: "c", Rating: 950, GuessCount: failedGuess},
	}

	first := rating.Rate(participants, 24)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rating.Rate(participants, 24))
	}
}
