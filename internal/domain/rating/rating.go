// Package rating implements the pairwise multiplayer ELO round.
//
// Every participant is compared against every other participant once. The
// configured K-factor is divided by the opponent count, which bounds one
// player's total movement per round by the K-factor no matter how many
// opponents showed up that day.
package rating

import "math"

// Standard ELO curve: a player rated ratingSpread points above the opponent
// is expected to win logisticBase times as often.
const (
	logisticBase = 10
	ratingSpread = 400
)

// Participant is one entry of a comparison round.
type Participant struct {
	ID         string
	Rating     int
	GuessCount int
}

// Rate computes integer rating deltas for a single day's comparison round.
// Fewer than two participants means nobody has an opponent and every delta
// is zero. Per-participant totals are accumulated as floats across all pairs
// and rounded once at the end; rounding per pair would compound error.
func Rate(participants []Participant, kFactor float64) map[string]int {
	deltas := make(map[string]int, len(participants))
	for _, p := range participants {
		deltas[p.ID] = 0
	}
	if len(participants) < 2 {
		return deltas
	}

	scaledK := kFactor / float64(len(participants)-1)

	totals := make(map[string]float64, len(participants))
	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			a, b := participants[i], participants[j]

			scoreA := matchScore(a.GuessCount, b.GuessCount)
			expectedA := expectedScore(a.Rating, b.Rating)

			totals[a.ID] += scaledK * (scoreA - expectedA)
			totals[b.ID] += scaledK * ((1 - scoreA) - (1 - expectedA))
		}
	}

	for id, total := range totals {
		deltas[id] = int(math.Round(total))
	}
	return deltas
}

// matchScore compares two guess counts: fewer guesses wins. The failed
// sentinel is numerically above the solved range, so a failed attempt loses
// against any solved one and ties with another failed attempt.
func matchScore(guessesA, guessesB int) float64 {
	switch {
	case guessesA < guessesB:
		return 1
	case guessesA > guessesB:
		return 0
	default:
		return 0.5
	}
}

// expectedScore is the logistic win expectation of a against b.
func expectedScore(ratingA, ratingB int) float64 {
	exponent := float64(ratingB-ratingA) / ratingSpread
	return 1 / (1 + math.Pow(logisticBase, exponent))
}
