package coordinator

import "math"

// EloK is the K-factor used for every rating update (spec §4.9 "Completion").
const EloK = 32

// EloUpdate computes the new ratings for a winner/loser pair using the
// standard logistic expected-score formula.
func EloUpdate(winnerRating, loserRating int) (newWinner, newLoser int) {
	expectedWinner := 1 / (1 + math.Pow(10, float64(loserRating-winnerRating)/400))
	expectedLoser := 1 - expectedWinner

	newWinner = winnerRating + int(math.Round(EloK*(1-expectedWinner)))
	newLoser = loserRating + int(math.Round(EloK*(0-expectedLoser)))
	return newWinner, newLoser
}
