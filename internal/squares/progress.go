package squares

import "github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"

// AllQuartersComplete is returned for completed games so every gate up to Final opens
const AllQuartersComplete = 100

// QuartersComplete counts the quarters the live game has moved past.
// A quarter in progress does not count; a game with no period is in Q1.
func QuartersComplete(g *models.Game) int {
	if g == nil {
		return 0
	}
	if g.Completed {
		return AllQuartersComplete
	}
	period := g.Period
	if period < 1 {
		period = 1
	}
	return period - 1
}

// ProgressFor returns both progress signals the evaluator gates on
func ProgressFor(g *models.Game) (clock int, completed bool) {
	return QuartersComplete(g), g != nil && g.Completed
}
