package squares

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

// Digits is the pair of last-score digits a box represents
type Digits struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// DigitsFor maps a grid position to its score digits.
// Columns carry the home digit, rows carry the away digit.
func DigitsFor(c *models.Contest, row, col int) (Digits, error) {
	if err := checkPosition(row, col); err != nil {
		return Digits{}, err
	}
	if c == nil {
		return Digits{}, ErrMissingData
	}
	if !c.RandomValuesSet {
		return Digits{}, ErrPermutationNotSet
	}
	if len(c.Rows) != models.GridSize || len(c.Cols) != models.GridSize {
		return Digits{}, fmt.Errorf("%w: contest %d has %d rows and %d cols",
			ErrInvalidInput, c.ID, len(c.Rows), len(c.Cols))
	}
	return Digits{Home: c.Cols[col], Away: c.Rows[row]}, nil
}

// BoxPosition converts a local box index (0-99) to its grid row and column
func BoxPosition(localIndex int) (row, col int, err error) {
	if localIndex < 0 || localIndex >= models.BoxesPerContest {
		return 0, 0, fmt.Errorf("%w: box index %d outside 0-99", ErrInvalidInput, localIndex)
	}
	return localIndex / models.GridSize, localIndex % models.GridSize, nil
}

// IsPermutation reports whether digits holds each of 0-9 exactly once
func IsPermutation(digits []int) bool {
	if len(digits) != models.GridSize {
		return false
	}
	var seen [models.GridSize]bool
	for _, d := range digits {
		if d < 0 || d >= models.GridSize || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}

func checkPosition(row, col int) error {
	if row < 0 || row >= models.GridSize || col < 0 || col >= models.GridSize {
		return fmt.Errorf("%w: grid position (%d,%d) outside 0-9", ErrInvalidInput, row, col)
	}
	return nil
}

func indexOf(digits []int, d int) int {
	for i, v := range digits {
		if v == d {
			return i
		}
	}
	return -1
}
