package squares

import (
	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

// WinningBox finds the box holding a quarter's score digits.
// It returns nil until the oracle has confirmed the quarter.
func WinningBox(c *models.Contest, s *models.ScoresOnChain, q Quarter) *models.WinningBox {
	if c == nil || s == nil || !q.Valid() {
		return nil
	}
	if !c.RandomValuesSet || s.QComplete < q.Index() {
		return nil
	}
	home, away := q.ScoreDigits(s)
	row := indexOf(c.Rows, away)
	col := indexOf(c.Cols, home)
	if row < 0 || col < 0 {
		return nil
	}
	local := row*models.GridSize + col
	return &models.WinningBox{
		Quarter:    q.String(),
		Row:        row,
		Col:        col,
		LocalIndex: local,
		TokenID:    models.TokenID(c.ID, local),
		HomeDigit:  home,
		AwayDigit:  away,
		Paid:       q.Paid(c),
	}
}

// QuarterWinners returns the winning box for each confirmed quarter with the
// amount scheduled for it
func QuarterWinners(c *models.Contest, s *models.ScoresOnChain, basis PotBasis) ([]models.WinningBox, error) {
	if c == nil || s == nil {
		return nil, ErrMissingData
	}
	pot := PotFor(c, basis)
	winners := make([]models.WinningBox, 0, len(Quarters))
	for _, q := range Quarters {
		w := WinningBox(c, s, q)
		if w == nil {
			continue
		}
		amount, err := AmountForQuarter(pot, q)
		if err != nil {
			return nil, err
		}
		w.Amount = amount
		w.Display = models.FormatUnits(amount, c.BoxCost.Decimals)
		winners = append(winners, *w)
	}
	return winners, nil
}
