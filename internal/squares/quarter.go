package squares

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

// Quarter is one of the four scoring checkpoints
type Quarter int

const (
	Q1    Quarter = 1
	Q2    Quarter = 2
	Q3    Quarter = 3
	Final Quarter = 4
)

// Quarters lists every checkpoint in order
var Quarters = []Quarter{Q1, Q2, Q3, Final}

type quarterInfo struct {
	label   string
	percent int64
	paid    func(models.RewardsPaid) bool
	digits  func(*models.ScoresOnChain) (home, away int)
	flag    func(*models.QuarterFlags) *bool
}

var quarterTable = map[Quarter]quarterInfo{
	Q1: {
		label:   "q1",
		percent: 15,
		paid:    func(p models.RewardsPaid) bool { return p.Q1Paid },
		digits:  func(s *models.ScoresOnChain) (int, int) { return s.HomeQ1LastDigit, s.AwayQ1LastDigit },
		flag:    func(f *models.QuarterFlags) *bool { return &f.Q1 },
	},
	Q2: {
		label:   "q2",
		percent: 30,
		paid:    func(p models.RewardsPaid) bool { return p.Q2Paid },
		digits:  func(s *models.ScoresOnChain) (int, int) { return s.HomeQ2LastDigit, s.AwayQ2LastDigit },
		flag:    func(f *models.QuarterFlags) *bool { return &f.Q2 },
	},
	Q3: {
		label:   "q3",
		percent: 15,
		paid:    func(p models.RewardsPaid) bool { return p.Q3Paid },
		digits:  func(s *models.ScoresOnChain) (int, int) { return s.HomeQ3LastDigit, s.AwayQ3LastDigit },
		flag:    func(f *models.QuarterFlags) *bool { return &f.Q3 },
	},
	Final: {
		label:   "f",
		percent: 38,
		paid:    func(p models.RewardsPaid) bool { return p.FinalPaid },
		digits:  func(s *models.ScoresOnChain) (int, int) { return s.HomeFLastDigit, s.AwayFLastDigit },
		flag:    func(f *models.QuarterFlags) *bool { return &f.Final },
	},
}

// ParseQuarter accepts 1-4 and the labels q1, q2, q3, f
func ParseQuarter(s string) (Quarter, error) {
	switch s {
	case "1", "q1", "Q1":
		return Q1, nil
	case "2", "q2", "Q2":
		return Q2, nil
	case "3", "q3", "Q3":
		return Q3, nil
	case "4", "f", "F", "final":
		return Final, nil
	}
	return 0, fmt.Errorf("%w: unknown quarter %q", ErrInvalidInput, s)
}

// Valid reports whether q is one of the four checkpoints
func (q Quarter) Valid() bool {
	_, ok := quarterTable[q]
	return ok
}

// Index is the 1-based checkpoint number used by progress gates and the contract
func (q Quarter) Index() int {
	return int(q)
}

func (q Quarter) String() string {
	if info, ok := quarterTable[q]; ok {
		return info.label
	}
	return fmt.Sprintf("quarter(%d)", int(q))
}

// Percent is the share of the pot paid for this quarter
func (q Quarter) Percent() int64 {
	return quarterTable[q].percent
}

// Paid reads this quarter's paid flag from a contest
func (q Quarter) Paid(c *models.Contest) bool {
	return quarterTable[q].paid(c.RewardsPaid)
}

// ScoreDigits returns the home and away last digits for this checkpoint
func (q Quarter) ScoreDigits(s *models.ScoresOnChain) (home, away int) {
	return quarterTable[q].digits(s)
}

func (q Quarter) set(f *models.QuarterFlags, v bool) {
	*quarterTable[q].flag(f) = v
}

// Get reads this quarter's entry from a flag set
func (q Quarter) Get(f models.QuarterFlags) bool {
	return *quarterTable[q].flag(&f)
}
