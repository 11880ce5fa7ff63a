package models

import "time"

// GameStatus represents the current state of a game
type GameStatus string

const (
	StatusUpcoming  GameStatus = "upcoming"
	StatusLive      GameStatus = "live"
	StatusFinal     GameStatus = "final"
	StatusPostponed GameStatus = "postponed"
)

// Game is the live view of the NFL game a contest tracks
type Game struct {
	GameID        string        `json:"game_id"`
	Status        GameStatus    `json:"status"`
	HomeTeam      string        `json:"home_team"`      // "Kansas City Chiefs"
	HomeTeamAbbr  string        `json:"home_team_abbr"` // "KC"
	HomeTeamName  string        `json:"home_team_name"` // "Chiefs"
	AwayTeam      string        `json:"away_team"`
	AwayTeamAbbr  string        `json:"away_team_abbr"`
	AwayTeamName  string        `json:"away_team_name"`
	HomeScore     int           `json:"home_score"`
	AwayScore     int           `json:"away_score"`
	Period        int           `json:"period"` // 0 when ESPN has not reported one
	PeriodLabel   string        `json:"period_label"`
	TimeRemaining string        `json:"time_remaining,omitempty"`
	Completed     bool          `json:"completed"`
	PeriodScores  []PeriodScore `json:"period_scores"`
	CommenceTime  time.Time     `json:"commence_time"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PeriodScore represents scoring in a single quarter
type PeriodScore struct {
	Period    int    `json:"period"`
	Label     string `json:"label"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// CumulativeScore sums points through the given quarter.
// Overtime periods count toward the final checkpoint (quarter 4).
func (g *Game) CumulativeScore(home bool, quarter int) int {
	total := 0
	for _, ps := range g.PeriodScores {
		if ps.Period > quarter && quarter < 4 {
			continue
		}
		if home {
			total += ps.HomeScore
		} else {
			total += ps.AwayScore
		}
	}
	return total
}
