package models

import (
	"fmt"
	"time"
)

// EventType names a contest state change
type EventType string

const (
	EventRandomValuesAssigned EventType = "random_values.assigned"
	EventScoresUpdated        EventType = "scores.updated"
	EventRewardPaid           EventType = "reward.paid"
	EventClaimConfirmed       EventType = "claim.confirmed"
)

// ContestEvent is published whenever the watcher or claim tracker sees a change
type ContestEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	ContestID  int64          `json:"contest_id"`
	GameID     string         `json:"game_id,omitempty"`
	Quarter    string         `json:"quarter,omitempty"`
	TxHash     string         `json:"tx_hash,omitempty"`
	Scores     *ScoresOnChain `json:"scores,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// DedupKey identifies the state change independent of who observed it
func (e ContestEvent) DedupKey() string {
	switch e.Type {
	case EventRewardPaid:
		return fmt.Sprintf("%s:%d:%s", e.Type, e.ContestID, e.Quarter)
	case EventClaimConfirmed:
		return fmt.Sprintf("%s:%d:%s", e.Type, e.ContestID, e.TxHash)
	case EventScoresUpdated:
		if e.Scores != nil {
			s := e.Scores
			return fmt.Sprintf("%s:%d:%d:%d%d%d%d:%d%d%d%d", e.Type, e.ContestID, s.QComplete,
				s.HomeQ1LastDigit, s.HomeQ2LastDigit, s.HomeQ3LastDigit, s.HomeFLastDigit,
				s.AwayQ1LastDigit, s.AwayQ2LastDigit, s.AwayQ3LastDigit, s.AwayFLastDigit)
		}
	}
	return fmt.Sprintf("%s:%d", e.Type, e.ContestID)
}
