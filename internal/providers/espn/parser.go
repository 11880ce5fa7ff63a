package espn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

// ParseSummary parses an ESPN NFL game summary into a Game.
// Team, score and status data live under header.competitions[0].
func ParseSummary(rawData map[string]interface{}) (*models.Game, error) {
	header := extractMap(rawData, "header")
	if len(header) == 0 {
		return nil, fmt.Errorf("no header in summary")
	}

	competitions := extractArray(header, "competitions")
	if len(competitions) == 0 {
		return nil, fmt.Errorf("no competitions found in summary")
	}
	comp, ok := competitions[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed competition")
	}

	game := &models.Game{
		GameID:       extractString(header, "id"),
		UpdatedAt:    time.Now(),
		PeriodScores: []models.PeriodScore{},
	}

	if dateStr := extractString(comp, "date"); dateStr != "" {
		game.CommenceTime = parseCommenceTime(dateStr)
	}

	status := extractMap(comp, "status")
	statusType := extractMap(status, "type")
	game.Status = parseGameStatus(statusType)
	game.Completed = game.Status == models.StatusFinal
	game.Period = extractInt(status, "period")
	game.PeriodLabel = getPeriodLabel(game.Period)
	game.TimeRemaining = extractString(status, "displayClock")

	competitors := extractArray(comp, "competitors")
	if len(competitors) < 2 {
		return nil, fmt.Errorf("insufficient competitors")
	}

	var homeLines, awayLines []int
	for _, compInterface := range competitors {
		competitor, ok := compInterface.(map[string]interface{})
		if !ok {
			continue
		}
		team := extractMap(competitor, "team")
		lines := parseLinescores(extractArray(competitor, "linescores"))

		switch extractString(competitor, "homeAway") {
		case "home":
			game.HomeTeam = extractString(team, "displayName")
			game.HomeTeamAbbr = extractString(team, "abbreviation")
			game.HomeTeamName = extractString(team, "name")
			game.HomeScore = extractInt(competitor, "score")
			homeLines = lines
		case "away":
			game.AwayTeam = extractString(team, "displayName")
			game.AwayTeamAbbr = extractString(team, "abbreviation")
			game.AwayTeamName = extractString(team, "name")
			game.AwayScore = extractInt(competitor, "score")
			awayLines = lines
		}
	}

	periods := len(homeLines)
	if len(awayLines) > periods {
		periods = len(awayLines)
	}
	for i := 0; i < periods; i++ {
		ps := models.PeriodScore{Period: i + 1, Label: getPeriodLabel(i + 1)}
		if i < len(homeLines) {
			ps.HomeScore = homeLines[i]
		}
		if i < len(awayLines) {
			ps.AwayScore = awayLines[i]
		}
		game.PeriodScores = append(game.PeriodScores, ps)
	}

	return game, nil
}

func parseLinescores(raw []interface{}) []int {
	lines := make([]int, 0, len(raw))
	for _, l := range raw {
		m, ok := l.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := m["displayValue"]; ok {
			lines = append(lines, parseInt(v))
			continue
		}
		lines = append(lines, extractInt(m, "value"))
	}
	return lines
}

// parseInt parses an int from interface{}
func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}

// parseGameStatus converts ESPN status to our GameStatus
func parseGameStatus(statusType map[string]interface{}) models.GameStatus {
	if completed, ok := statusType["completed"].(bool); ok && completed {
		return models.StatusFinal
	}

	if name := extractString(statusType, "name"); name == "STATUS_POSTPONED" || name == "STATUS_CANCELED" {
		return models.StatusPostponed
	}

	if state, ok := statusType["state"].(string); ok {
		switch state {
		case "in":
			return models.StatusLive
		case "pre":
			return models.StatusUpcoming
		case "post":
			return models.StatusFinal
		}
	}

	return models.StatusUpcoming
}

// parseCommenceTime parses ESPN date format to time.Time
func parseCommenceTime(dateStr string) time.Time {
	// ESPN format: "2024-09-06T00:20Z"
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t
		}
	}
	t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(dateStr, "Z"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// getPeriodLabel returns NFL period labels
func getPeriodLabel(period int) string {
	switch {
	case period <= 0:
		return ""
	case period <= 4:
		return fmt.Sprintf("Q%d", period)
	case period == 5:
		return "OT"
	default:
		return fmt.Sprintf("OT%d", period-4)
	}
}

// extractString safely extracts a string from a map
func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// extractInt safely extracts an int from a map
func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

// extractMap safely extracts a map from a map
func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

// extractArray safely extracts an array from a map
func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}
