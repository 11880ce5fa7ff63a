package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
)

const (
	BaseURL = "https://site.api.espn.com/apis/site/v2/sports"

	// NFLPath is the ESPN sport path for NFL games
	NFLPath = "football/nfl"
)

// Client handles ESPN API requests
type Client struct {
	httpClient *http.Client
	baseURL    string
	sportPath  string
	userAgent  string
}

// New creates a new ESPN API client for a sport path
func New(baseURL, sportPath string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if sportPath == "" {
		sportPath = NFLPath
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		sportPath: sportPath,
		userAgent: "Mozilla/5.0 (compatible; FortunaBot/1.0)",
	}
}

// FetchGame fetches a game summary and parses it into a Game
func (c *Client) FetchGame(ctx context.Context, gameID string) (*models.Game, error) {
	summary, err := c.FetchGameSummary(ctx, gameID)
	if err != nil {
		return nil, err
	}

	game, err := ParseSummary(summary)
	if err != nil {
		return nil, fmt.Errorf("parsing game %s: %w", gameID, err)
	}
	if game.GameID == "" {
		game.GameID = gameID
	}
	return game, nil
}

// FetchGameSummary fetches the raw game summary
func (c *Client) FetchGameSummary(ctx context.Context, gameID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, c.sportPath, gameID)

	return c.fetch(ctx, url)
}

// fetch makes an HTTP GET request and returns parsed JSON
func (c *Client) fetch(ctx context.Context, url string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ESPN API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return result, nil
}
