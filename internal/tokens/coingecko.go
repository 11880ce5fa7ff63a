package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	CoingeckoBaseURL = "https://api.coingecko.com/api/v3"
)

// CoingeckoClient handles CoinGecko API requests. The public API is
// throttled hard, so every request waits on a shared limiter.
type CoingeckoClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewCoingeckoClient creates a client allowing perMinute requests
func NewCoingeckoClient(baseURL string, perMinute int) *CoingeckoClient {
	if baseURL == "" {
		baseURL = CoingeckoBaseURL
	}
	if perMinute <= 0 {
		perMinute = 10
	}
	return &CoingeckoClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "Mozilla/5.0 (compatible; FortunaBot/1.0)",
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// ContractImage returns the large image for a token contract on a platform
func (c *CoingeckoClient) ContractImage(ctx context.Context, platform, address string) (string, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/contract/%s", c.baseURL, platform, strings.ToLower(address))

	var body struct {
		Image struct {
			Large string `json:"large"`
		} `json:"image"`
	}
	if err := c.fetch(ctx, endpoint, &body); err != nil {
		return "", err
	}
	return body.Image.Large, nil
}

// Price returns the USD price for a CoinGecko coin id
func (c *CoingeckoClient) Price(ctx context.Context, coinID string) (float64, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(coinID))

	var body map[string]map[string]float64
	if err := c.fetch(ctx, endpoint, &body); err != nil {
		return 0, err
	}

	price, ok := body[coinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd price for %s", coinID)
	}
	return price, nil
}

// fetch makes a throttled GET request and decodes the JSON body into dst
func (c *CoingeckoClient) fetch(ctx context.Context, endpoint string, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("coingecko API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
