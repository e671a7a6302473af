package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client handles communication with the CRM reporting API for score feeds
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	stubMode   bool
}

// NewClient creates a new CRM client with the given configuration
func NewClient(baseURL, secret string, stubMode bool) *Client {
	return &Client{
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stubMode:   stubMode,
	}
}

// PeriodScores fetches the scored production for one category over the given
// period window. In stub mode it returns canned records so local environments
// can exercise the sync pipeline without a CRM.
func (c *Client) PeriodScores(ctx context.Context, category string, periodStart, periodEnd time.Time) ([]ScoreRecord, error) {
	if c.stubMode {
		return []ScoreRecord{
			{
				Email: "alex.rivera@example.com",
				Score: 42,
				Metrics: map[string]float64{
					"deals_closed": 6,
					"revenue":      31250,
				},
			},
			{
				Email: "jordan.lee@example.com",
				Score: 38,
				Metrics: map[string]float64{
					"deals_closed": 5,
					"revenue":      27800,
				},
			},
			{
				Email: "sam.okafor@example.com",
				Score: 51,
				Metrics: map[string]float64{
					"deals_closed": 8,
					"revenue":      40400,
				},
			},
		}, nil
	}

	q := url.Values{}
	q.Set("category", category)
	q.Set("period_start", periodStart.UTC().Format(time.RFC3339))
	q.Set("period_end", periodEnd.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/scores?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-CRM-SECRET", c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("crm returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed ScoreFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return feed.Records, nil
}
