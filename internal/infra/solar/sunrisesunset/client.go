package sunrisesunset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/astro-clock/internal/domain/reading"
)

const defaultBaseURL = "https://api.sunrise-sunset.org/json"

// Client fetches sunrise and sunset instants from sunrise-sunset.org.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the UTC sunrise and sunset for a coordinate pair on date
// (YYYY-MM-DD).
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64, date string) (reading.SunEvents, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(longitude, 'f', -1, 64))
	query.Set("date", date)
	query.Set("formatted", "0")
	endpoint := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return reading.SunEvents{}, fmt.Errorf("build sunrise request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reading.SunEvents{}, fmt.Errorf("sunrise request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return reading.SunEvents{}, fmt.Errorf("read sunrise response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return reading.SunEvents{}, fmt.Errorf("sunrise request error: status=%d body=%s", resp.StatusCode, truncate(string(body), 512))
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return reading.SunEvents{}, fmt.Errorf("decode sunrise response: %w", err)
	}
	if raw.Status != "OK" {
		return reading.SunEvents{}, fmt.Errorf("sunrise api status %q", raw.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, raw.Results.Sunrise)
	if err != nil {
		return reading.SunEvents{}, fmt.Errorf("parse sunrise: %w", err)
	}
	sunset, err := time.Parse(time.RFC3339, raw.Results.Sunset)
	if err != nil {
		return reading.SunEvents{}, fmt.Errorf("parse sunset: %w", err)
	}
	return reading.SunEvents{Sunrise: sunrise.UTC(), Sunset: sunset.UTC()}, nil
}

type apiResponse struct {
	Status  string     `json:"status"`
	Results apiResults `json:"results"`
}

type apiResults struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ reading.SolarClient = (*Client)(nil)
