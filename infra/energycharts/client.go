// Package energycharts fetches public solar production forecasts from the
// energy-charts.info API.
package energycharts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/solarsched/core/forecast"
	"github.com/kilianp07/solarsched/core/model"
)

// DefaultURL is the Austrian solar forecast endpoint.
const DefaultURL = "https://api.energy-charts.info/public_power_forecast?country=at&production_type=solar&forecast_type=current"

const wattsPerMW = 1_000_000

// Response is the JSON payload of the forecast endpoint. Values are in MW and
// may be null.
type Response struct {
	UnixSeconds    []int64    `json:"unix_seconds"`
	ForecastValues []*float64 `json:"forecast_values"`
}

// Client queries the forecast endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL, DefaultURL when empty.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// requestURL adds the window from the day before to the day after day.
func (c *Client) requestURL(day model.Day) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forecast url: %w", err)
	}
	q := u.Query()
	q.Set("start", day.Start.AddDate(0, 0, -1).Format(time.DateOnly))
	q.Set("end", day.Start.AddDate(0, 0, 1).Format(time.DateOnly))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch retrieves the forecast around day. Timestamps are returned in the
// location of day; null values are dropped.
func (c *Client) Fetch(ctx context.Context, day model.Day) (forecast.Forecast, error) {
	u, err := c.requestURL(day)
	if err != nil {
		return forecast.Forecast{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return forecast.Forecast{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return forecast.Forecast{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return forecast.Forecast{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return forecast.Forecast{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return forecast.Forecast{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return r.Forecast(day.Start.Location())
}

// Forecast converts the payload to a forecast in W.
func (r Response) Forecast(loc *time.Location) (forecast.Forecast, error) {
	if len(r.UnixSeconds) != len(r.ForecastValues) {
		return forecast.Forecast{}, fmt.Errorf("forecast has %d timestamps and %d values", len(r.UnixSeconds), len(r.ForecastValues))
	}
	points := make([]forecast.Datapoint, 0, len(r.UnixSeconds))
	for i, sec := range r.UnixSeconds {
		if r.ForecastValues[i] == nil {
			continue
		}
		points = append(points, forecast.Datapoint{
			Time:  time.Unix(sec, 0).In(loc),
			Value: *r.ForecastValues[i] * wattsPerMW,
		})
	}
	return forecast.New(points), nil
}
