// Package openweather implements service.WeatherSource using the
// OpenWeatherMap current weather API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/service"
)

// DefaultBaseURL is the OpenWeatherMap current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches current conditions by coordinates.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an OpenWeatherMap client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Current returns the current observation at p in metric units.
func (c *Client) Current(ctx context.Context, p orb.Point) (service.Observation, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(p.Lat(), 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(p.Lon(), 'f', 6, 64)},
		"units": {"metric"},
		"appid": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return service.Observation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return service.Observation{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return service.Observation{}, fmt.Errorf("weather API error: status %d: %s", resp.StatusCode, body)
	}

	var wr response
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return service.Observation{}, fmt.Errorf("decode response: %w", err)
	}
	if wr.Main == nil || wr.Main.Temp == nil || wr.Main.Humidity == nil {
		return service.Observation{}, fmt.Errorf("decode response: missing main.temp or main.humidity")
	}

	obs := service.Observation{
		Temperature: *wr.Main.Temp,
		Humidity:    *wr.Main.Humidity,
	}
	if v, ok := wr.Rain["1h"]; ok {
		obs.Rain1h = &v
	}

	c.logger.Debug("weather observation",
		zap.Float64("lat", p.Lat()),
		zap.Float64("lon", p.Lon()),
		zap.Float64("temp", obs.Temperature),
		zap.Float64("humidity", obs.Humidity),
	)
	return obs, nil
}

// OpenWeatherMap response subset.

type response struct {
	Main *mainBlock         `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

type mainBlock struct {
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
}
