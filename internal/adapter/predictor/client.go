// Package predictor calls the remote crop recommendation endpoint.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/crop"
)

// ErrEmptyLabel is returned when the endpoint answers with an empty label.
var ErrEmptyLabel = errors.New("empty label in response")

// Client posts feature vectors to the recommendation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a recommendation endpoint client.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Predict sends {"array": [...]} and decodes the bare JSON label.
func (c *Client) Predict(ctx context.Context, vec crop.Vector) (string, error) {
	body, err := json.Marshal(vec.Request())
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("recommend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("recommend API error: status %d: %s", resp.StatusCode, msg)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	label, err := decodeLabel(raw)
	if err != nil {
		return "", err
	}

	c.logger.Debug("prediction received", zap.String("label", label))
	return label, nil
}

// decodeLabel accepts a JSON string, or a one-element array of strings as
// produced by model servers that return their prediction batch as-is.
func decodeLabel(raw []byte) (string, error) {
	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		var batch []string
		if err2 := json.Unmarshal(raw, &batch); err2 != nil || len(batch) != 1 {
			return "", fmt.Errorf("decode response: %w", err)
		}
		label = batch[0]
	}
	if label == "" {
		return "", ErrEmptyLabel
	}
	return label, nil
}
