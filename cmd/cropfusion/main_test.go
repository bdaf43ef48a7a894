package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/observability"
)

func defaultOptions() *Options {
	return &Options{
		Host:             "127.0.0.1",
		Port:             8086,
		PredictURL:       "http://localhost:8080/crop_recommend",
		PredictTimeout:   "10s",
		WeatherTimeout:   "5s",
		GeminiModel:      "gemini-2.0-flash",
		HandoffTTL:       "30m",
		EnforceAllRanges: true,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

func TestParseTimeouts(t *testing.T) {
	got, err := parseTimeouts(defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, got.predict)
	assert.Equal(t, 5*time.Second, got.weather)
	assert.Equal(t, 30*time.Minute, got.handoff)

	opts := defaultOptions()
	opts.WeatherTimeout = "soon"
	_, err = parseTimeouts(opts)
	assert.ErrorContains(t, err, "--weather-timeout")
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog(defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 22, cat.Len())

	path := filepath.Join(t.TempDir(), "crops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crops:\n  - label: teff\n    description: Ancient grain.\n"), 0o644))

	opts := defaultOptions()
	opts.CatalogFile = path
	cat, err = loadCatalog(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestNewServer_WithoutUpstreamKeys(t *testing.T) {
	srv, err := newServer(context.Background(), defaultOptions(), zap.NewNop(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ranges", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"policy":"all"`)
}

func TestNewServer_ObservedPolicy(t *testing.T) {
	opts := defaultOptions()
	opts.EnforceAllRanges = false

	srv, err := newServer(context.Background(), opts, zap.NewNop(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer srv.Close()

	assert.Contains(t, srv.OpenAPI().Paths, "/api/v1/recommendations")

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"policy":"observed"`)
}

func TestNewServer_BadCatalog(t *testing.T) {
	opts := defaultOptions()
	opts.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := newServer(context.Background(), opts, zap.NewNop(), observability.NewMetricsForTesting())
	assert.Error(t, err)
}
