package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/goleak"

	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- fakes ---

type fakePredictor struct {
	mu    sync.Mutex
	label string
	err   error
	calls []crop.Vector
}

func (f *fakePredictor) Predict(_ context.Context, vec crop.Vector) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, vec)
	return f.label, f.err
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeWeather struct {
	obs   Observation
	err   error
	calls []orb.Point
}

func (f *fakeWeather) Current(_ context.Context, p orb.Point) (Observation, error) {
	f.calls = append(f.calls, p)
	return f.obs, f.err
}

type fakeCommentator struct {
	text string
	err  error
}

func (f *fakeCommentator) Comment(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

var errUpstream = errors.New("upstream down")

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}
