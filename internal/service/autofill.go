package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/observability"
)

// AutofillState is the state of the location + weather auto-fill flow.
type AutofillState string

const (
	AutofillNotRequested  AutofillState = "not-requested"
	AutofillPending       AutofillState = "pending"
	AutofillFetched       AutofillState = "granted-weather-fetched"
	AutofillWeatherFailed AutofillState = "granted-weather-failed"
	AutofillDenied        AutofillState = "denied"
	AutofillUnsupported   AutofillState = "unsupported"
)

// DefaultRainfall is written when the provider reports no rain.
const DefaultRainfall = "50"

// GeolocationTimeout bounds the browser's position request.
const GeolocationTimeout = 10 * time.Second

// ErrOutOfBounds is returned for coordinates outside WGS-84 bounds.
var ErrOutOfBounds = errors.New("coordinates out of bounds")

// Geolocation error codes reported by the browser.
const (
	GeoDenied      = "denied"
	GeoUnavailable = "unavailable"
	GeoTimeout     = "timeout"
	GeoUnsupported = "unsupported"
)

// Autofill is the client-held state of one form's auto-fill flow.
// It travels with the form by value; Attempt identifies the current request
// so a settlement for a superseded attempt is ignored.
type Autofill struct {
	State      AutofillState
	Attempt    int
	AutoFilled bool
}

// Retriable reports whether the UI should offer "Try Again".
func (a Autofill) Retriable() bool {
	switch a.State {
	case AutofillWeatherFailed, AutofillDenied, AutofillUnsupported:
		return true
	}
	return false
}

// Message is the status line shown for the state.
func (a Autofill) Message() string {
	switch a.State {
	case AutofillPending:
		return "Requesting your location to fill in local weather..."
	case AutofillFetched:
		return "Temperature, humidity and rainfall were filled in from your local weather."
	case AutofillWeatherFailed:
		return "We got your location but could not fetch the weather. You can try again."
	case AutofillDenied:
		return "Location access was denied or is unavailable. Please enter the values manually."
	case AutofillUnsupported:
		return "Your browser does not support geolocation. Please enter the values manually."
	}
	return ""
}

// GeoReport is what the browser sends back after a position request.
type GeoReport struct {
	Attempt int
	Lat     float64
	Lon     float64
	Error   string // one of the Geo* codes, empty on success
}

// Snapshot is the weather data written into the form.
type Snapshot struct {
	Temperature string
	Humidity    string
	Rainfall    string
}

// SnapshotFrom maps an observation to form values.
func SnapshotFrom(obs Observation) Snapshot {
	s := Snapshot{
		Temperature: formatNumber(obs.Temperature),
		Humidity:    formatNumber(obs.Humidity),
		Rainfall:    DefaultRainfall,
	}
	if obs.Rain1h != nil {
		s.Rainfall = formatNumber(*obs.Rain1h)
	}
	return s
}

// Apply overwrites the weather fields of form.
func (s Snapshot) Apply(form crop.FormState) crop.FormState {
	return form.
		Set(crop.Temperature, s.Temperature).
		Set(crop.Humidity, s.Humidity).
		Set(crop.Rainfall, s.Rainfall)
}

// AutofillFlow drives the location + weather auto-fill.
type AutofillFlow struct {
	weather WeatherSource
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAutofillFlow creates the flow. A nil weather source makes every granted
// location settle as a weather failure.
func NewAutofillFlow(weather WeatherSource, m *observability.Metrics, logger *zap.Logger) *AutofillFlow {
	return &AutofillFlow{weather: weather, metrics: m, logger: logger}
}

// Request starts a new attempt. Any earlier attempt becomes stale.
func (f *AutofillFlow) Request(a Autofill) Autofill {
	a.Attempt++
	a.State = AutofillPending
	return a
}

// Settle applies the browser's report for the current attempt and returns
// the new state and form. A report for another attempt, or arriving when no
// request is pending, leaves both unchanged and returns false.
func (f *AutofillFlow) Settle(ctx context.Context, a Autofill, form crop.FormState, r GeoReport) (Autofill, crop.FormState, bool) {
	if a.State != AutofillPending || r.Attempt != a.Attempt {
		return a, form, false
	}

	switch r.Error {
	case "":
	case GeoUnsupported:
		a.State = AutofillUnsupported
		return a, form, true
	default:
		a.State = AutofillDenied
		return a, form, true
	}

	obs, err := f.lookup(ctx, orb.Point{r.Lon, r.Lat})
	if err != nil {
		f.logger.Warn("weather auto-fill failed",
			zap.Float64("lat", r.Lat),
			zap.Float64("lon", r.Lon),
			zap.Error(err),
		)
		a.State = AutofillWeatherFailed
		return a, form, true
	}

	a.State = AutofillFetched
	a.AutoFilled = true
	return a, SnapshotFrom(obs).Apply(form), true
}

// Clear resets exactly the weather fields and the auto-filled flag.
func (f *AutofillFlow) Clear(a Autofill, form crop.FormState) (Autofill, crop.FormState) {
	for _, field := range crop.WeatherFields {
		form = form.Set(field, "")
	}
	a.AutoFilled = false
	return a, form
}

func (f *AutofillFlow) lookup(ctx context.Context, p orb.Point) (Observation, error) {
	if p.Lat() < -90 || p.Lat() > 90 || p.Lon() < -180 || p.Lon() > 180 {
		return Observation{}, ErrOutOfBounds
	}
	if f.weather == nil {
		return Observation{}, errors.New("weather source not configured")
	}

	start := time.Now()
	obs, err := f.weather.Current(ctx, p)
	f.metrics.WeatherLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.WeatherLookups.WithLabelValues(observability.OutcomeError).Inc()
		return Observation{}, err
	}
	f.metrics.WeatherLookups.WithLabelValues(observability.OutcomeSuccess).Inc()
	return obs, nil
}

// formatNumber renders v the way a browser prints a number: 22.5, 70, 0.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
