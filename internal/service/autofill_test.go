package service

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/crop"
)

func TestAutofill_GrantedFetchesWeather(t *testing.T) {
	w := &fakeWeather{obs: Observation{Temperature: 22.5, Humidity: 70}}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	a := f.Request(Autofill{})
	assert.Equal(t, AutofillPending, a.State)

	form := crop.NewFormState().Set(crop.Nitrogen, "40").Set(crop.Temperature, "10")
	a, form, settled := f.Settle(context.Background(), a, form, GeoReport{Attempt: a.Attempt, Lat: 12.97, Lon: 77.59})
	require.True(t, settled)

	assert.Equal(t, AutofillFetched, a.State)
	assert.True(t, a.AutoFilled)
	assert.Equal(t, "22.5", form.Get(crop.Temperature))
	assert.Equal(t, "70", form.Get(crop.Humidity))
	assert.Equal(t, "50", form.Get(crop.Rainfall))
	assert.Equal(t, "40", form.Get(crop.Nitrogen))

	require.Len(t, w.calls, 1)
	assert.Equal(t, orb.Point{77.59, 12.97}, w.calls[0])
}

func TestAutofill_RainReported(t *testing.T) {
	rain := 3.25
	snap := SnapshotFrom(Observation{Temperature: 18, Humidity: 91, Rain1h: &rain})
	assert.Equal(t, Snapshot{Temperature: "18", Humidity: "91", Rainfall: "3.25"}, snap)
}

func TestAutofill_ClearResetsOnlyWeatherFields(t *testing.T) {
	w := &fakeWeather{obs: Observation{Temperature: 22.5, Humidity: 70}}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	a := f.Request(Autofill{})
	form := crop.NewFormState().Set(crop.PH, "6.5")
	a, form, _ = f.Settle(context.Background(), a, form, GeoReport{Attempt: a.Attempt})

	a, form = f.Clear(a, form)
	assert.False(t, a.AutoFilled)
	for _, field := range crop.WeatherFields {
		assert.Empty(t, form.Get(field), field)
	}
	assert.Equal(t, "6.5", form.Get(crop.PH))
}

func TestAutofill_WeatherFailureIsRetriable(t *testing.T) {
	w := &fakeWeather{err: errUpstream}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	a := f.Request(Autofill{})
	form := crop.NewFormState()
	a, got, settled := f.Settle(context.Background(), a, form, GeoReport{Attempt: a.Attempt, Lat: 1, Lon: 1})
	require.True(t, settled)

	assert.Equal(t, AutofillWeatherFailed, a.State)
	assert.True(t, a.Retriable())
	assert.False(t, a.AutoFilled)
	assert.Equal(t, form, got)

	// Try Again re-invokes the whole flow.
	a = f.Request(a)
	assert.Equal(t, AutofillPending, a.State)
	assert.Equal(t, 2, a.Attempt)
}

func TestAutofill_DeniedAndUnsupported(t *testing.T) {
	w := &fakeWeather{}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	for code, want := range map[string]AutofillState{
		GeoDenied:      AutofillDenied,
		GeoUnavailable: AutofillDenied,
		GeoTimeout:     AutofillDenied,
		GeoUnsupported: AutofillUnsupported,
	} {
		a := f.Request(Autofill{})
		a, _, settled := f.Settle(context.Background(), a, crop.NewFormState(), GeoReport{Attempt: a.Attempt, Error: code})
		require.True(t, settled, code)
		assert.Equal(t, want, a.State, code)
		assert.True(t, a.Retriable())
		assert.Contains(t, a.Message(), "manually")
	}
	assert.Empty(t, w.calls)
}

func TestAutofill_StaleSettlementIgnored(t *testing.T) {
	w := &fakeWeather{obs: Observation{Temperature: 30, Humidity: 40}}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	first := f.Request(Autofill{})
	second := f.Request(first)

	a, form, settled := f.Settle(context.Background(), second, crop.NewFormState(), GeoReport{Attempt: first.Attempt})
	assert.False(t, settled)
	assert.Equal(t, second, a)
	assert.Empty(t, form.Get(crop.Temperature))

	// Settling an already-settled attempt twice is also a no-op.
	a, _, settled = f.Settle(context.Background(), second, crop.NewFormState(), GeoReport{Attempt: second.Attempt})
	require.True(t, settled)
	_, _, settled = f.Settle(context.Background(), a, crop.NewFormState(), GeoReport{Attempt: second.Attempt})
	assert.False(t, settled)
	assert.Len(t, w.calls, 1)
}

func TestAutofill_OutOfBoundsCoordinates(t *testing.T) {
	w := &fakeWeather{}
	f := NewAutofillFlow(w, testMetrics(), zap.NewNop())

	a := f.Request(Autofill{})
	a, _, _ = f.Settle(context.Background(), a, crop.NewFormState(), GeoReport{Attempt: a.Attempt, Lat: 123, Lon: 0})
	assert.Equal(t, AutofillWeatherFailed, a.State)
	assert.Empty(t, w.calls)
}

func TestAutofill_NotRequestedHasNoMessage(t *testing.T) {
	a := Autofill{State: AutofillNotRequested}
	assert.Empty(t, a.Message())
	assert.False(t, a.Retriable())
}
