package ui

import (
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/humastar"
	"github.com/cropfusion/cropfusion/internal/service"
)

// UI state signals carried next to the form fields.
const (
	SignalAutofillState   = "autofillstate"
	SignalAutofillAttempt = "autofillattempt"
	SignalAutoFilled      = "autofilled"
	SignalGeoAttempt      = "geoattempt"
	SignalGeoLat          = "geolat"
	SignalGeoLon          = "geolon"
	SignalGeoError        = "geoerror"
	SignalPredicting      = "predicting"
)

// InitialSignals are the UI signals a fresh form page starts with.
func InitialSignals() map[string]any {
	return map[string]any{
		SignalAutofillState:   string(service.AutofillNotRequested),
		SignalAutofillAttempt: 0,
		SignalAutoFilled:      false,
		SignalGeoAttempt:      0,
		SignalGeoLat:          0,
		SignalGeoLon:          0,
		SignalGeoError:        "",
		SignalPredicting:      false,
	}
}

// FormFromSignals reads the seven form fields.
func FormFromSignals(s humastar.Signals) crop.FormState {
	form := crop.NewFormState()
	for _, f := range crop.FocusOrder {
		form[f] = s.String(string(f))
	}
	return form
}

// AutofillFromSignals reads the client-held auto-fill state.
func AutofillFromSignals(s humastar.Signals) service.Autofill {
	state := service.AutofillState(s.String(SignalAutofillState))
	if state == "" {
		state = service.AutofillNotRequested
	}
	return service.Autofill{
		State:      state,
		Attempt:    s.Int(SignalAutofillAttempt),
		AutoFilled: s.Bool(SignalAutoFilled),
	}
}

// GeoReportFromSignals reads what the browser reported for a position request.
func GeoReportFromSignals(s humastar.Signals) service.GeoReport {
	return service.GeoReport{
		Attempt: s.Int(SignalGeoAttempt),
		Lat:     s.Float(SignalGeoLat),
		Lon:     s.Float(SignalGeoLon),
		Error:   s.String(SignalGeoError),
	}
}

func autofillSignals(a service.Autofill) map[string]any {
	return map[string]any{
		SignalAutofillState:   string(a.State),
		SignalAutofillAttempt: a.Attempt,
		SignalAutoFilled:      a.AutoFilled,
	}
}

func weatherSignals(form crop.FormState) map[string]any {
	out := make(map[string]any, len(crop.WeatherFields))
	for _, f := range crop.WeatherFields {
		out[string(f)] = form.Get(f)
	}
	return out
}
