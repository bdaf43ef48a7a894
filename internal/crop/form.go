package crop

import "maps"

// FormState maps each field to the string the user typed.
// A missing key and an empty string are equivalent.
type FormState map[Field]string

// NewFormState returns a form with every field empty.
func NewFormState() FormState {
	f := make(FormState, len(FocusOrder))
	for _, field := range FocusOrder {
		f[field] = ""
	}
	return f
}

// Get returns the value of a field, or "" if unset.
func (f FormState) Get(field Field) string {
	return f[field]
}

// Set returns a copy of the form with field set to value.
func (f FormState) Set(field Field, value string) FormState {
	out := f.Clone()
	out[field] = value
	return out
}

// Clone returns an independent copy of the form.
func (f FormState) Clone() FormState {
	out := make(FormState, len(FocusOrder))
	maps.Copy(out, f)
	return out
}

// FirstEmpty returns the first empty field in FocusOrder.
func (f FormState) FirstEmpty() (Field, bool) {
	for _, field := range FocusOrder {
		if f[field] == "" {
			return field, true
		}
	}
	return "", false
}

// Vector is the seven-feature input of the prediction model, in VectorOrder.
type Vector [7]float64

// PredictRequest is the JSON body posted to the recommendation endpoint.
type PredictRequest struct {
	Array []float64 `json:"array"`
}

// Request wraps the vector for the wire.
func (v Vector) Request() PredictRequest {
	return PredictRequest{Array: v[:]}
}
