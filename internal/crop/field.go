// Package crop models the soil and weather parameters a user enters to get a
// crop recommendation.
//
// The form holds raw strings exactly as typed. [Validate] turns a complete,
// in-range form into the fixed-order feature [Vector] the remote model
// expects:
//
//	[nitrogen, phosphorous, potassium, temperature, humidity, ph, rainfall]
//
// The on-screen order of the inputs is different ([FocusOrder]); it decides
// which empty field receives focus first.
package crop

import "fmt"

// Field names one of the seven form inputs.
type Field string

const (
	Nitrogen    Field = "nitrogen"
	Temperature Field = "temperature"
	Phosphorous Field = "phosphorous"
	Humidity    Field = "humidity"
	Potassium   Field = "potassium"
	PH          Field = "ph"
	Rainfall    Field = "rainfall"
)

// FocusOrder is the on-screen order of the form inputs.
var FocusOrder = []Field{Nitrogen, Temperature, Phosphorous, Humidity, Potassium, PH, Rainfall}

// VectorOrder is the feature order of the prediction request.
var VectorOrder = []Field{Nitrogen, Phosphorous, Potassium, Temperature, Humidity, PH, Rainfall}

// WeatherFields are the fields owned by weather auto-fill.
var WeatherFields = []Field{Temperature, Humidity, Rainfall}

// Label is the human-readable input label.
func (f Field) Label() string {
	switch f {
	case Nitrogen:
		return "Ratio of Nitrogen"
	case Temperature:
		return "Temperature in Celsius"
	case Phosphorous:
		return "Ratio of Phosphorous"
	case Humidity:
		return "% of Humidity"
	case Potassium:
		return "Ratio of Potassium"
	case PH:
		return "PH Level of soil"
	case Rainfall:
		return "Rainfall in Millimeter (mm)"
	}
	return string(f)
}

// InputID is the DOM id of the field's input element.
func (f Field) InputID() string {
	return string(f) + "-crop-input"
}

// Range is an inclusive numeric bound.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}

// DefaultRanges are the declared bounds for every field.
var DefaultRanges = map[Field]Range{
	Nitrogen:    {Min: 0, Max: 150},
	Phosphorous: {Min: 5, Max: 145},
	Potassium:   {Min: 5, Max: 205},
	Temperature: {Min: 0, Max: 50},
	Humidity:    {Min: 1, Max: 100},
	PH:          {Min: 3, Max: 10},
	Rainfall:    {Min: 20, Max: 300},
}
