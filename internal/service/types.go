// Package service contains the recommendation flows behind the web UI and
// the REST API: submission, weather auto-fill, result handoff and
// commentary enrichment.
package service

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/cropfusion/cropfusion/internal/crop"
)

// CropForm is the wire form of crop.FormState.
// Single source of truth for the form: Huma reads the tags for OpenAPI,
// humastar reads them to render Datastar-bound inputs.
//
// Custom tags for form rendering:
//
//	input:"number"   — render as <input type="number">
//	min:"0" max:"1"  — input bounds, mirrors crop.DefaultRanges
//	order:"1"        — on-screen position (crop.FocusOrder)
type CropForm struct {
	Nitrogen    string `json:"nitrogen" required:"true" doc:"Ratio of Nitrogen" example:"50" input:"number" min:"0" max:"150" order:"1"`
	Temperature string `json:"temperature" required:"true" doc:"Temperature in Celsius" example:"25" input:"number" min:"0" max:"50" order:"2"`
	Phosphorous string `json:"phosphorous" required:"true" doc:"Ratio of Phosphorous" example:"50" input:"number" min:"5" max:"145" order:"3"`
	Humidity    string `json:"humidity" required:"true" doc:"% of Humidity" example:"60" input:"number" min:"1" max:"100" order:"4"`
	Potassium   string `json:"potassium" required:"true" doc:"Ratio of Potassium" example:"50" input:"number" min:"5" max:"205" order:"5"`
	PH          string `json:"ph" required:"true" doc:"PH Level of soil" example:"6.5" input:"number" min:"3" max:"10" order:"6"`
	Rainfall    string `json:"rainfall" required:"true" doc:"Rainfall in Millimeter (mm)" example:"100" input:"number" min:"20" max:"300" order:"7"`
}

// FormState converts the wire form to the domain form.
func (f CropForm) FormState() crop.FormState {
	return crop.FormState{
		crop.Nitrogen:    f.Nitrogen,
		crop.Temperature: f.Temperature,
		crop.Phosphorous: f.Phosphorous,
		crop.Humidity:    f.Humidity,
		crop.Potassium:   f.Potassium,
		crop.PH:          f.PH,
		crop.Rainfall:    f.Rainfall,
	}
}

// CropFormFrom converts a domain form to its wire form.
func CropFormFrom(s crop.FormState) CropForm {
	return CropForm{
		Nitrogen:    s.Get(crop.Nitrogen),
		Temperature: s.Get(crop.Temperature),
		Phosphorous: s.Get(crop.Phosphorous),
		Humidity:    s.Get(crop.Humidity),
		Potassium:   s.Get(crop.Potassium),
		PH:          s.Get(crop.PH),
		Rainfall:    s.Get(crop.Rainfall),
	}
}

// Predictor returns the label the remote model assigns to vec.
type Predictor interface {
	Predict(ctx context.Context, vec crop.Vector) (string, error)
}

// Observation is the subset of current weather used by auto-fill.
type Observation struct {
	Temperature float64
	Humidity    float64
	Rain1h      *float64 // nil when the provider reports no rain block
}

// WeatherSource looks up current weather at a WGS-84 point.
type WeatherSource interface {
	Current(ctx context.Context, p orb.Point) (Observation, error)
}

// Commentator produces free-text commentary about a label.
type Commentator interface {
	Comment(ctx context.Context, label string) (string, error)
}
