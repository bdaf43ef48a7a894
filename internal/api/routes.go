// Package api defines the Huma REST routes and handlers.
package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/api/ui"
	"github.com/cropfusion/cropfusion/internal/catalog"
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/humastar"
	"github.com/cropfusion/cropfusion/internal/scene"
	"github.com/cropfusion/cropfusion/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Catalog     *catalog.Catalog
	Recommender *service.Recommender
	Scene       scene.Scene
	Web         fs.FS // web tree probed for the scene asset
	Logger      *zap.Logger
}

// Types

type LabelInput struct {
	Label string `path:"label" doc:"Crop label" example:"rice"`
}

type ListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"10" doc:"Page size"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type RangesBody struct {
	Policy   string                `json:"policy" doc:"Range enforcement policy" enum:"all,observed"`
	Enforced []crop.Field          `json:"enforced" doc:"Fields whose range is checked, in check order"`
	Ranges   map[string]crop.Range `json:"ranges" doc:"Declared inclusive range per field"`
}

// RecommendationBody is the result of a REST submission.
type RecommendationBody struct {
	Label       string `json:"label" doc:"Predicted crop label" example:"rice"`
	Known       bool   `json:"known" doc:"Whether the label is in the catalog"`
	Description string `json:"description,omitempty" doc:"Catalog description"`
	Image       string `json:"image,omitempty" doc:"Catalog image URL"`
	Href        string `json:"href" doc:"Result page for this recommendation" example:"/crop/result?state=V1StGXR8_Z5jdHi6B-myT"`

	token string
}

var recommendationActions = []humastar.ActionDef{
	{Rel: "result", Pattern: ui.ResultPath + "?state=%s", Method: http.MethodGet, Title: "View recommendation"},
	{Rel: "retry", Pattern: "/api/v1/recommendations", Method: http.MethodPost, Title: "Submit again"},
}

// Actions implements humastar.Actor.
func (b RecommendationBody) Actions() []humastar.Action {
	actions := humastar.ActionsFor(b.token, recommendationActions)
	if b.Known {
		actions = append(actions, humastar.Action{
			Rel: "crop", Href: "/api/v1/crops/" + b.Label, Title: "Catalog entry",
		})
	}
	return actions
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST handler on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc).RegisterRoutes(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterRanges registers the declared input ranges.
func (h *APIHandler) RegisterRanges(api huma.API) {
	huma.Get(api, "/api/v1/ranges", h.GetRanges, huma.OperationTags("ranges"))
}

// RegisterCrops registers catalog routes.
func (h *APIHandler) RegisterCrops(api huma.API) {
	huma.Get(api, "/api/v1/crops", h.ListCrops, huma.OperationTags("crops"))
	huma.Get(api, "/api/v1/crops/{label}", h.GetCrop, huma.OperationTags("crops"))
}

// RegisterRecommendations registers the JSON submission route.
func (h *APIHandler) RegisterRecommendations(api huma.API) {
	huma.Post(api, "/api/v1/recommendations", h.CreateRecommendation,
		huma.OperationTags("recommendations"),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated })
}

// RegisterScene registers the decorative scene manifest.
func (h *APIHandler) RegisterScene(api huma.API) {
	huma.Get(api, "/api/v1/scene", h.GetScene, huma.OperationTags("scene"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetRanges(ctx context.Context, input *struct{}) (*struct{ Body RangesBody }, error) {
	policy := crop.EnforceAll
	if h.svc.Recommender != nil {
		policy = h.svc.Recommender.Policy()
	}
	ranges := make(map[string]crop.Range, len(crop.DefaultRanges))
	for f, r := range crop.DefaultRanges {
		ranges[string(f)] = r
	}
	return &struct{ Body RangesBody }{Body: RangesBody{
		Policy:   policy.String(),
		Enforced: policy.Enforced(),
		Ranges:   ranges,
	}}, nil
}

func (h *APIHandler) ListCrops(ctx context.Context, input *ListInput) (*struct {
	Body humastar.PageBody[catalog.Entry]
}, error) {
	cat := h.svc.Catalog
	return &struct {
		Body humastar.PageBody[catalog.Entry]
	}{Body: humastar.PageBody[catalog.Entry]{
		Total:  cat.Len(),
		Offset: input.Offset,
		Limit:  input.Limit,
		Data:   cat.List(input.Offset, input.Limit),
	}}, nil
}

func (h *APIHandler) GetCrop(ctx context.Context, input *LabelInput) (*struct{ Body catalog.Entry }, error) {
	entry, err := h.svc.Catalog.Lookup(input.Label)
	if err != nil {
		return nil, huma.Error404NotFound("crop not found")
	}
	return &struct{ Body catalog.Entry }{Body: entry}, nil
}

func (h *APIHandler) CreateRecommendation(ctx context.Context, input *struct{ Body service.CropForm }) (*struct{ Body RecommendationBody }, error) {
	if h.svc.Recommender == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	rec, err := h.svc.Recommender.Submit(ctx, input.Body.FormState())
	if err != nil {
		return nil, h.submitError(err)
	}

	body := RecommendationBody{Label: rec.Label, Href: ui.ResultURL(rec.Token), token: rec.Token}
	if entry, err := h.svc.Catalog.Lookup(rec.Label); err == nil {
		body.Label, body.Known = entry.Label, true
		body.Description, body.Image = entry.Description, entry.Image
	} else {
		h.svc.Logger.Warn("prediction returned unknown label", zap.String("label", rec.Label))
	}
	return &struct{ Body RecommendationBody }{Body: body}, nil
}

// submitError maps a Submit failure to its HTTP status: form errors are 422,
// endpoint failures 502, anything else 500.
func (h *APIHandler) submitError(err error) error {
	var (
		empty   *crop.EmptyFieldError
		invalid *crop.InvalidNumberError
		rng     *crop.RangeError
	)
	switch {
	case errors.As(err, &empty), errors.As(err, &invalid), errors.As(err, &rng):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrPredictionFailed):
		return huma.Error502BadGateway(service.RetryMessage)
	}
	h.svc.Logger.Error("recommendation failed", zap.Error(err))
	return huma.Error500InternalServerError("recommendation failed")
}

func (h *APIHandler) GetScene(ctx context.Context, input *struct{}) (*struct{ Body scene.Manifest }, error) {
	return &struct{ Body scene.Manifest }{Body: scene.Probe(h.svc.Web, h.svc.Scene)}, nil
}
