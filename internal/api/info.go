package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	svc *Services
}

func NewInfoHandler(svc *Services) *InfoHandler {
	return &InfoHandler{svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Crops    int      `json:"crops" doc:"Number of labels in the catalog"`
	Policy   string   `json:"policy" doc:"Range enforcement policy"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "cropfusion",
		Version:  Version,
		Features: []string{"crop-recommendation", "weather-autofill", "commentary", "scene"},
	}
	if h.svc.Catalog != nil {
		body.Crops = h.svc.Catalog.Len()
	}
	if h.svc.Recommender != nil {
		body.Policy = h.svc.Recommender.Policy().String()
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
