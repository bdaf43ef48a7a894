// Package ui contains the Datastar SSE handlers behind the crop pages.
//
// The browser holds the form and auto-fill state as signals and posts them
// with every action; handlers answer by patching signals and fragments,
// moving focus, raising alerts or navigating.
package ui

import (
	"context"
	"errors"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/catalog"
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/humastar"
	"github.com/cropfusion/cropfusion/internal/service"
)

// Routes served by this package.
const (
	BasePath            = "/api/v1/ui/crop"
	PredictPath         = BasePath + "/predict"
	LocationRequestPath = BasePath + "/location/request"
	LocationPath        = BasePath + "/location"
	ClearWeatherPath    = BasePath + "/clear-weather"
	CommentaryPath      = "/api/v1/ui/commentary"

	// ResultPath is the page the form navigates to after a prediction.
	ResultPath = "/crop/result"
)

// Element ids patched over SSE.
const (
	StatusSelector     = "#crop-autofill-status"
	CommentarySelector = "#crop-commentary"
)

// ResultURL is the result page for a handoff token.
func ResultURL(token string) string {
	return ResultPath + "?state=" + url.QueryEscape(token)
}

// Handler serves the crop UI actions.
type Handler struct {
	humastar.Handler
	recommender *service.Recommender
	autofill    *service.AutofillFlow
	enricher    *service.Enricher
	catalog     *catalog.Catalog
	logger      *zap.Logger
}

// NewHandler creates the UI handler.
func NewHandler(
	r *humastar.Renderer,
	rec *service.Recommender,
	af *service.AutofillFlow,
	en *service.Enricher,
	cat *catalog.Catalog,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Handler:     humastar.Handler{Renderer: r},
		recommender: rec,
		autofill:    af,
		enricher:    en,
		catalog:     cat,
		logger:      logger,
	}
}

// RegisterRoutes registers the UI actions, tagged so they stay out of the
// REST link graph.
func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags(humastar.UITag)
	huma.Post(api, PredictPath, h.Predict, tags)
	huma.Post(api, LocationRequestPath, h.RequestLocation, tags)
	huma.Post(api, LocationPath, h.ReportLocation, tags)
	huma.Post(api, ClearWeatherPath, h.ClearWeather, tags)
	huma.Get(api, CommentaryPath, h.Commentary, tags)
}

// Predict validates the form and, when it passes, requests a recommendation.
// Empty fields only move focus; range and number errors raise an alert;
// endpoint failures raise the retry alert. Every failure path resets the
// progress indicator.
func (h *Handler) Predict(ctx context.Context, in *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := in.MustParse()
	if err != nil {
		return nil, err
	}
	rec, err := h.recommender.Submit(ctx, FormFromSignals(signals))

	return h.Stream(func(sse humastar.SSE) {
		if err == nil {
			sse.Navigate(ResultURL(rec.Token))
			return
		}
		defer sse.Signals(map[string]any{SignalPredicting: false})

		var (
			empty   *crop.EmptyFieldError
			invalid *crop.InvalidNumberError
		)
		switch {
		case errors.As(err, &empty):
			sse.Focus(empty.Field.InputID())
		case errors.As(err, &invalid):
			sse.Alert(err.Error())
			sse.Focus(invalid.Field.InputID())
		case errors.Is(err, service.ErrPredictionFailed):
			sse.Alert(service.RetryMessage)
		default:
			sse.Alert(err.Error())
		}
	}), nil
}

// RequestLocation starts an auto-fill attempt: the state goes to pending and
// the browser is asked for its position.
func (h *Handler) RequestLocation(ctx context.Context, in *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := in.MustParse()
	if err != nil {
		return nil, err
	}
	a := h.autofill.Request(AutofillFromSignals(signals))

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(autofillSignals(a))
		sse.Patch(h.status(a), StatusSelector)
		sse.ExecuteScript(GeolocationScript(a.Attempt))
	}), nil
}

// ReportLocation settles the pending attempt with the browser's answer.
// A report for a superseded attempt changes nothing.
func (h *Handler) ReportLocation(ctx context.Context, in *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := in.MustParse()
	if err != nil {
		return nil, err
	}
	a, form, settled := h.autofill.Settle(ctx,
		AutofillFromSignals(signals), FormFromSignals(signals), GeoReportFromSignals(signals))

	return h.Stream(func(sse humastar.SSE) {
		if !settled {
			return
		}
		update := autofillSignals(a)
		if a.State == service.AutofillFetched {
			for k, v := range weatherSignals(form) {
				update[k] = v
			}
		}
		sse.Signals(update)
		sse.Patch(h.status(a), StatusSelector)
	}), nil
}

// ClearWeather empties the three auto-filled fields.
func (h *Handler) ClearWeather(ctx context.Context, in *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := in.MustParse()
	if err != nil {
		return nil, err
	}
	a, form := h.autofill.Clear(AutofillFromSignals(signals), FormFromSignals(signals))

	return h.Stream(func(sse humastar.SSE) {
		update := autofillSignals(a)
		for k, v := range weatherSignals(form) {
			update[k] = v
		}
		sse.Signals(update)
		sse.Patch(h.status(a), StatusSelector)
	}), nil
}

// CommentaryInput selects the result whose commentary to load.
type CommentaryInput struct {
	State string `query:"state" doc:"Result token from the result page URL"`
}

// CommentaryView is the data of the commentary fragment.
type CommentaryView struct {
	Text string
	OK   bool
}

// Commentary patches the commentary block of a result page. It always
// answers with text: the generated commentary or the fallback sentence.
func (h *Handler) Commentary(ctx context.Context, in *CommentaryInput) (*huma.StreamResponse, error) {
	view := CommentaryView{Text: service.FallbackCommentary}
	if label, ok := h.recommender.Result(in.State); ok {
		if entry, err := h.catalog.Lookup(label); err == nil {
			view.Text, view.OK = h.enricher.Commentary(ctx, entry.Label)
		}
	}

	return h.Stream(func(sse humastar.SSE) {
		html, err := h.Renderer.Render("commentary", view)
		if err != nil {
			h.logger.Error("render commentary", zap.Error(err))
			return
		}
		sse.Patch(html, CommentarySelector)
	}), nil
}

// StatusView is the data of the auto-fill status fragment.
type StatusView struct {
	State        service.AutofillState
	Message      string
	Retriable    bool
	AutoFilled   bool
	RequestRoute string
	ClearRoute   string
}

// NewStatusView builds the status fragment data for a.
func NewStatusView(a service.Autofill) StatusView {
	return StatusView{
		State:        a.State,
		Message:      a.Message(),
		Retriable:    a.Retriable(),
		AutoFilled:   a.AutoFilled,
		RequestRoute: LocationRequestPath,
		ClearRoute:   ClearWeatherPath,
	}
}

func (h *Handler) status(a service.Autofill) string {
	html, err := h.Renderer.Render("autofill-status", NewStatusView(a))
	if err != nil {
		h.logger.Error("render autofill status", zap.Error(err))
	}
	return html
}
