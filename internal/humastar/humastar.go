// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// It provides:
//   - SSE: Huma streaming → Datastar SSE protocol via [SSE] and [NewSSE]
//   - Signals: Datastar signal parsing via [Signals] and [SignalsInput]
//   - Rendering: embedded page/fragment templates via [Renderer]
//   - Forms: input markup generated from OpenAPI schemas via [RegisterFormTemplates]
//   - Links: RFC 8288 link graph, pagination and action links via [AutoLinks]
//
// Usage:
//
//	type CropHandler struct {
//	    humastar.Handler
//	    recommender *service.Recommender
//	}
//
//	func (h *CropHandler) Predict(ctx context.Context, in *humastar.SignalsInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Navigate("/crop/result?state=" + token)
//	    }), nil
//	}
package humastar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// ---------------------------------------------------------------------------
// Handler — embeddable base for Datastar SSE handlers
// ---------------------------------------------------------------------------

// Handler is an embeddable base for Huma handlers that produce Datastar SSE
// responses.
type Handler struct {
	Renderer *Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// ---------------------------------------------------------------------------
// SSE — Huma ↔ Datastar bridge
// ---------------------------------------------------------------------------

// SSE wraps a Datastar SSE generator with the patterns the UI uses:
// signal patches, inner element patches, focus, alert and navigation.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace inner content at a CSS selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
	)
}

// Signals sends arbitrary signals to the UI.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Focus moves keyboard focus to the element with the given id.
func (s SSE) Focus(id string) {
	s.ExecuteScript("document.getElementById(" + jsString(id) + ")?.focus()")
}

// Alert shows a blocking browser alert.
func (s SSE) Alert(msg string) {
	s.ExecuteScript("alert(" + jsString(msg) + ")")
}

// Navigate sends the browser to url.
func (s SSE) Navigate(url string) {
	s.Redirect(url)
}

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// ---------------------------------------------------------------------------
// Signals — Datastar signal parsing
// ---------------------------------------------------------------------------

// Signals provides typed access to Datastar signal values.
// Datastar sends all signals as a flat JSON object in the request body.
type Signals map[string]any

// ParseSignals parses Datastar signals from a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a signal as text. Numbers are formatted the way the browser
// printed them; anything else yields "".
func (s Signals) String(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Int returns an int signal value, or 0 if not found.
func (s Signals) Int(key string) int {
	switch n := s[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Float returns a float64 signal value, or 0 if not found.
func (s Signals) Float(key string) float64 {
	switch n := s[key].(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

// Bool returns a bool signal value, or false if not found.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// ---------------------------------------------------------------------------
// Input types
// ---------------------------------------------------------------------------

// SignalsInput is an input struct for handlers that receive Datastar signals.
type SignalsInput struct {
	RawBody []byte
}

// MustParse parses signals or returns a Huma 400 error.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}

// ---------------------------------------------------------------------------
// Rendering helpers
// ---------------------------------------------------------------------------

// RenderList renders each item with tmpl, or the "empty-state" fragment when
// there are none.
func RenderList(r *Renderer, tmpl string, items []any, emptyTitle, emptyMsg string) (template.HTML, error) {
	var buf bytes.Buffer
	if len(items) == 0 {
		err := r.Execute(&buf, "empty-state", map[string]string{
			"Title": emptyTitle, "Message": emptyMsg,
		})
		return template.HTML(buf.String()), err
	}
	for _, item := range items {
		if err := r.Execute(&buf, tmpl, item); err != nil {
			return "", fmt.Errorf("render %s: %w", tmpl, err)
		}
	}
	return template.HTML(buf.String()), nil
}
