// pagedata.go — Reverse mapping: OpenAPI document → page template data.
//
// BuildPageData extracts everything a page template needs:
//   - Signals JSON (data-signals init from schema defaults + UI state)
//   - Routes (SSE endpoints under the schema's base path, keyed by suffix)
//   - FormTmpl name (for {{template "crop-form" .}})
//
// This is the reverse of formrender.go: instead of schema → HTML fields,
// it's schema → template variables so the HTML never hardcodes URLs or
// signal names.
package humastar

import (
	"encoding/json"
	"maps"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData holds everything a page template needs from the OpenAPI document.
type PageData struct {
	// Signals is the JSON string for data-signals initialization.
	// Includes schema reset values + UI state signals.
	Signals string

	// Routes maps a path suffix relative to the base path to the full path,
	// e.g. Routes["predict"] = "/api/v1/ui/crop/predict".
	Routes map[string]string

	// FormTmpl is the template name for the form fragment.
	FormTmpl string
}

// Route returns the path registered under suffix, or "".
func (pd PageData) Route(suffix string) string {
	return pd.Routes[suffix]
}

// BuildPageData builds template data for a schema from the OpenAPI document.
func BuildPageData(api huma.API, cfg DatastarSchemaConfig, uiSignals map[string]any) PageData {
	signals := ResetSignals(api, cfg)
	maps.Copy(signals, uiSignals)
	signalsJSON, _ := json.Marshal(signals)

	return PageData{
		Signals:  string(signalsJSON),
		Routes:   discoverRoutes(api, cfg.BasePath),
		FormTmpl: cfg.FormTmpl,
	}
}

// ResetSignals produces the initial signal values from the OpenAPI schema.
// Fields without a default start at their type's zero value.
func ResetSignals(api huma.API, cfg DatastarSchemaConfig) map[string]any {
	signals := map[string]any{}
	schema, ok := api.OpenAPI().Components.Schemas.Map()[cfg.Type.Name()]
	if !ok {
		return signals
	}

	t := cfg.Type
	for i := range t.NumField() {
		jsonName := jsonFieldName(t.Field(i))
		if jsonName == "" {
			continue
		}
		prop, ok := schema.Properties[jsonName]
		if !ok || prop.Type == "array" || prop.Type == "object" {
			continue
		}

		signal := signalName(cfg.Prefix, jsonName, prop)
		if prop.Default != nil {
			signals[signal] = prop.Default
			continue
		}
		switch prop.Type {
		case "boolean":
			signals[signal] = false
		case "number", "integer":
			signals[signal] = 0
		default:
			signals[signal] = ""
		}
	}
	return signals
}

// discoverRoutes finds API routes under basePath by walking OpenAPI paths.
func discoverRoutes(api huma.API, basePath string) map[string]string {
	routes := map[string]string{}
	if basePath == "" {
		return routes
	}
	for path := range api.OpenAPI().Paths {
		suffix, ok := strings.CutPrefix(path, basePath)
		if !ok {
			continue
		}
		suffix = strings.Trim(suffix, "/")
		if suffix == "" {
			suffix = "."
		}
		routes[suffix] = path
	}
	return routes
}
