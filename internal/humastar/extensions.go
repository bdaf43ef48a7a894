// extensions.go — Injects x-datastar extensions into OpenAPI schemas.
//
// At server startup, InjectExtensions walks registered schemas and adds:
//   - x-datastar (per-schema): prefix, formTemplate, idSuffix
//   - x-signal, x-input, x-order, x-min, x-max (per-property): from Go struct tags
//
// These extensions make the OpenAPI document carry all Datastar metadata, so
// the form renderer and the page data builder read it from there instead of
// re-walking struct tags.
package humastar

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// DatastarSchema defines per-schema Datastar metadata.
// This is injected as the "x-datastar" extension on OpenAPI schemas.
type DatastarSchema struct {
	Prefix   string `json:"prefix"`       // Signal prefix, may be empty
	FormTmpl string `json:"formTemplate"` // HTML template name (e.g. "crop-form")
	IDSuffix string `json:"idSuffix"`     // Appended to the json name to form the input id
}

// DatastarSchemaConfig registers a Go type for Datastar extensions.
type DatastarSchemaConfig struct {
	Type     reflect.Type
	Prefix   string // Signal prefix
	FormTmpl string // Template name (e.g. "crop-form")
	IDSuffix string // e.g. "-crop-input"
	BasePath string // API path prefix for route discovery (e.g. "/api/v1/ui/crop")
}

// InjectExtensions walks the OpenAPI schema registry and adds x-datastar and
// per-property extensions from Go struct tags.
// Call after all routes are registered so schemas exist.
func InjectExtensions(api huma.API, configs []DatastarSchemaConfig) {
	schemas := api.OpenAPI().Components.Schemas.Map()

	for _, cfg := range configs {
		schema, ok := schemas[cfg.Type.Name()]
		if !ok {
			continue
		}

		if schema.Extensions == nil {
			schema.Extensions = map[string]any{}
		}
		schema.Extensions["x-datastar"] = DatastarSchema{
			Prefix:   cfg.Prefix,
			FormTmpl: cfg.FormTmpl,
			IDSuffix: cfg.IDSuffix,
		}

		injectPropertyExtensions(schema, cfg.Type)
	}
}

func injectPropertyExtensions(schema *huma.Schema, t reflect.Type) {
	for i := range t.NumField() {
		sf := t.Field(i)

		jsonName := jsonFieldName(sf)
		if jsonName == "" {
			continue
		}
		prop, ok := schema.Properties[jsonName]
		if !ok {
			continue
		}

		ext := map[string]any{}
		if sig := sf.Tag.Get("signal"); sig != "" {
			ext["x-signal"] = sig
		}
		if inp := sf.Tag.Get("input"); inp != "" {
			ext["x-input"] = inp
		}
		if order, err := strconv.Atoi(sf.Tag.Get("order")); err == nil {
			ext["x-order"] = order
		}
		if v, err := strconv.ParseFloat(sf.Tag.Get("min"), 64); err == nil {
			ext["x-min"] = v
		}
		if v, err := strconv.ParseFloat(sf.Tag.Get("max"), 64); err == nil {
			ext["x-max"] = v
		}

		if len(ext) > 0 {
			if prop.Extensions == nil {
				prop.Extensions = map[string]any{}
			}
			for k, v := range ext {
				prop.Extensions[k] = v
			}
		}
	}
}

// jsonFieldName returns the json name of a struct field, or "" when skipped.
func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// signalName is prefix + (x-signal override or lowercase json name).
func signalName(prefix, jsonName string, prop *huma.Schema) string {
	if sig, ok := prop.Extensions["x-signal"].(string); ok {
		return prefix + sig
	}
	return prefix + strings.ToLower(jsonName)
}
