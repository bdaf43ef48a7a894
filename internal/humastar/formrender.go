// formrender.go — Runtime HTML form generation from OpenAPI schemas.
//
// At server startup, RegisterFormTemplates walks schemas with x-datastar
// extensions and builds Datastar-bound HTML form fragments:
//
//	string                    → <input type="text">
//	string + enum             → <select> with options
//	string + x-input:"number" → <input type="number"> bounded by x-min/x-max
//	boolean                   → <input type="checkbox">
//	number/integer            → <input type="number"> with min/max/step
//
// Fields are laid out by x-order, then required-first alphabetical.
// Each form is registered as a named template (e.g. "crop-form") in the
// Renderer.
package humastar

import (
	"cmp"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterFormTemplates walks OpenAPI schemas with x-datastar extensions and
// registers form templates in the Renderer.
//
// Call after InjectExtensions and before serving pages.
func RegisterFormTemplates(api huma.API, r *Renderer) error {
	schemas := api.OpenAPI().Components.Schemas.Map()

	for _, schema := range schemas {
		ds, ok := schema.Extensions["x-datastar"].(DatastarSchema)
		if !ok || ds.FormTmpl == "" {
			continue
		}
		if err := r.Define(ds.FormTmpl, renderFormHTML(schema, ds)); err != nil {
			return err
		}
	}
	return nil
}

// FormField describes one rendered input.
type FormField struct {
	Name     string // json name
	Signal   string
	ID       string
	Label    string
	Required bool
	Min, Max *float64
}

// FormFields lists the inputs of a schema in on-screen order.
func FormFields(schema *huma.Schema, ds DatastarSchema) []FormField {
	var fields []FormField
	for _, jsonName := range orderedPropertyNames(schema) {
		prop := schema.Properties[jsonName]
		label := prop.Description
		if label == "" {
			label = jsonName
		}
		f := FormField{
			Name:     jsonName,
			Signal:   signalName(ds.Prefix, jsonName, prop),
			Label:    label,
			Required: slices.Contains(schema.Required, jsonName),
			Min:      extFloat(prop, "x-min", prop.Minimum),
			Max:      extFloat(prop, "x-max", prop.Maximum),
		}
		if ds.IDSuffix != "" {
			f.ID = jsonName + ds.IDSuffix
		}
		fields = append(fields, f)
	}
	return fields
}

// renderFormHTML builds the HTML form groups for a schema.
func renderFormHTML(schema *huma.Schema, ds DatastarSchema) string {
	var b strings.Builder

	for _, f := range FormFields(schema, ds) {
		prop := schema.Properties[f.Name]
		xInput, _ := prop.Extensions["x-input"].(string)

		switch {
		case prop.Type == "boolean":
			renderCheckbox(&b, f)
		case len(prop.Enum) > 0:
			renderEnumSelect(&b, f, prop)
		case xInput == "number", prop.Type == "number", prop.Type == "integer":
			renderNumberInput(&b, f, prop)
		default:
			renderTextInput(&b, f, prop)
		}
	}

	return b.String()
}

func openGroup(b *strings.Builder, f FormField) {
	b.WriteString(`<div class="form-group">`)
	if f.ID != "" {
		fmt.Fprintf(b, "\n    <label for=\"%s\">%s</label>\n", f.ID, html.EscapeString(f.Label))
	} else {
		fmt.Fprintf(b, "\n    <label>%s</label>\n", html.EscapeString(f.Label))
	}
}

func writeCommon(b *strings.Builder, f FormField) {
	if f.ID != "" {
		fmt.Fprintf(b, ` id="%s"`, f.ID)
	}
	fmt.Fprintf(b, ` name="%s" data-bind:%s`, f.Name, f.Signal)
}

func renderTextInput(b *strings.Builder, f FormField, prop *huma.Schema) {
	openGroup(b, f)
	b.WriteString(`    <input type="text"`)
	writeCommon(b, f)
	if prop.Default != nil {
		fmt.Fprintf(b, ` placeholder="%v"`, prop.Default)
	}
	if f.Required {
		b.WriteString(` required`)
	}
	b.WriteString(">\n</div>\n")
}

func renderNumberInput(b *strings.Builder, f FormField, prop *huma.Schema) {
	openGroup(b, f)
	b.WriteString(`    <input type="number"`)
	writeCommon(b, f)
	if f.Min != nil {
		fmt.Fprintf(b, ` min="%g"`, *f.Min)
	}
	if f.Max != nil {
		fmt.Fprintf(b, ` max="%g"`, *f.Max)
	}
	if prop.Type == "integer" {
		b.WriteString(` step="1"`)
	} else {
		b.WriteString(` step="any"`)
	}
	if f.Min != nil && f.Max != nil {
		fmt.Fprintf(b, ` placeholder="%g-%g"`, *f.Min, *f.Max)
	} else if prop.Default != nil {
		fmt.Fprintf(b, ` placeholder="%v"`, prop.Default)
	}
	if f.Required {
		b.WriteString(` required`)
	}
	b.WriteString(">\n</div>\n")
}

func renderCheckbox(b *strings.Builder, f FormField) {
	b.WriteString(`<div class="form-group">`)
	// Checkboxes: unchecked is a valid state, never mark required
	b.WriteString("\n    <label><input type=\"checkbox\"")
	writeCommon(b, f)
	fmt.Fprintf(b, "> %s</label>\n</div>\n", html.EscapeString(f.Label))
}

func renderEnumSelect(b *strings.Builder, f FormField, prop *huma.Schema) {
	openGroup(b, f)
	b.WriteString(`    <select`)
	writeCommon(b, f)
	if f.Required {
		b.WriteString(` required`)
	}
	b.WriteString(">\n")
	for _, v := range prop.Enum {
		fmt.Fprintf(b, "        <option value=\"%v\">%v</option>\n", v, v)
	}
	b.WriteString("    </select>\n</div>\n")
}

// orderedPropertyNames returns form property names sorted by x-order; ties
// and unordered fields fall back to required first, then alphabetical.
// Meta ($schema) and non-primitive properties are skipped.
func orderedPropertyNames(schema *huma.Schema) []string {
	var names []string
	for name, prop := range schema.Properties {
		if strings.HasPrefix(name, "$") || prop.Type == "array" || prop.Type == "object" {
			continue
		}
		names = append(names, name)
	}
	rank := func(name string) int {
		if o, ok := schema.Properties[name].Extensions["x-order"].(int); ok {
			return o
		}
		return 1 << 20
	}
	reqRank := func(name string) int {
		if slices.Contains(schema.Required, name) {
			return 0
		}
		return 1
	}
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(rank(a), rank(b)),
			cmp.Compare(reqRank(a), reqRank(b)),
			strings.Compare(a, b),
		)
	})
	return names
}

func extFloat(prop *huma.Schema, key string, fallback *float64) *float64 {
	if v, ok := prop.Extensions[key].(float64); ok {
		return &v
	}
	return fallback
}
