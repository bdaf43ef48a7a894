package humastar

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

// TemplatePatterns are the globs parsed from a web filesystem: full pages
// first, then the fragments patched in over SSE.
var TemplatePatterns = []string{"templates/*.html", "templates/fragments/*.html"}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer manages page and fragment templates.
type Renderer struct {
	fsys      fs.FS
	templates *template.Template
	defined   map[string]string
	mu        sync.RWMutex
}

// New parses TemplatePatterns from fsys.
func New(fsys fs.FS) (*Renderer, error) {
	tmpl, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, templates: tmpl, defined: map[string]string{}}, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	tmpl := template.New("").Funcs(funcMap)
	for _, pattern := range TemplatePatterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFS(fsys, pattern); err != nil {
			return nil, fmt.Errorf("parse %s: %w", pattern, err)
		}
	}
	return tmpl, nil
}

// Define registers a named template from source text generated at runtime.
// Definitions survive Reload.
func (r *Renderer) Define(name, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := fmt.Sprintf(`{{define %q}}%s{{end}}`, name, text)
	if _, err := r.templates.Parse(src); err != nil {
		return fmt.Errorf("define %s: %w", name, err)
	}
	r.defined[name] = src
	return nil
}

// Has reports whether a template with the given name exists.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.Lookup(name) != nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Reload re-parses templates from the filesystem (useful for dev hot-reload
// when serving from an on-disk web directory).
func (r *Renderer) Reload() error {
	tmpl, err := parse(r.fsys)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, src := range r.defined {
		if _, err := tmpl.Parse(src); err != nil {
			return fmt.Errorf("define %s: %w", name, err)
		}
	}
	r.templates = tmpl
	return nil
}
