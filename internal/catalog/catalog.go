// Package catalog holds the static description and image of every label the
// recommendation model can emit.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// ErrUnknownLabel is returned for a label that is not in the catalog.
var ErrUnknownLabel = errors.New("unrecognized label")

// Entry is the static content shown for one label.
type Entry struct {
	Label       string `yaml:"label" json:"label" doc:"Crop label" example:"rice"`
	Description string `yaml:"description" json:"description" doc:"Human-readable description"`
	Image       string `yaml:"image" json:"image" doc:"Image URL" example:"/static/images/crops/rice.jpg"`
}

type document struct {
	Crops []Entry `yaml:"crops"`
}

// Catalog is an immutable label lookup. Safe for concurrent use.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog from a YAML file. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Labels must be unique and non-empty.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{index: make(map[string]int, len(doc.Crops))}
	for _, e := range doc.Crops {
		key := normalize(e.Label)
		if key == "" {
			return nil, errors.New("catalog entry without label")
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("duplicate catalog label %q", e.Label)
		}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Lookup returns the entry for a label, matching case-insensitively.
func (c *Catalog) Lookup(label string) (Entry, error) {
	i, ok := c.index[normalize(label)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return c.entries[i], nil
}

// Len returns the number of labels.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// List returns a page of entries in catalog order.
func (c *Catalog) List(offset, limit int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.entries) || limit <= 0 {
		return []Entry{}
	}
	end := min(offset+limit, len(c.entries))
	out := make([]Entry, end-offset)
	copy(out, c.entries[offset:end])
	return out
}

// MarshalYAML writes the catalog back in its document form.
func (c *Catalog) MarshalYAML() (any, error) {
	return document{Crops: c.entries}, nil
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
