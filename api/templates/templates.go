// Package templates holds the catalog of preset pages an author can start from.
package templates

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/local/coursebuilder/api/elements"
)

//go:embed catalog.yaml
var catalogYAML []byte

var ErrNotFound = errors.New("template not found")

// Template describes one catalog entry. Elements are decoded fresh on every
// Get, so callers own what they receive.
type Template struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Count       int    `json:"elementCount"`

	raw []byte
}

type Catalog struct {
	order []string
	byKey map[string]Template
}

type catalogFile struct {
	Templates []struct {
		Name        string           `yaml:"name"`
		Title       string           `yaml:"title"`
		Description string           `yaml:"description"`
		Elements    []map[string]any `yaml:"elements"`
	} `yaml:"templates"`
}

// Load parses a YAML catalog. Element payloads go through the same JSON
// codec as saved courses, so presets and persisted pages look alike.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]Template)}
	for _, t := range file.Templates {
		if t.Name == "" {
			return nil, fmt.Errorf("template without name")
		}
		if _, dup := c.byKey[t.Name]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.Name)
		}
		raw, err := json.Marshal(t.Elements)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		list, err := elements.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		c.order = append(c.order, t.Name)
		c.byKey[t.Name] = Template{
			Name:        t.Name,
			Title:       t.Title,
			Description: t.Description,
			Count:       len(list),
			raw:         raw,
		}
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// List returns the templates in catalog order.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byKey[name])
	}
	return out
}

func (c *Catalog) Names() []string {
	return append([]string{}, c.order...)
}

// Get returns a fresh copy of the preset elements of name.
func (c *Catalog) Get(name string) ([]elements.Element, error) {
	t, ok := c.byKey[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return elements.Decode(t.raw)
}

// Suggest picks a starting template for imported course text: pages that
// read like corporate training get "business", project write-ups get
// "portfolio", everything else "basic".
func Suggest(text string) string {
	lower := strings.ToLower(text)
	score := func(words ...string) int {
		n := 0
		for _, w := range words {
			n += strings.Count(lower, w)
		}
		return n
	}

	business := score("policy", "compliance", "procedure", "employee", "training", "customer")
	portfolio := score("project", "portfolio", "case study", "design", "client")

	switch {
	case business == 0 && portfolio == 0:
		return "basic"
	case business >= portfolio:
		return "business"
	default:
		return "portfolio"
	}
}
