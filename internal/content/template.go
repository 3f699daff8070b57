// Package content defines entity templates: the data-driven descriptions the
// directory instantiates entities from. Templates are loaded once at startup
// from YAML; the simulation only ever resolves them by key.
package content

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDefinition is returned when a template key cannot be resolved.
// Spawns from loaded content (maps, scripts) treat this as skip-and-log;
// authoring-time callers treat it as fatal.
var ErrUnknownDefinition = errors.New("unknown entity definition")

// Resolver is what the entity directory needs from the content layer.
type Resolver interface {
	Resolve(key string) (*Template, error)
}

// ModuleSpec configures one module of a template. Kind selects the registered
// module factory; the remaining fields are parameters individual kinds pick
// from, flat so the YAML stays declarative.
type ModuleSpec struct {
	Kind string `yaml:"kind"`

	HP            int     `yaml:"hp"`
	Speed         float64 `yaml:"speed"`
	IntervalTicks uint64  `yaml:"interval_ticks"`
	Amount        int     `yaml:"amount"`
	LifeTicks     uint64  `yaml:"life_ticks"`
	Mesh          string  `yaml:"mesh"`
	Material      string  `yaml:"material"`
	WanderRadius  float64 `yaml:"wander_radius"`
	MinIdleTicks  uint64  `yaml:"min_idle_ticks"`
	MaxIdleTicks  uint64  `yaml:"max_idle_ticks"`
}

// Template describes one entity definition: its key and the ordered list of
// modules an instance is built from. Module order is fixed here; slot indices
// in a live entity correspond to positions in this list.
type Template struct {
	Key     string       `yaml:"key"`
	Modules []ModuleSpec `yaml:"modules"`
}

// Table indexes templates by key.
type Table struct {
	byKey map[string]*Template
	keys  []string
}

// Resolve returns the template for key, or ErrUnknownDefinition.
func (t *Table) Resolve(key string) (*Template, error) {
	tpl, ok := t.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, key)
	}
	return tpl, nil
}

// Keys returns all template keys in sorted order.
func (t *Table) Keys() []string { return t.keys }

// Count returns the number of templates loaded.
func (t *Table) Count() int { return len(t.byKey) }

type templateFile struct {
	Templates []*Template `yaml:"templates"`
}

// LoadTable reads a template table from a YAML file. Duplicate keys and
// templates without modules are rejected outright; a table that loads is a
// table the directory can trust at spawn time.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}
	return NewTable(file.Templates)
}

// NewTable builds a table from already-decoded templates, validating as
// LoadTable does. Used directly by tests and embedded content.
func NewTable(templates []*Template) (*Table, error) {
	t := &Table{byKey: make(map[string]*Template, len(templates))}
	for _, tpl := range templates {
		if tpl.Key == "" {
			return nil, errors.New("template with empty key")
		}
		if _, dup := t.byKey[tpl.Key]; dup {
			return nil, fmt.Errorf("duplicate template key %q", tpl.Key)
		}
		if len(tpl.Modules) == 0 {
			return nil, fmt.Errorf("template %q has no modules", tpl.Key)
		}
		if len(tpl.Modules) > 255 {
			return nil, fmt.Errorf("template %q has %d modules, limit is 255", tpl.Key, len(tpl.Modules))
		}
		for i, m := range tpl.Modules {
			if m.Kind == "" {
				return nil, fmt.Errorf("template %q module %d has no kind", tpl.Key, i)
			}
		}
		t.byKey[tpl.Key] = tpl
		t.keys = append(t.keys, tpl.Key)
	}
	sort.Strings(t.keys)
	return t, nil
}
