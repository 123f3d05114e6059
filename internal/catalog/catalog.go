package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed actions.yaml
var defaultCatalog []byte

// Action is one logical robot action from the catalog. The catalog is loaded
// once at startup and never mutated afterwards.
type Action struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name,omitempty"`
	Category  string `yaml:"category"`
	// Group is the dispatch surface ("drive", "camera") fed by the composed
	// axis position. AxisGroup and HatGroup are the binding namespaces an
	// analog axis or hat can be attached to.
	Group     string `yaml:"group,omitempty"`
	AxisGroup string `yaml:"axis_group,omitempty"`
	HatGroup  string `yaml:"hat_group,omitempty"`
	// AxisName is "x" or "y" for button-as-axis actions.
	AxisName  string   `yaml:"axis_name,omitempty"`
	Needs     string   `yaml:"needs,omitempty"`
	DownValue *float64 `yaml:"down_value,omitempty"`
	UpValue   *float64 `yaml:"up_value,omitempty"`
	// Commands are literal outbound command payloads forwarded verbatim when
	// the action fires.
	Commands []map[string]any `yaml:"commands,omitempty"`
}

// Down returns the axis contribution while the bound button or key is held.
func (a *Action) Down() float64 {
	if a.DownValue != nil {
		return *a.DownValue
	}
	return 1.0
}

// Up returns the axis contribution after release.
func (a *Action) Up() float64 {
	if a.UpValue != nil {
		return *a.UpValue
	}
	return 0.0
}

// IsAxis reports whether the action contributes to a composed axis group
// instead of firing discretely.
func (a *Action) IsAxis() bool {
	return a.AxisGroup != "" && a.Group != "" && a.AxisName != ""
}

// DisplayName returns the human readable name, derived from the id when the
// catalog does not carry one.
func (a *Action) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	parts := strings.Split(a.ID, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Catalog is the immutable registry of logical actions.
type Catalog struct {
	actions []Action
	byID    map[string]*Action
}

type catalogFile struct {
	Actions []Action `yaml:"actions"`
}

// Load reads the action catalog from path, or the embedded default catalog
// when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read action catalog: %w", err)
		}
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse action catalog: %w", err)
	}

	c := &Catalog{
		actions: file.Actions,
		byID:    make(map[string]*Action, len(file.Actions)),
	}
	for i := range c.actions {
		a := &c.actions[i]
		if a.ID == "" {
			return nil, fmt.Errorf("action %d has no id", i)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate action id %q", a.ID)
		}
		if a.AxisName != "" && a.AxisName != "x" && a.AxisName != "y" {
			return nil, fmt.Errorf("action %q: axis_name must be x or y", a.ID)
		}
		if a.AxisName != "" && a.Group == "" {
			return nil, fmt.Errorf("action %q: axis_name requires a group", a.ID)
		}
		c.byID[a.ID] = a
	}
	return c, nil
}

// ByID returns the action with the given id, or nil.
func (c *Catalog) ByID(id string) *Action {
	return c.byID[id]
}

// All returns the actions in catalog order.
func (c *Catalog) All() []Action {
	return c.actions
}

// ByCategory groups the actions by their category, preserving catalog order
// within each category.
func (c *Catalog) ByCategory() map[string][]Action {
	out := make(map[string][]Action)
	for _, a := range c.actions {
		cat := a.Category
		if cat == "" {
			cat = "unknown"
		}
		out[cat] = append(out[cat], a)
	}
	return out
}

// AxisGroupActions returns all actions that are members of the named axis
// group.
func (c *Catalog) AxisGroupActions(group string) []Action {
	var out []Action
	for _, a := range c.actions {
		if a.AxisGroup == group {
			out = append(out, a)
		}
	}
	return out
}

// HatGroupActions returns all actions that are members of the named hat
// group.
func (c *Catalog) HatGroupActions(group string) []Action {
	var out []Action
	for _, a := range c.actions {
		if a.HatGroup == group {
			out = append(out, a)
		}
	}
	return out
}
