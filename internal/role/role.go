// Package role loads the caller profiles that parameterise the chat pipeline.
//
// A profile decides whether a caller must identify themselves, which access
// level is echoed in responses and which prompt fragments frame the data
// assistant. Profiles and the shared prompt text live in roles.yaml, embedded
// at build time.
package role

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in profile names.
const (
	Standard = "standard"
	Manager  = "manager"
	HR       = "hr"
)

const callerPlaceholder = "{{caller}}"

//go:embed roles.yaml
var defaultCatalog []byte

// Example is a few-shot pair shown to the model.
type Example struct {
	User     string `yaml:"user"`
	Note     string `yaml:"note"`
	Response string `yaml:"response"`
}

// Profile configures the pipeline for one class of caller.
type Profile struct {
	Name            string    `yaml:"-"`
	RequireIdentity bool      `yaml:"require_identity"`
	AccessLevel     string    `yaml:"access_level"`
	Role            string    `yaml:"role"`
	Access          []string  `yaml:"access"`
	DataRules       []string  `yaml:"data_rules"`
	GeneralRules    []string  `yaml:"general_rules"`
	BestPractices   []string  `yaml:"best_practices"`
	Examples        []Example `yaml:"examples"`
}

// AccessLines renders the access section for a caller, or nil if the profile has none.
func (p Profile) AccessLines(caller string) []string {
	if len(p.Access) == 0 {
		return nil
	}
	out := make([]string, len(p.Access))
	for i, line := range p.Access {
		out[i] = strings.ReplaceAll(line, callerPlaceholder, caller)
	}
	return out
}

// Handbook holds the fixed text for policy answers.
type Handbook struct {
	Title        string   `yaml:"title"`
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	System       string   `yaml:"system"`
	Instructions []string `yaml:"instructions"`
}

// SchemaHints are appended to the generated schema description.
type SchemaHints struct {
	ColumnMeanings []string `yaml:"column_meanings"`
	Notes          []string `yaml:"notes"`
}

// FormatHints are the instructions of the result formatting prompt.
type FormatHints struct {
	Instructions []string `yaml:"instructions"`
}

// Catalog is the parsed roles.yaml.
type Catalog struct {
	Handbook        Handbook           `yaml:"handbook"`
	Schema          SchemaHints        `yaml:"schema"`
	Format          FormatHints        `yaml:"format"`
	ContextHandling []string           `yaml:"context_handling"`
	Profiles        map[string]Profile `yaml:"profiles"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(c.Profiles) == 0 {
		return nil, fmt.Errorf("role catalog defines no profiles")
	}
	for name, p := range c.Profiles {
		if p.Role == "" {
			return nil, fmt.Errorf("profile %q: role text is required", name)
		}
		if len(p.DataRules) == 0 {
			return nil, fmt.Errorf("profile %q: at least one data rule is required", name)
		}
		p.Name = name
		c.Profiles[name] = p
	}
	return &c, nil
}

// Profile returns the named profile.
func (c *Catalog) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// Names lists the profile names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
