package localgen

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bodies.yaml
var builtinTable []byte

// Body is one selectable object with the prompt tokens that select it.
type Body struct {
	Key           string   `yaml:"key"`
	Name          string   `yaml:"name"`
	Parent        string   `yaml:"parent"`
	RotationSpeed float64  `yaml:"rotation_speed"`
	Aliases       []string `yaml:"aliases"`
	// NotBefore lists suffixes that cancel an alias match when they follow it
	// directly, e.g. 라 so that 달 does not match inside 보여달라.
	NotBefore []string `yaml:"not_before"`
}

// Table is the ordered alias table. Order is the catalog order used for output.
type Table struct {
	SystemTokens []string `yaml:"system_tokens"`
	Bodies       []Body   `yaml:"bodies"`
}

// DefaultTable returns the built-in solar system table.
func DefaultTable() Table {
	t, err := parseTable(builtinTable)
	if err != nil {
		panic(fmt.Sprintf("localgen: builtin table: %v", err))
	}
	return t
}

// LoadTable reads a table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read alias table: %w", err)
	}
	return parseTable(data)
}

func parseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse alias table: %w", err)
	}
	return t, t.validate()
}

func (t Table) validate() error {
	if len(t.Bodies) == 0 {
		return fmt.Errorf("alias table has no bodies")
	}
	seen := make(map[string]bool, len(t.Bodies))
	for _, b := range t.Bodies {
		key := strings.ToLower(strings.TrimSpace(b.Key))
		if key == "" {
			return fmt.Errorf("body without key")
		}
		if seen[key] {
			return fmt.Errorf("duplicate body key %q", key)
		}
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("body %q has no name", key)
		}
		seen[key] = true
	}
	for _, b := range t.Bodies {
		if b.Parent != "" && !seen[strings.ToLower(b.Parent)] {
			return fmt.Errorf("body %q has unknown parent %q", b.Key, b.Parent)
		}
	}
	return nil
}
