package rule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the textual form of a transformation as found in rule files.
type Definition struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// File is the layout of a YAML rule file:
//
//	name: my-rules
//	rules:
//	  - name: double-negation
//	    pattern: "!!$a"
//	    replacement: "$a"
type File struct {
	Name  string       `yaml:"name"`
	Rules []Definition `yaml:"rules"`
}

// Load reads a rule file without compiling it.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	return f, nil
}

// LoadSet reads and compiles a rule file. The set is named after the file's
// name field, or the path when that is empty.
func LoadSet(path string) (Set, error) {
	f, err := Load(path)
	if err != nil {
		return Set{}, err
	}
	name := f.Name
	if name == "" {
		name = path
	}
	return Compile(name, f.Rules)
}

// Compile turns definitions into a rule set, failing on the first malformed
// definition.
func Compile(name string, defs []Definition) (Set, error) {
	rules := make([]*Transformation, 0, len(defs))
	for i, def := range defs {
		ruleName := def.Name
		if ruleName == "" {
			ruleName = fmt.Sprintf("rule-%d", i+1)
		}
		t, err := Parse(ruleName, def.Pattern, def.Replacement)
		if err != nil {
			return Set{}, err
		}
		rules = append(rules, t)
	}
	return NewSet(name, rules...), nil
}

// Definitions converts a set back into its textual form.
func (s Set) Definitions() []Definition {
	defs := make([]Definition, len(s.Rules))
	for i, r := range s.Rules {
		defs[i] = Definition{
			Name:        r.Name,
			Pattern:     r.Input.String(),
			Replacement: r.Output.String(),
		}
	}
	return defs
}

// Marshal renders the set as a YAML rule file.
func (s Set) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Name: s.Name, Rules: s.Definitions()})
}
