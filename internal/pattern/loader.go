package pattern

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileRule struct {
	Label    string   `yaml:"label"`
	Score    int      `yaml:"score"`
	Patterns []string `yaml:"patterns"`
}

type filePerson struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type libraryFile struct {
	Persons        []filePerson `yaml:"persons"`
	PersonContexts []fileRule   `yaml:"person_contexts"`
	ExPatterns     []string     `yaml:"ex_patterns"`
	ExContexts     []fileRule   `yaml:"ex_contexts"`
	Emotions       []fileRule   `yaml:"emotions"`
	Conflicts      []fileRule   `yaml:"conflicts"`
	Dynamics       []fileRule   `yaml:"dynamics"`
}

// Load reads a YAML override file and merges it over Default. Entries may only
// adjust existing labels; new labels are rejected.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	return LoadBytes(data)
}

func LoadBytes(data []byte) (*Library, error) {
	var f libraryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode pattern file: %w", err)
	}
	lib := Default()
	if len(f.Persons) > 0 {
		persons := make([]Person, 0, len(f.Persons))
		for _, p := range f.Persons {
			if p.Name == "" {
				return nil, fmt.Errorf("person name is required")
			}
			persons = append(persons, NewPerson(p.Name, p.Aliases...))
		}
		lib.Persons = persons
	}
	if len(f.ExPatterns) > 0 {
		patterns, err := parseAll(f.ExPatterns)
		if err != nil {
			return nil, fmt.Errorf("ex_patterns: %w", err)
		}
		lib.ExPatterns = patterns
	}
	if err := overrideRules("person_contexts", lib.PersonContexts, f.PersonContexts); err != nil {
		return nil, err
	}
	if err := overrideRules("ex_contexts", lib.ExContexts, f.ExContexts); err != nil {
		return nil, err
	}
	if err := overrideRules("emotions", lib.Emotions, f.Emotions); err != nil {
		return nil, err
	}
	if err := overrideRules("conflicts", lib.Conflicts, f.Conflicts); err != nil {
		return nil, err
	}
	if err := overrideRules("dynamics", lib.Dynamics, f.Dynamics); err != nil {
		return nil, err
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func overrideRules[L ~string](family string, rules []Rule[L], entries []fileRule) error {
	for _, entry := range entries {
		idx := -1
		for i := range rules {
			if string(rules[i].Label) == entry.Label {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%s: unknown label %q", family, entry.Label)
		}
		if entry.Score > 0 {
			rules[idx].Score = entry.Score
		}
		if len(entry.Patterns) > 0 {
			patterns, err := parseAll(entry.Patterns)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", family, entry.Label, err)
			}
			rules[idx].Patterns = patterns
		}
	}
	return nil
}

func parseAll(items []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(items))
	for _, item := range items {
		p, err := Parse(item)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
