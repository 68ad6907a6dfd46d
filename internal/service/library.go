package service

import (
	"strings"

	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/pattern"
)

// LoadLibrary returns the pattern catalog for the pipeline: the built-in
// tables, optionally overridden from a YAML file, with the tracked persons
// from config replacing the default roster.
func LoadLibrary(cfg config.PipelineConfig) (*pattern.Library, error) {
	lib := pattern.Default()
	if cfg.PatternsFile != "" {
		loaded, err := pattern.Load(cfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		lib = loaded
	}
	if len(cfg.TrackedPersons) > 0 {
		persons := make([]pattern.Person, 0, len(cfg.TrackedPersons))
		for _, name := range cfg.TrackedPersons {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			persons = append(persons, pattern.NewPerson(name))
		}
		lib.Persons = persons
	}
	return lib, nil
}
