package pattern

import "github.com/xxxsen/unmask/internal/model"

// Rule is one labelled entry of a rule family.
type Rule[L ~string] struct {
	Label    L
	Patterns []Pattern
	Score    int
	Valence  model.Valence
}

func (r Rule[L]) Match(lower string) bool {
	return AnyMatch(r.Patterns, lower)
}

func (r Rule[L]) Count(lower string) int {
	return CountAll(r.Patterns, lower)
}

func (r Rule[L]) bind(name string) Rule[L] {
	patterns := make([]Pattern, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		patterns = append(patterns, p.bind(name))
	}
	r.Patterns = patterns
	return r
}

// FirstMatch scans rules top-down and returns the first one that matches.
func FirstMatch[L ~string](rules []Rule[L], lower string) (Rule[L], bool) {
	for _, r := range rules {
		if r.Match(lower) {
			return r, true
		}
	}
	var zero Rule[L]
	return zero, false
}

// Modifier adds Points when its patterns fire. With MinCount set, the summed
// occurrence count must reach MinCount instead of a single match.
type Modifier struct {
	Name     string
	Patterns []Pattern
	Points   int
	MinCount int
}

func (m Modifier) Apply(lower string) int {
	if m.MinCount > 0 {
		if CountAll(m.Patterns, lower) >= m.MinCount {
			return m.Points
		}
		return 0
	}
	if AnyMatch(m.Patterns, lower) {
		return m.Points
	}
	return 0
}

func ApplyAll(mods []Modifier, lower string) int {
	total := 0
	for _, m := range mods {
		total += m.Apply(lower)
	}
	return total
}

type Bucket struct {
	Label LengthBucket
	Below int
}

// Person is a tracked third party recognised by name or alias on word boundaries.
type Person struct {
	Name    string
	Aliases []string
	pattern Pattern
}

func NewPerson(name string, aliases ...string) Person {
	words := append([]string{name}, aliases...)
	return Person{Name: name, Aliases: aliases, pattern: WordSet(words...)}
}

func (p Person) Match(lower string) bool {
	return p.pattern.Match(lower)
}
