package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	regexPrefix     = "regex:"
	namePlaceholder = "{name}"
)

// Pattern matches lowercased text either as a plain substring or, when
// built from a regular expression, case-insensitively with that expression.
type Pattern struct {
	phrase string
	re     *regexp.Regexp
}

func Phrase(s string) Pattern {
	return Pattern{phrase: strings.ToLower(s)}
}

func Regex(expr string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

func MustRegex(expr string) Pattern {
	p, err := Regex(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse reads the textual form used in pattern files: "regex:<expr>" for a
// regular expression, anything else is a substring phrase.
func Parse(s string) (Pattern, error) {
	if strings.HasPrefix(s, regexPrefix) {
		return Regex(strings.TrimPrefix(s, regexPrefix))
	}
	if strings.TrimSpace(s) == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	return Phrase(s), nil
}

func (p Pattern) IsZero() bool {
	return p.phrase == "" && p.re == nil
}

func (p Pattern) Match(lower string) bool {
	if p.re != nil {
		return p.re.MatchString(lower)
	}
	if p.phrase == "" {
		return false
	}
	return strings.Contains(lower, p.phrase)
}

// Count returns the number of non-overlapping occurrences in lower.
func (p Pattern) Count(lower string) int {
	if p.re != nil {
		return len(p.re.FindAllStringIndex(lower, -1))
	}
	if p.phrase == "" {
		return 0
	}
	return strings.Count(lower, p.phrase)
}

func (p Pattern) String() string {
	if p.re != nil {
		return regexPrefix + strings.TrimPrefix(p.re.String(), "(?i)")
	}
	return p.phrase
}

// bind substitutes the {name} placeholder of a phrase pattern.
func (p Pattern) bind(name string) Pattern {
	if p.re != nil || !strings.Contains(p.phrase, namePlaceholder) {
		return p
	}
	return Phrase(strings.ReplaceAll(p.phrase, namePlaceholder, name))
}

func AnyMatch(patterns []Pattern, lower string) bool {
	for _, p := range patterns {
		if p.Match(lower) {
			return true
		}
	}
	return false
}

func CountAll(patterns []Pattern, lower string) int {
	total := 0
	for _, p := range patterns {
		total += p.Count(lower)
	}
	return total
}

func Phrases(items ...string) []Pattern {
	out := make([]Pattern, 0, len(items))
	for _, item := range items {
		out = append(out, Phrase(item))
	}
	return out
}

// WordSet builds one word-bounded pattern matching any of the given words.
func WordSet(words ...string) Pattern {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
	}
	return MustRegex(`\b(` + strings.Join(quoted, "|") + `)\b`)
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
