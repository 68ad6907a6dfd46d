package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExPatternsWordBoundary(t *testing.T) {
	lib := Default()
	tests := []struct {
		name  string
		text  string
		match bool
	}{
		{name: "bare ex", text: "my ex called", match: true},
		{name: "ex boyfriend hyphen", text: "the ex-boyfriend again", match: true},
		{name: "exbf", text: "talked to my exbf", match: true},
		{name: "former boyfriend", text: "a former  boyfriend", match: true},
		{name: "possessive x", text: "her x was there", match: true},
		{name: "exit", text: "take the exit", match: false},
		{name: "example", text: "for example", match: false},
		{name: "algebra x", text: "solve for x", match: false},
		{name: "x marks", text: "x marks the spot", match: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.match, AnyMatch(lib.ExPatterns, tt.text))
		})
	}
}

func TestPatternCount(t *testing.T) {
	p := WordSet("love", "miss")
	require.Equal(t, 3, p.Count("love you, miss you, love"))
	require.Equal(t, 0, p.Count("lovely missing"))
	require.Equal(t, 4, Phrase("!").Count("!!!!"))
	require.Equal(t, 0, Pattern{}.Count("anything"))
	require.False(t, Pattern{}.Match("anything"))
}

func TestParse(t *testing.T) {
	p, err := Parse(`regex:\bhey\b`)
	require.NoError(t, err)
	require.True(t, p.Match("HEY there"))
	require.False(t, p.Match("they"))
	require.Equal(t, `regex:\bhey\b`, p.String())

	p, err = Parse("Miss You")
	require.NoError(t, err)
	require.True(t, p.Match("i miss you"))

	_, err = Parse("regex:(")
	require.Error(t, err)
	_, err = Parse("  ")
	require.Error(t, err)
}

func TestFirstMatchOrder(t *testing.T) {
	rules := Default().PersonContextsFor("chris")
	r, ok := FirstMatch(rules, "he is better than you and i'm jealous")
	require.True(t, ok)
	require.Equal(t, PersonComparisonThreat, r.Label)

	r, ok = FirstMatch(rules, "you are not like chris")
	require.True(t, ok)
	require.Equal(t, PersonComparisonThreat, r.Label)

	r, ok = FirstMatch(rules, "dinner at work")
	require.True(t, ok)
	require.Equal(t, PersonSocialPersonal, r.Label)

	_, ok = FirstMatch(rules, "nothing here")
	require.False(t, ok)
}

func TestModifier(t *testing.T) {
	m := Modifier{Points: 1, Patterns: Phrases("!"), MinCount: 3}
	require.Equal(t, 0, m.Apply("hi!!"))
	require.Equal(t, 1, m.Apply("hi!!!"))
	require.Equal(t, 1, m.Apply("a! b! c!"))
	require.Equal(t, 5, ApplyAll(Default().ReferenceBonuses, "i love him but i'm upset"))
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadBytes(t *testing.T) {
	lib, err := LoadBytes([]byte(`
persons:
  - name: jordan
    aliases: [jo]
emotions:
  - label: love
    score: 9
    patterns: ["xoxo", "regex:\\bily\\b"]
`))
	require.NoError(t, err)
	require.Len(t, lib.Persons, 1)
	require.True(t, lib.Persons[0].Match("saw jo today"))
	require.False(t, lib.Persons[0].Match("joke"))
	require.Equal(t, EmotionLove, lib.Emotions[0].Label)
	require.Equal(t, 9, lib.Emotions[0].Score)
	require.True(t, lib.Emotions[0].Match("ily"))
	require.False(t, lib.Emotions[0].Match("love you"))
}

func TestLoadBytesRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown label", data: "emotions:\n  - label: boredom\n    patterns: [meh]\n"},
		{name: "unknown field", data: "colors: [red]\n"},
		{name: "score out of range", data: "conflicts:\n  - label: apology\n    score: 11\n"},
		{name: "bad regex", data: "ex_patterns: [\"regex:(\"]\n"},
		{name: "missing person name", data: "persons:\n  - aliases: [a]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.data))
			require.Error(t, err)
		})
	}
}
