package pattern

import (
	"fmt"

	"github.com/xxxsen/unmask/internal/model"
)

// Library is the full rule catalog consumed by the classifier and the chunk annotator.
// Rule slices are ordered; families evaluated with first-match semantics rely on that order.
type Library struct {
	Persons              []Person
	PersonContexts       []Rule[PersonContext]
	DefaultPersonContext Rule[PersonContext]
	ExPatterns           []Pattern
	ExContexts           []Rule[ExContext]
	DefaultExContext     Rule[ExContext]
	ReferenceBonuses     []Modifier

	Emotions           []Rule[Emotion]
	Conflicts          []Rule[ConflictPhase]
	ConflictAmplifiers []Modifier
	Dynamics           []Rule[Dynamic]
	LengthBuckets      []Bucket

	ContextFamilies   []Rule[model.ContextType]
	EmotionalKeywords Pattern
	Emoji             Pattern
}

// PersonContextsFor returns the person context rules with {name} bound to name.
func (l *Library) PersonContextsFor(name string) []Rule[PersonContext] {
	out := make([]Rule[PersonContext], 0, len(l.PersonContexts))
	for _, r := range l.PersonContexts {
		out = append(out, r.bind(name))
	}
	return out
}

func (l *Library) Validate() error {
	if len(l.LengthBuckets) == 0 || l.LengthBuckets[len(l.LengthBuckets)-1].Below != 0 {
		return fmt.Errorf("length buckets must end with an unbounded bucket")
	}
	if l.EmotionalKeywords.IsZero() || l.Emoji.IsZero() {
		return fmt.Errorf("emotional keyword and emoji patterns are required")
	}
	if err := validateScores(l.Emotions); err != nil {
		return err
	}
	if err := validateScores(l.Conflicts); err != nil {
		return err
	}
	if err := validateScores(l.PersonContexts); err != nil {
		return err
	}
	if err := validateScores(l.ExContexts); err != nil {
		return err
	}
	if err := validateScores([]Rule[PersonContext]{l.DefaultPersonContext}); err != nil {
		return err
	}
	return validateScores([]Rule[ExContext]{l.DefaultExContext})
}

func validateScores[L ~string](rules []Rule[L]) error {
	for _, r := range rules {
		if r.Score < MinScore || r.Score > MaxScore {
			return fmt.Errorf("rule %s: score %d out of range [%d,%d]", r.Label, r.Score, MinScore, MaxScore)
		}
	}
	return nil
}

// Default returns the built-in catalog.
func Default() *Library {
	return &Library{
		Persons: []Person{NewPerson("chris", "christopher")},
		PersonContexts: []Rule[PersonContext]{
			{Label: PersonComparisonThreat, Score: 8, Patterns: Phrases("like {name}", "unlike", "better than", "compared to", "wish you were", "he would")},
			{Label: PersonJealousyInsecurity, Score: 7, Patterns: Phrases("jealous", "worried", "uncomfortable", "bothers")},
			{Label: PersonSocialPersonal, Score: 5, Patterns: Phrases("dinner", "hang", "see", "visit", "house", "home")},
			{Label: PersonSupportAdvice, Score: 3, Patterns: Phrases("advice", "help", "support", "opinion")},
			{Label: PersonWorkRelated, Score: 2, Patterns: Phrases("work", "business", "company", "meeting", "client", "project")},
		},
		DefaultPersonContext: Rule[PersonContext]{Label: PersonGeneralMention, Score: 1},
		ExPatterns: []Pattern{
			MustRegex(`\bex\b`),
			MustRegex(`\bex[-\s]?boyfriend\b`),
			MustRegex(`\bex[-\s]?girlfriend\b`),
			MustRegex(`\bex[-\s]?bf\b`),
			MustRegex(`\bformer\s+boyfriend\b`),
			MustRegex(`\bpast\s+relationship\b`),
			MustRegex(`\b(my|your|his|her|their|the)\s+x\b`),
		},
		ExContexts: []Rule[ExContext]{
			{Label: ExVisitationConcern, Score: 7, Patterns: Phrases("house", "visit", "see", "hang")},
			{Label: ExComparisonReference, Score: 6, Patterns: Phrases("compare", "better", "different")},
			{Label: ExRelationshipHistory, Score: 3, Patterns: Phrases("past", "history", "before")},
		},
		DefaultExContext: Rule[ExContext]{Label: ExGeneralReference, Score: 2},
		ReferenceBonuses: []Modifier{
			{Name: "affection", Points: 2, Patterns: Phrases("love", "care about", "important")},
			{Name: "distress", Points: 3, Patterns: Phrases("angry", "upset", "hurt")},
			{Name: "trust", Points: 1, Patterns: Phrases("trust", "loyal")},
		},
		Emotions: []Rule[Emotion]{
			{Label: EmotionLove, Score: 8, Valence: model.ValencePositive, Patterns: Phrases("love you", "i love", "love u", "❤️", "💕", "💖")},
			{Label: EmotionAffection, Score: 6, Valence: model.ValencePositive, Patterns: Phrases("babe", "baby", "honey", "sweetheart", "dear")},
			{Label: EmotionAnger, Score: 7, Valence: model.ValenceNegative, Patterns: Phrases("angry", "mad", "pissed", "furious", "fuck", "shit")},
			{Label: EmotionSadness, Score: 6, Valence: model.ValenceNegative, Patterns: Phrases("sad", "hurt", "cry", "upset", "disappointed", "😢", "💔")},
			{Label: EmotionAnxiety, Score: 5, Valence: model.ValenceNegative, Patterns: Phrases("worried", "anxious", "scared", "nervous", "stressed")},
			{Label: EmotionExcitement, Score: 6, Valence: model.ValencePositive, Patterns: Phrases("excited", "amazing", "awesome", "great", "🎉", "😄")},
		},
		Conflicts: []Rule[ConflictPhase]{
			{Label: ConflictDirect, Score: 8, Patterns: Phrases("argue", "fight", "mad at", "angry with", "pissed at")},
			{Label: ConflictApology, Score: 4, Patterns: Phrases("sorry", "apologize", "my fault", "i was wrong")},
			{Label: ConflictDefense, Score: 6, Patterns: Phrases("not my fault", "you always", "you never", "unfair")},
			{Label: ConflictEscalation, Score: 9, Patterns: Phrases("done with this", "tired of", "sick of", "had enough")},
			{Label: ConflictResolution, Score: 3, Patterns: Phrases("make up", "work it out", "talk about it", "figure this out")},
		},
		ConflictAmplifiers: []Modifier{
			{Name: "absolute", Points: 2, Patterns: Phrases("always", "never")},
			{Name: "profanity", Points: 1, Patterns: Phrases("fuck", "shit")},
			{Name: "exclamation", Points: 1, Patterns: Phrases("!"), MinCount: 3},
		},
		Dynamics: []Rule[Dynamic]{
			{Label: DynamicPursuit, Patterns: Phrases("miss you", "miss u", "when can", "want to see")},
			{Label: DynamicDistancing, Patterns: Phrases("need space", "busy", "later", "maybe")},
		},
		LengthBuckets: []Bucket{
			{Label: LengthShort, Below: 20},
			{Label: LengthMedium, Below: 100},
			{Label: LengthLong},
		},
		ContextFamilies: []Rule[model.ContextType]{
			{Label: model.ContextIntimate, Patterns: []Pattern{WordSet("love", "miss", "baby", "babe", "honey", "sweetheart", "kiss", "hug", "cuddle")}},
			{Label: model.ContextConflict, Patterns: []Pattern{WordSet("sorry", "upset", "angry", "frustrated", "hurt", "disappointed", "argue", "fight")}},
			{Label: model.ContextSupport, Patterns: []Pattern{WordSet("proud", "support", "help", "there for you", "understand", "care")}},
			{Label: model.ContextPlanning, Patterns: []Pattern{WordSet("tomorrow", "tonight", "weekend", "plan", "meet", "dinner", "date", "schedule")}},
			{Label: model.ContextWork, Patterns: []Pattern{WordSet("work", "meeting", "office", "client", "project", "deadline", "boss")}},
			{Label: model.ContextDailyCheckIn, Patterns: []Pattern{WordSet("how are", "how was", "what's up", "hey", "morning", "night")}},
		},
		EmotionalKeywords: WordSet("love", "hate", "miss", "need", "want", "hurt", "happy", "sad", "angry", "excited", "worried", "scared"),
		Emoji:             MustRegex(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`),
	}
}
