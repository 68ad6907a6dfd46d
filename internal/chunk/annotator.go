package chunk

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pattern"
)

const (
	baselineIntensity   = 3.0
	emojiWeight         = 0.5
	emojiCap            = 2.0
	longAverage         = 100
	longBonus           = 1.5
	veryLongAverage     = 200
	veryLongBonus       = 1.0
	keywordWeight       = 0.3
	keywordCap          = 2.0
	engagementRatio     = 0.7
	engagementBonus     = 1.5
	quickExchangeSize   = 3
	quickExchangeLength = 50
)

type Annotation struct {
	ContextType        model.ContextType `json:"context_type"`
	EmotionalIntensity int               `json:"emotional_intensity"`
	PrimarySender      string            `json:"primary_sender"`
	Text               string            `json:"text"`
}

type Annotator struct {
	lib *pattern.Library
}

func NewAnnotator(lib *pattern.Library) *Annotator {
	if lib == nil {
		lib = pattern.Default()
	}
	return &Annotator{lib: lib}
}

func (a *Annotator) Annotate(c model.Chunk) Annotation {
	return Annotation{
		ContextType:        a.ContextType(c.Messages),
		EmotionalIntensity: a.EmotionalIntensity(c.Messages),
		PrimarySender:      PrimarySender(c.Messages),
		Text:               Render(c.Messages),
	}
}

// AnnotateAll returns copies of chunks with their annotation fields filled in.
func (a *Annotator) AnnotateAll(chunks []model.Chunk) []model.Chunk {
	out := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		ann := a.Annotate(c)
		c.ContextType = ann.ContextType
		c.EmotionalIntensity = ann.EmotionalIntensity
		c.PrimarySender = ann.PrimarySender
		c.Text = ann.Text
		out = append(out, c)
	}
	return out
}

// ContextType picks the family with the most keyword hits; ties go to the
// earlier family.
func (a *Annotator) ContextType(msgs []model.Message) model.ContextType {
	lower := strings.ToLower(joinText(msgs))
	best := -1
	bestCount := 0
	for i, fam := range a.lib.ContextFamilies {
		n := fam.Count(lower)
		if n > bestCount {
			best, bestCount = i, n
		}
	}
	if best >= 0 {
		return a.lib.ContextFamilies[best].Label
	}
	if len(msgs) <= quickExchangeSize && averageLength(msgs) < quickExchangeLength {
		return model.ContextQuickExchange
	}
	return model.ContextGeneralConversation
}

func (a *Annotator) EmotionalIntensity(msgs []model.Message) int {
	if len(msgs) == 0 {
		return pattern.MinScore
	}
	text := joinText(msgs)
	score := baselineIntensity
	score += math.Min(float64(a.lib.Emoji.Count(text))*emojiWeight, emojiCap)
	avg := averageLength(msgs)
	if avg > longAverage {
		score += longBonus
	}
	if avg > veryLongAverage {
		score += veryLongBonus
	}
	score += math.Min(float64(a.lib.EmotionalKeywords.Count(strings.ToLower(text)))*keywordWeight, keywordCap)
	if n := len(msgs); n > 1 && float64(senderChanges(msgs)) > engagementRatio*float64(n-1) {
		score += engagementBonus
	}
	return pattern.Clamp(int(math.Round(score)), pattern.MinScore, pattern.MaxScore)
}

// PrimarySender returns the most frequent display sender, ties resolved by
// first appearance.
func PrimarySender(msgs []model.Message) string {
	counts := make(map[string]int, 2)
	order := make([]string, 0, 2)
	for i := range msgs {
		s := msgs[i].DisplaySender()
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
	}
	best := ""
	for _, s := range order {
		if best == "" || counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

func senderChanges(msgs []model.Message) int {
	changes := 0
	for i := 1; i < len(msgs); i++ {
		if msgs[i].DisplaySender() != msgs[i-1].DisplaySender() {
			changes++
		}
	}
	return changes
}

func averageLength(msgs []model.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	total := 0
	for i := range msgs {
		total += utf8.RuneCountInString(msgs[i].Text)
	}
	return float64(total) / float64(len(msgs))
}

func joinText(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for i := range msgs {
		parts = append(parts, msgs[i].Text)
	}
	return strings.Join(parts, " ")
}
