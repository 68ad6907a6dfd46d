package chunk

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/model"
)

func TestAnnotateIntimateExchange(t *testing.T) {
	msgs := []model.Message{
		at(1, 0, "A", "miss you"),
		at(2, 5*time.Minute, "", "me too babe"),
	}
	chunks, err := Segment(msgs, DefaultOptions())
	require.NoError(t, err)
	out := NewAnnotator(nil).AnnotateAll(chunks)
	require.Len(t, out, 1)
	require.Equal(t, model.ContextIntimate, out[0].ContextType)
	require.Equal(t, "A", out[0].PrimarySender)
	require.Equal(t, 5, out[0].EmotionalIntensity)
	require.Equal(t, "Date: 2023-03-04\nConversation:\nA: miss you\nMe: me too babe", out[0].Text)
}

func TestContextTypeTieBreak(t *testing.T) {
	a := NewAnnotator(nil)
	tests := []struct {
		name   string
		texts  []string
		expect model.ContextType
	}{
		{name: "intimate beats conflict", texts: []string{"sorry", "love"}, expect: model.ContextIntimate},
		{name: "conflict beats work", texts: []string{"boss", "upset"}, expect: model.ContextConflict},
		{name: "support beats planning", texts: []string{"tomorrow", "proud"}, expect: model.ContextSupport},
		{name: "planning beats daily check in", texts: []string{"hey", "dinner"}, expect: model.ContextPlanning},
		{name: "work beats daily check in", texts: []string{"morning", "deadline"}, expect: model.ContextWork},
		{name: "higher count wins", texts: []string{"hey", "how are you", "good morning", "love"}, expect: model.ContextDailyCheckIn},
		{name: "quick exchange", texts: []string{"ok", "sure"}, expect: model.ContextQuickExchange},
		{name: "general conversation by size", texts: []string{"ok", "sure", "yes", "fine"}, expect: model.ContextGeneralConversation},
		{name: "general conversation by length", texts: []string{strings.Repeat("blah ", 12)}, expect: model.ContextGeneralConversation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := make([]model.Message, 0, len(tt.texts))
			for i, text := range tt.texts {
				msgs = append(msgs, at(int64(i+1), time.Duration(i)*time.Minute, "A", text))
			}
			require.Equal(t, tt.expect, a.ContextType(msgs))
		})
	}
}

func TestEmotionalIntensity(t *testing.T) {
	a := NewAnnotator(nil)
	tests := []struct {
		name   string
		msgs   []model.Message
		expect int
	}{
		{name: "baseline", msgs: []model.Message{at(1, 0, "A", "ok")}, expect: 3},
		{name: "emoji capped", msgs: []model.Message{at(1, 0, "A", "🎉🎉🎉🎉🎉🎉🎉🎉")}, expect: 5},
		{name: "long message", msgs: []model.Message{at(1, 0, "A", strings.Repeat("a", 150))}, expect: 5},
		{name: "very long message", msgs: []model.Message{at(1, 0, "A", strings.Repeat("a", 250))}, expect: 6},
		{name: "keywords capped", msgs: []model.Message{at(1, 0, "A", strings.Repeat("love hate ", 10))}, expect: 5},
		{
			name: "all factors clamp",
			msgs: []model.Message{
				at(1, 0, "A", strings.Repeat("love hurt 😢 ", 30)),
				at(2, time.Minute, "B", strings.Repeat("miss need 💔 ", 30)),
			},
			expect: 10,
		},
		{name: "empty", msgs: nil, expect: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expect, a.EmotionalIntensity(tt.msgs))
		})
	}
}

func TestEmotionalIntensityEngagement(t *testing.T) {
	a := NewAnnotator(nil)
	alternating := []model.Message{
		at(1, 0, "A", "a"), at(2, time.Minute, "B", "b"), at(3, 2*time.Minute, "A", "c"), at(4, 3*time.Minute, "B", "d"),
	}
	require.Equal(t, 5, a.EmotionalIntensity(alternating))
	oneSided := []model.Message{
		at(1, 0, "A", "a"), at(2, time.Minute, "A", "b"), at(3, 2*time.Minute, "A", "c"), at(4, 3*time.Minute, "B", "d"),
	}
	require.Equal(t, 3, a.EmotionalIntensity(oneSided))
}

func TestPrimarySender(t *testing.T) {
	require.Equal(t, "B", PrimarySender([]model.Message{at(1, 0, "A", "x"), at(2, 0, "B", "x"), at(3, 0, "B", "x")}))
	require.Equal(t, "A", PrimarySender([]model.Message{at(1, 0, "A", "x"), at(2, 0, "B", "x")}))
	require.Equal(t, model.OwnerSender, PrimarySender([]model.Message{at(1, 0, "", "x"), at(2, 0, "A", "x")}))
	require.Equal(t, "", PrimarySender(nil))
}

func TestRenderAttachment(t *testing.T) {
	m := at(1, 0, "", "look at this")
	m.Attachment = "IMG_0001.HEIC"
	require.Equal(t, "Date: 2023-03-04\nConversation:\nMe: look at this [Attachment: IMG_0001.HEIC]", Render([]model.Message{m}))
}
