package model

import "time"

type ContextType string

const (
	ContextIntimate            ContextType = "intimate"
	ContextConflict            ContextType = "conflict"
	ContextSupport             ContextType = "support"
	ContextPlanning            ContextType = "planning"
	ContextWork                ContextType = "work"
	ContextDailyCheckIn        ContextType = "daily_check_in"
	ContextQuickExchange       ContextType = "quick_exchange"
	ContextGeneralConversation ContextType = "general_conversation"
)

// Chunk is a contiguous window of messages treated as one retrieval unit.
// Messages is only populated while a run is in flight; storage keeps MessageIDs.
type Chunk struct {
	ID                 string      `json:"id"`
	Seq                int         `json:"seq"`
	Messages           []Message   `json:"-"`
	MessageIDs         []int64     `json:"message_ids"`
	SpanStart          time.Time   `json:"span_start"`
	SpanEnd            time.Time   `json:"span_end"`
	ContextType        ContextType `json:"context_type"`
	EmotionalIntensity int         `json:"emotional_intensity"`
	PrimarySender      string      `json:"primary_sender"`
	HasAttachment      bool        `json:"has_attachment"`
	Text               string      `json:"text"`
	Ctime              int64       `json:"ctime"`
}

func (c *Chunk) MessageCount() int {
	if len(c.Messages) > 0 {
		return len(c.Messages)
	}
	return len(c.MessageIDs)
}
