package model

import (
	"strings"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "Incoming"
	DirectionOutgoing Direction = "Outgoing"
)

// OwnerSender is the display name used when a message carries no sender.
const OwnerSender = "Me"

type Message struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Sender     string    `json:"sender"`
	Direction  Direction `json:"direction"`
	Text       string    `json:"message"`
	Attachment string    `json:"attachment,omitempty"`
	Ctime      int64     `json:"ctime"`
}

func (m *Message) DisplaySender() string {
	if strings.TrimSpace(m.Sender) == "" {
		return OwnerSender
	}
	return m.Sender
}

func (m *Message) HasText() bool {
	return strings.TrimSpace(m.Text) != ""
}

type MessagePage struct {
	Items []Message `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}
