package service

import (
	"context"
	"strings"

	"github.com/xxxsen/unmask/internal/model"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type messagePager interface {
	Page(ctx context.Context, search string, limit, offset int) ([]model.Message, int64, error)
	Get(ctx context.Context, id int64) (*model.Message, error)
}

type tagLister interface {
	ListByMessage(ctx context.Context, messageID int64) ([]model.Tag, error)
}

type MessageDetail struct {
	Message model.Message `json:"message"`
	Tags    []model.Tag   `json:"tags"`
}

type MessageService struct {
	messages messagePager
	tags     tagLister
}

func NewMessageService(messages messagePager, tags tagLister) *MessageService {
	return &MessageService{messages: messages, tags: tags}
}

// List pages through the feed in timestamp order. page starts at 1.
func (s *MessageService) List(ctx context.Context, page, limit int, search string) (*model.MessagePage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	limit = min(limit, maxPageLimit)
	items, total, err := s.messages.Page(ctx, strings.TrimSpace(search), limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &model.MessagePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *MessageService) Get(ctx context.Context, id int64) (*MessageDetail, error) {
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MessageDetail{Message: *msg, Tags: tags}, nil
}
