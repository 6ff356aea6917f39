package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	DefaultType      = "text"
)

type Service interface {
	ListChats(ctx context.Context, page, limit int) ([]Chat, error)
	ListMessages(ctx context.Context, chatID uuid.UUID, before int64, limit int) (*MessagePage, error)
	SendMessage(ctx context.Context, chatID uuid.UUID, input SendInput) (*Message, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

func (s *service) ListChats(ctx context.Context, page, limit int) ([]Chat, error) {
	limit = clampLimit(limit)
	chats, err := s.repo.ListChats(ctx, limit, db.Offset(page, limit))
	if err != nil {
		log.Error().Err(err).Msg("chat: failed to list chats")
		return nil, apperr.Internal("Failed to fetch chats", err)
	}
	return chats, nil
}

// ListMessages pages backwards from before. One extra row is read to tell
// whether older messages remain.
func (s *service) ListMessages(ctx context.Context, chatID uuid.UUID, before int64, limit int) (*MessagePage, error) {
	if before < 0 {
		return nil, apperr.Validation("before must be a message id")
	}
	limit = clampLimit(limit)

	messages, err := s.repo.ListMessages(ctx, chatID, before, limit+1)
	if err != nil {
		log.Error().Err(err).Stringer("chat_id", chatID).Msg("chat: failed to list messages")
		return nil, apperr.Internal("Failed to fetch messages", err)
	}

	page := &MessagePage{HasMore: len(messages) > limit}
	if page.HasMore {
		messages = messages[:limit]
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	page.Messages = messages
	return page, nil
}

// SendMessage stores the message and then refreshes the chat's last_message.
// That refresh is best-effort and never fails the send.
func (s *service) SendMessage(ctx context.Context, chatID uuid.UUID, input SendInput) (*Message, error) {
	content := strings.TrimSpace(input.Content)
	if input.SenderID == nil || content == "" {
		return nil, apperr.Validation("Missing sender or content")
	}

	m := &Message{
		ChatID:      chatID,
		SenderID:    *input.SenderID,
		SenderRole:  input.SenderRole,
		Content:     input.Content,
		MessageType: input.MessageType,
	}
	if m.MessageType == "" {
		m.MessageType = DefaultType
	}

	if err := s.repo.InsertMessage(ctx, m); err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return nil, apperr.NotFound("Chat not found")
		}
		log.Error().Err(err).Stringer("chat_id", chatID).Msg("chat: failed to send message")
		return nil, apperr.Internal("Failed to send message", err)
	}

	if err := s.repo.SetLastMessage(ctx, chatID, m.Content); err != nil {
		log.Warn().Err(err).Stringer("chat_id", chatID).Msg("chat: last_message not refreshed")
	}

	return m, nil
}
