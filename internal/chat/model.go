package chat

import (
	"time"

	"github.com/gofrs/uuid"
)

// Chat is a conversation optionally tied to an order, store or worker.
// LastMessage is a denormalized copy of the newest message content.
type Chat struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     *uuid.UUID `json:"order_id"`
	StoreID     *uuid.UUID `json:"store_id"`
	WorkerID    *uuid.UUID `json:"worker_id"`
	Title       *string    `json:"title"`
	LastMessage *string    `json:"last_message"`
	UnreadCount int        `json:"unread_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Message struct {
	ID          int64     `json:"id"`
	ChatID      uuid.UUID `json:"chat_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	SenderRole  *string   `json:"sender_role"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessagePage holds messages oldest first.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

type SendInput struct {
	SenderID    *uuid.UUID
	SenderRole  *string
	Content     string
	MessageType string
}
