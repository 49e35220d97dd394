package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)

	// FindBetween returns the conversation between two users regardless of
	// member ordering, or gorm.ErrRecordNotFound.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error)
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error

	// ListPage returns messages newest-first; page is zero-based.
	ListPage(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]model.Message, error)
}
