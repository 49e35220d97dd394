package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type pgConversationRepository struct {
	db *gorm.DB
}

func NewPGConversationRepository(db *gorm.DB) ConversationRepository {
	return &pgConversationRepository{db: db}
}

func (r *pgConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *pgConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *pgConversationRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("(member_a = ? AND member_b = ?) OR (member_a = ? AND member_b = ?)", a, b, b, a).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *pgConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("member_a = ? OR member_b = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *pgConversationRepository) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("last_message_at", at).
		Error
}

type pgMessageRepository struct {
	db *gorm.DB
}

func NewPGMessageRepository(db *gorm.DB) MessageRepository {
	return &pgMessageRepository{db: db}
}

func (r *pgMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *pgMessageRepository) ListPage(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]model.Message, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
