package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/cache"
	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/repository"
)

const defaultCacheTTL = time.Minute

type Service interface {
	StartConversation(ctx context.Context, userID, otherID uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, page int) ([]model.Message, error)
	SendMessage(ctx context.Context, userID, conversationID uuid.UUID, body string) (*model.Message, error)
	Subscribe(ctx context.Context, userID, conversationID uuid.UUID) (<-chan Event, func(), error)
}

type service struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	store    cache.Store
	bus      Bus
	cacheTTL time.Duration
	pageSize int
	logger   *zap.Logger
}

func NewService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	store cache.Store,
	bus Bus,
	cacheTTL time.Duration,
	pageSize int,
	logger *zap.Logger,
) Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &service{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		store:    store,
		bus:      bus,
		cacheTTL: cacheTTL,
		pageSize: pageSize,
		logger:   logger,
	}
}

func userConvsKey(userID uuid.UUID) string {
	return "user:" + userID.String() + ":conversations"
}

func convMessagesKey(conversationID uuid.UUID, page int) string {
	return fmt.Sprintf("conv:%s:messages:%d", conversationID, page)
}

func (s *service) StartConversation(ctx context.Context, userID, otherID uuid.UUID) (*model.Conversation, error) {
	if userID == otherID {
		return nil, ErrSelfConversation
	}

	existing, err := s.convRepo.FindBetween(ctx, userID, otherID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	conv := &model.Conversation{MemberA: userID, MemberB: otherID, LastMessageAt: time.Now()}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.invalidateUser(ctx, userID)
	s.invalidateUser(ctx, otherID)
	return conv, nil
}

// ListConversations serves from cache when fresh; the store is an
// optimization only and a miss always falls through to the repository.
func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	key := userConvsKey(userID)
	if convs, ok := cache.GetJSON[[]model.Conversation](ctx, s.store, key, s.cacheTTL); ok {
		return convs, nil
	}

	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if err := cache.SetJSON(ctx, s.store, key, convs, s.cacheTTL); err != nil {
		s.logger.Warn("conversation cache write failed", zap.Error(err))
	}
	return convs, nil
}

func (s *service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, page int) ([]model.Message, error) {
	if _, err := s.memberConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}

	key := convMessagesKey(conversationID, page)
	if msgs, ok := cache.GetJSON[[]model.Message](ctx, s.store, key, s.cacheTTL); ok {
		return msgs, nil
	}

	msgs, err := s.msgRepo.ListPage(ctx, conversationID, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if err := cache.SetJSON(ctx, s.store, key, msgs, s.cacheTTL); err != nil {
		s.logger.Warn("message cache write failed", zap.Error(err))
	}
	return msgs, nil
}

func (s *service) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, body string) (*model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	conv, err := s.memberConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{ConversationID: conversationID, SenderID: userID, Body: body}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.convRepo.TouchLastMessage(ctx, conversationID, msg.CreatedAt); err != nil {
		s.logger.Warn("touch last message failed",
			zap.String("conversation_id", conversationID.String()), zap.Error(err))
	}

	// Fan out invalidation to every cached view touching this conversation.
	s.invalidatePrefix(ctx, "conv:"+conversationID.String()+":")
	s.invalidateUser(ctx, conv.MemberA)
	s.invalidateUser(ctx, conv.MemberB)

	if err := s.bus.Publish(ctx, Event{ConversationID: conversationID, Message: *msg}); err != nil {
		s.logger.Warn("change-feed publish failed",
			zap.String("conversation_id", conversationID.String()), zap.Error(err))
	}
	return msg, nil
}

func (s *service) Subscribe(ctx context.Context, userID, conversationID uuid.UUID) (<-chan Event, func(), error) {
	if _, err := s.memberConversation(ctx, userID, conversationID); err != nil {
		return nil, nil, err
	}
	return s.bus.Subscribe(ctx, conversationID)
}

func (s *service) memberConversation(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !conv.HasMember(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *service) invalidateUser(ctx context.Context, userID uuid.UUID) {
	s.invalidatePrefix(ctx, "user:"+userID.String()+":")
}

func (s *service) invalidatePrefix(ctx context.Context, prefix string) {
	if err := s.store.InvalidateByPrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}
