package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MemberA       uuid.UUID `gorm:"type:uuid;not null;index" json:"member_a"`
	MemberB       uuid.UUID `gorm:"type:uuid;not null;index" json:"member_b"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Members reports both participants; order is not meaningful.
func (c Conversation) Members() [2]uuid.UUID {
	return [2]uuid.UUID{c.MemberA, c.MemberB}
}

// HasMember reports whether the given user participates in the conversation.
func (c Conversation) HasMember(userID uuid.UUID) bool {
	return c.MemberA == userID || c.MemberB == userID
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
