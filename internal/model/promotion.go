package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionStatus string

const (
	PromotionStatusPending   PromotionStatus = "pending"
	PromotionStatusActive    PromotionStatus = "active"
	PromotionStatusFailed    PromotionStatus = "failed"
	PromotionStatusCompleted PromotionStatus = "completed"
)

type PromotionMode string

const (
	PromotionModeImpressions PromotionMode = "impressions"
	PromotionModeEngagement  PromotionMode = "engagement"
)

type Promotion struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatorID uuid.UUID     `gorm:"type:uuid;not null;index" json:"creator_id"`
	EventID   *uuid.UUID    `gorm:"type:uuid;index" json:"event_id,omitempty"`
	Title     string        `gorm:"type:varchar(200);not null" json:"title"`
	Mode      PromotionMode `gorm:"type:varchar(20);not null" json:"mode"`

	Budget            float64  `gorm:"not null" json:"budget"`
	BidAmount         float64  `gorm:"not null" json:"bid_amount"`
	AudienceInterests []string `gorm:"type:jsonb;serializer:json" json:"audience_interests"`

	EstimatedReach int     `json:"estimated_reach"`
	EstimatedCost  float64 `json:"estimated_cost"`

	CreditsApplied float64 `json:"credits_applied"`
	AmountCharged  float64 `json:"amount_charged"`
	Currency       string  `gorm:"type:varchar(3);not null" json:"currency"`
	ChargeID       *string `gorm:"type:varchar(100)" json:"charge_id,omitempty"`

	Status    PromotionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Promotion) TableName() string { return "promotions" }
