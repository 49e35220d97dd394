package model

import (
	"time"

	"github.com/google/uuid"
)

type CreditTransactionType string

const (
	CreditTxGrant      CreditTransactionType = "grant"      // admin/promotional credit allocation
	CreditTxPromotion  CreditTransactionType = "promotion"  // spend on a promotion
	CreditTxRefund     CreditTransactionType = "refund"     // returned after a failed charge
	CreditTxAdjustment CreditTransactionType = "adjustment" // manual admin correction
)

// CreditTransaction is an append-only ledger row. Amount is positive for
// credits and negative for debits; BalanceAfter snapshots the running balance.
type CreditTransaction struct {
	ID           uuid.UUID             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID             `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         CreditTransactionType `gorm:"type:varchar(20);not null" json:"type"`
	Amount       float64               `gorm:"not null" json:"amount"`
	BalanceAfter float64               `gorm:"not null" json:"balance_after"`
	PromotionID  *uuid.UUID            `gorm:"type:uuid;index" json:"promotion_id,omitempty"`
	Description  string                `gorm:"type:varchar(200)" json:"description"`
	CreatedAt    time.Time             `json:"created_at"`
}

func (CreditTransaction) TableName() string { return "credit_transactions" }
