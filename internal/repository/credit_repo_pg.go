package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type pgCreditRepository struct {
	db *gorm.DB
}

func NewPGCreditRepository(db *gorm.DB) CreditRepository {
	return &pgCreditRepository{db: db}
}

func (r *pgCreditRepository) Balance(ctx context.Context, userID uuid.UUID) (float64, error) {
	var balance float64
	err := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return balance, err
}

func (r *pgCreditRepository) Append(ctx context.Context, tx *model.CreditTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		// Serialize per-user ledger writes so the overdraft check and
		// BalanceAfter are decided against a stable balance.
		if err := dbtx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))", tx.UserID.String(),
		).Error; err != nil {
			return err
		}

		var balance float64
		if err := dbtx.
			Model(&model.CreditTransaction{}).
			Where("user_id = ?", tx.UserID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&balance).Error; err != nil {
			return err
		}

		if tx.Amount < 0 && balance+tx.Amount < 0 {
			return ErrInsufficientCredits
		}

		tx.BalanceAfter = balance + tx.Amount
		return dbtx.Create(tx).Error
	})
}

func (r *pgCreditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error) {
	var txs []model.CreditTransaction
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
