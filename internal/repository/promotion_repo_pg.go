package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type pgPromotionRepository struct {
	db *gorm.DB
}

func NewPGPromotionRepository(db *gorm.DB) PromotionRepository {
	return &pgPromotionRepository{db: db}
}

func (r *pgPromotionRepository) Create(ctx context.Context, promo *model.Promotion) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

func (r *pgPromotionRepository) Update(ctx context.Context, promo *model.Promotion) error {
	return r.db.WithContext(ctx).Save(promo).Error
}

func (r *pgPromotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	var promo model.Promotion
	if err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *pgPromotionRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Promotion, error) {
	var promos []model.Promotion
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}
