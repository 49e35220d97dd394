package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type PromotionRepository interface {
	Create(ctx context.Context, promo *model.Promotion) error
	Update(ctx context.Context, promo *model.Promotion) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Promotion, error)
}
