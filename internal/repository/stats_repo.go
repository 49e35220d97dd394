package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

// PlatformCounts are the raw aggregates behind the platform summary.
type PlatformCounts struct {
	ActivePromotions int64
	TicketsSold      int64
	GrossRevenue     float64
}

type StatsRepository interface {
	Collect(ctx context.Context) (PlatformCounts, error)
}

type pgStatsRepository struct {
	db      *gorm.DB
	tickets TicketRepository
}

func NewPGStatsRepository(db *gorm.DB, tickets TicketRepository) StatsRepository {
	return &pgStatsRepository{db: db, tickets: tickets}
}

func (r *pgStatsRepository) Collect(ctx context.Context) (PlatformCounts, error) {
	var counts PlatformCounts

	if err := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("status = ?", model.PromotionStatusActive).
		Count(&counts.ActivePromotions).Error; err != nil {
		return counts, err
	}

	sold, revenue, err := r.tickets.CountSold(ctx)
	if err != nil {
		return counts, err
	}
	counts.TicketsSold = sold
	counts.GrossRevenue = revenue
	return counts, nil
}
