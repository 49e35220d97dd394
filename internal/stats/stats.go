// Package stats aggregates the platform summary served on the dashboard.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/tempandmajor/commonly-sub007/internal/repository"
)

// Summary is one snapshot of platform-wide activity. Creator earnings are
// gross ticket revenue minus the platform fee.
type Summary struct {
	ActivePromotions int64     `json:"active_promotions"`
	TicketsSold      int64     `json:"tickets_sold"`
	GrossRevenue     float64   `json:"gross_revenue"`
	PlatformFees     float64   `json:"platform_fees"`
	CreatorEarnings  float64   `json:"creator_earnings"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type Service interface {
	Summary(ctx context.Context) (Summary, error)
}

type service struct {
	repo       repository.StatsRepository
	feePercent float64
}

func NewService(repo repository.StatsRepository, feePercent float64) Service {
	if feePercent < 0 {
		feePercent = 0
	}
	if feePercent > 100 {
		feePercent = 100
	}
	return &service{repo: repo, feePercent: feePercent}
}

func (s *service) Summary(ctx context.Context) (Summary, error) {
	counts, err := s.repo.Collect(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("collect platform counts: %w", err)
	}

	fees := counts.GrossRevenue * s.feePercent / 100
	return Summary{
		ActivePromotions: counts.ActivePromotions,
		TicketsSold:      counts.TicketsSold,
		GrossRevenue:     counts.GrossRevenue,
		PlatformFees:     fees,
		CreatorEarnings:  counts.GrossRevenue - fees,
		GeneratedAt:      time.Now(),
	}, nil
}
