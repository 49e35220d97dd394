package promotion

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/payment"
	"github.com/tempandmajor/commonly-sub007/internal/repository"
)

// maxDebitAttempts bounds re-splits when concurrent spends keep winning the
// balance race.
const maxDebitAttempts = 3

// EstimateInputs feed the live estimate on the promotion-creation form.
// AvailableCredits lets the form show the waterfall split without a second
// round-trip.
type EstimateInputs struct {
	Budget            float64
	BidAmount         float64
	Mode              model.PromotionMode
	AudienceInterests []string
	AvailableCredits  float64
}

type Estimate struct {
	EstimatedReach       int             `json:"estimated_reach"`
	EstimatedEngagements int             `json:"estimated_engagements"`
	EstimatedCost        float64         `json:"estimated_cost"`
	Waterfall            CreditWaterfall `json:"waterfall"`
}

type CreateInputs struct {
	Title             string
	EventID           *uuid.UUID
	Budget            float64
	BidAmount         float64
	Mode              model.PromotionMode
	AudienceInterests []string
}

type Service interface {
	Estimate(in EstimateInputs) Estimate
	CreatePromotion(ctx context.Context, creatorID uuid.UUID, in CreateInputs) (*model.Promotion, error)
	ListPromotions(ctx context.Context, creatorID uuid.UUID) ([]model.Promotion, error)
	GetPromotion(ctx context.Context, creatorID, id uuid.UUID) (*model.Promotion, error)
	CreditBalance(ctx context.Context, userID uuid.UUID) (float64, error)
	GrantCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*model.CreditTransaction, error)
}

type service struct {
	estimator  Estimator
	promoRepo  repository.PromotionRepository
	creditRepo repository.CreditRepository
	charger    payment.Charger
	currency   string
	logger     *zap.Logger
}

func NewService(
	estimator Estimator,
	promoRepo repository.PromotionRepository,
	creditRepo repository.CreditRepository,
	charger payment.Charger,
	currency string,
	logger *zap.Logger,
) Service {
	if currency == "" {
		currency = "USD"
	}
	return &service{
		estimator:  estimator,
		promoRepo:  promoRepo,
		creditRepo: creditRepo,
		charger:    charger,
		currency:   currency,
		logger:     logger,
	}
}

// Estimate is pure: no I/O, deterministic, safe on every keystroke.
func (s *service) Estimate(in EstimateInputs) Estimate {
	mode := in.Mode
	if mode == "" {
		mode = model.PromotionModeImpressions
	}
	reach := s.estimator.EstimateReach(in.Budget, in.BidAmount, mode, AudienceFilter{Interests: in.AudienceInterests})
	engagements := s.estimator.EstimateEngagements(reach, mode)
	return Estimate{
		EstimatedReach:       reach,
		EstimatedEngagements: engagements,
		EstimatedCost:        EstimateCost(reach, engagements),
		Waterfall:            ComputeCreditWaterfall(in.Budget, in.AvailableCredits),
	}
}

func (s *service) CreatePromotion(ctx context.Context, creatorID uuid.UUID, in CreateInputs) (*model.Promotion, error) {
	// 1. Validate inputs
	if in.Title == "" {
		return nil, ErrInvalidTitle
	}
	if in.Budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if in.Mode == "" {
		in.Mode = model.PromotionModeImpressions
	}

	// 2. Estimate delivery
	reach := s.estimator.EstimateReach(in.Budget, in.BidAmount, in.Mode, AudienceFilter{Interests: in.AudienceInterests})
	engagements := s.estimator.EstimateEngagements(reach, in.Mode)

	// 3. Persist the pending promotion; the budget split is settled below
	// once the debit lands.
	promo := &model.Promotion{
		CreatorID:         creatorID,
		EventID:           in.EventID,
		Title:             in.Title,
		Mode:              in.Mode,
		Budget:            in.Budget,
		BidAmount:         in.BidAmount,
		AudienceInterests: in.AudienceInterests,
		EstimatedReach:    reach,
		EstimatedCost:     EstimateCost(reach, engagements),
		Currency:          s.currency,
		Status:            model.PromotionStatusPending,
	}
	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	// 4. Split the budget across credits and an external charge. The split is
	// decided from a balance read that can race another spend by the same
	// user; the ledger rejects the losing debit, so re-read and re-split.
	var wf CreditWaterfall
	for attempt := 0; ; attempt++ {
		balance, err := s.creditRepo.Balance(ctx, creatorID)
		if err != nil {
			return nil, fmt.Errorf("load credit balance: %w", err)
		}
		wf = ComputeCreditWaterfall(in.Budget, balance)
		if wf.FromCredits == 0 {
			break
		}

		debit := &model.CreditTransaction{
			UserID:      creatorID,
			Type:        model.CreditTxPromotion,
			Amount:      -wf.FromCredits,
			PromotionID: &promo.ID,
			Description: "promotion: " + in.Title,
		}
		err = s.creditRepo.Append(ctx, debit)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrInsufficientCredits) && attempt < maxDebitAttempts {
			continue
		}
		promo.Status = model.PromotionStatusFailed
		if updateErr := s.promoRepo.Update(ctx, promo); updateErr != nil {
			s.logger.Error("failed to mark promotion failed",
				zap.String("promotion_id", promo.ID.String()), zap.Error(updateErr))
		}
		return nil, fmt.Errorf("debit credits: %w", err)
	}
	promo.CreditsApplied = wf.FromCredits
	promo.AmountCharged = wf.Charged

	// 5. Charge the remainder
	if wf.Charged > 0 {
		charge, err := s.charger.Charge(ctx, creatorID, wf.Charged, s.currency, "promotion: "+in.Title)
		if err != nil {
			s.rollbackCredits(ctx, creatorID, promo, wf.FromCredits)
			promo.Status = model.PromotionStatusFailed
			if updateErr := s.promoRepo.Update(ctx, promo); updateErr != nil {
				s.logger.Error("failed to mark promotion failed",
					zap.String("promotion_id", promo.ID.String()), zap.Error(updateErr))
			}
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		promo.ChargeID = &charge.ID
	}

	// 6. Activate
	promo.Status = model.PromotionStatusActive
	if err := s.promoRepo.Update(ctx, promo); err != nil {
		return nil, fmt.Errorf("activate promotion: %w", err)
	}
	return promo, nil
}

// rollbackCredits returns a debited amount after a failed charge. Failure to
// refund is logged, not propagated: the caller already has a payment error.
func (s *service) rollbackCredits(ctx context.Context, userID uuid.UUID, promo *model.Promotion, amount float64) {
	if amount <= 0 {
		return
	}
	refund := &model.CreditTransaction{
		UserID:      userID,
		Type:        model.CreditTxRefund,
		Amount:      amount,
		PromotionID: &promo.ID,
		Description: "refund after failed charge",
	}
	if err := s.creditRepo.Append(ctx, refund); err != nil {
		s.logger.Error("failed to refund credits",
			zap.String("promotion_id", promo.ID.String()),
			zap.Float64("amount", amount),
			zap.Error(err))
	}
}

func (s *service) ListPromotions(ctx context.Context, creatorID uuid.UUID) ([]model.Promotion, error) {
	return s.promoRepo.ListByCreator(ctx, creatorID)
}

func (s *service) GetPromotion(ctx context.Context, creatorID, id uuid.UUID) (*model.Promotion, error) {
	promo, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, fmt.Errorf("load promotion: %w", err)
	}
	if promo.CreatorID != creatorID {
		return nil, ErrPromotionNotFound
	}
	return promo, nil
}

func (s *service) CreditBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	return s.creditRepo.Balance(ctx, userID)
}

func (s *service) GrantCredits(ctx context.Context, userID uuid.UUID, amount float64, reason string) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidCreditAmount
	}
	if reason == "" {
		reason = "promotional credit grant"
	}
	grant := &model.CreditTransaction{
		UserID:      userID,
		Type:        model.CreditTxGrant,
		Amount:      amount,
		Description: reason,
	}
	if err := s.creditRepo.Append(ctx, grant); err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}
	return grant, nil
}
