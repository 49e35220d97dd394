// Package promotion holds the budget/credit waterfall and reach/cost
// estimators behind the promotion-creation flow, plus the service that
// applies them against the credit ledger and payment provider.
package promotion

import (
	"math"

	"github.com/tempandmajor/commonly-sub007/internal/config"
	"github.com/tempandmajor/commonly-sub007/internal/model"
)

// Cost weights per unit of delivery. Tuned against historical campaign spend;
// changing them only rescales estimates, all monotonicity properties hold for
// any non-negative values.
const (
	costPerReach      = 0.005
	costPerEngagement = 0.02

	// engagementRatio is the fraction of reached users expected to engage
	// when no configured rate overrides it.
	engagementRatio = 0.08

	// interestNarrowing shrinks reach per targeted interest: a narrower
	// audience costs delivery volume.
	interestNarrowing = 0.15
)

// AudienceFilter narrows delivery to users matching the given interests. An
// empty filter targets everyone.
type AudienceFilter struct {
	Interests []string
}

// Estimator computes deterministic, side-effect-free promotion estimates.
// All methods clamp negative inputs to zero and never fail; they are safe to
// call on every form keystroke.
type Estimator struct {
	minBid         float64
	baseReachRate  float64
	engagementRate float64
}

func NewEstimator(cfg config.PromotionConfig) Estimator {
	e := Estimator{
		minBid:         cfg.MinBid,
		baseReachRate:  cfg.BaseReachRate,
		engagementRate: cfg.EngagementRate,
	}
	if e.minBid <= 0 {
		e.minBid = 0.01
	}
	if e.baseReachRate <= 0 {
		e.baseReachRate = 1
	}
	if e.engagementRate <= 0 {
		e.engagementRate = engagementRatio
	}
	return e
}

// EstimateReach returns the expected number of users reached for a budget and
// bid. Non-decreasing in budget, non-increasing in bid; bids below the
// configured minimum are treated as the minimum.
func (e Estimator) EstimateReach(budget, bidAmount float64, mode model.PromotionMode, filter AudienceFilter) int {
	budget = clamp(budget)
	if bidAmount < e.minBid {
		bidAmount = e.minBid
	}

	reach := budget / bidAmount * e.baseReachRate

	// Engagement campaigns optimize for a scarcer action, so the same spend
	// covers fewer users.
	if mode == model.PromotionModeEngagement {
		reach *= 0.6
	}

	reach /= 1 + interestNarrowing*float64(len(filter.Interests))

	return int(math.Floor(reach))
}

// EstimateEngagements derives the expected engagement count from reach.
func (e Estimator) EstimateEngagements(reach int, mode model.PromotionMode) int {
	if reach < 0 {
		reach = 0
	}
	rate := e.engagementRate
	if mode == model.PromotionModeEngagement {
		rate *= 2
	}
	return int(math.Floor(float64(reach) * rate))
}

// EstimateCost converts reach and engagement volumes into an expected spend.
// Pure, non-negative, and monotonic in both inputs.
func EstimateCost(reach, engagements int) float64 {
	if reach < 0 {
		reach = 0
	}
	if engagements < 0 {
		engagements = 0
	}
	return float64(reach)*costPerReach + float64(engagements)*costPerEngagement
}

// CreditWaterfall is the allocation of a requested budget across promotional
// credits first, then an external payment charge.
type CreditWaterfall struct {
	FromCredits        float64 `json:"amount_from_credits"`
	Charged            float64 `json:"amount_charged"`
	NeedsPaymentMethod bool    `json:"needs_payment_method"`
}

// ComputeCreditWaterfall splits requestedBudget between availableCredits and
// an external charge. Negative inputs clamp to zero; the function never
// fails. Invariants: FromCredits = min(credits, budget),
// Charged = budget - FromCredits, NeedsPaymentMethod = budget > credits.
func ComputeCreditWaterfall(requestedBudget, availableCredits float64) CreditWaterfall {
	requestedBudget = clamp(requestedBudget)
	availableCredits = clamp(availableCredits)

	fromCredits := math.Min(availableCredits, requestedBudget)
	return CreditWaterfall{
		FromCredits:        fromCredits,
		Charged:            requestedBudget - fromCredits,
		NeedsPaymentMethod: requestedBudget > availableCredits,
	}
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
