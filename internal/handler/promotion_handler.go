package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/promotion"
	"github.com/tempandmajor/commonly-sub007/pkg/response"
)

type PromotionHandler struct {
	promotionService promotion.Service
}

func NewPromotionHandler(promotionService promotion.Service) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

type EstimateRequest struct {
	Budget            float64  `json:"budget"`
	BidAmount         float64  `json:"bid_amount"`
	Mode              string   `json:"mode"`
	AudienceInterests []string `json:"audience_interests"`
	AvailableCredits  float64  `json:"available_credits"`
}

// Estimate returns a live delivery/cost estimate for the creation form. Pure
// calculation; safe to call on every input change.
func (h *PromotionHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	est := h.promotionService.Estimate(promotion.EstimateInputs{
		Budget:            req.Budget,
		BidAmount:         req.BidAmount,
		Mode:              model.PromotionMode(req.Mode),
		AudienceInterests: req.AudienceInterests,
		AvailableCredits:  req.AvailableCredits,
	})
	response.Success(c, est)
}

type CreatePromotionRequest struct {
	Title             string     `json:"title"`
	EventID           *uuid.UUID `json:"event_id,omitempty"`
	Budget            float64    `json:"budget"`
	BidAmount         float64    `json:"bid_amount"`
	Mode              string     `json:"mode"`
	AudienceInterests []string   `json:"audience_interests"`
}

// Create runs the credit waterfall and charges any remainder.
func (h *PromotionHandler) Create(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	promo, err := h.promotionService.CreatePromotion(c.Request.Context(), userID, promotion.CreateInputs{
		Title:             req.Title,
		EventID:           req.EventID,
		Budget:            req.Budget,
		BidAmount:         req.BidAmount,
		Mode:              model.PromotionMode(req.Mode),
		AudienceInterests: req.AudienceInterests,
	})
	if err != nil {
		switch {
		case errors.Is(err, promotion.ErrInvalidTitle), errors.Is(err, promotion.ErrInvalidBudget):
			response.BadRequest(c, err.Error())
		case errors.Is(err, promotion.ErrPaymentFailed):
			response.PaymentRequired(c, err.Error())
		default:
			response.InternalError(c, "failed to create promotion")
		}
		return
	}
	response.Success(c, promo)
}

// List returns the caller's promotions, newest first.
func (h *PromotionHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	promos, err := h.promotionService.ListPromotions(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list promotions")
		return
	}
	response.Success(c, promos)
}

// Get returns one of the caller's promotions.
func (h *PromotionHandler) Get(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	promoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid promotion id")
		return
	}

	promo, err := h.promotionService.GetPromotion(c.Request.Context(), userID, promoID)
	if err != nil {
		if errors.Is(err, promotion.ErrPromotionNotFound) {
			response.NotFound(c, "promotion not found")
			return
		}
		response.InternalError(c, "failed to load promotion")
		return
	}
	response.Success(c, promo)
}

// CreditBalance returns the caller's promotional credit balance.
func (h *PromotionHandler) CreditBalance(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	balance, err := h.promotionService.CreditBalance(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to load credit balance")
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

type GrantCreditsRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Amount float64   `json:"amount"`
	Reason string    `json:"reason"`
}

// GrantCredits appends a grant to a user's credit ledger. Admin only.
func (h *PromotionHandler) GrantCredits(c *gin.Context) {
	var req GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		response.BadRequest(c, "user_id is required")
		return
	}

	grant, err := h.promotionService.GrantCredits(c.Request.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, promotion.ErrInvalidCreditAmount) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to grant credits")
		return
	}
	response.Success(c, grant)
}
