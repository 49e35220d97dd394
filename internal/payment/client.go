package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tempandmajor/commonly-sub007/internal/config"
	"github.com/tempandmajor/commonly-sub007/internal/fetch"
)

type client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	retry     fetch.RetryPolicy
	logger    *zap.Logger
}

// NewClient builds the HTTP Charger. Transient provider failures are retried
// per the configured policy; declines and missing payment methods are not.
func NewClient(cfg config.PaymentConfig, logger *zap.Logger) Charger {
	return &client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: cfg.Timeout},
		retry:     fetch.RetryPolicy{Count: cfg.RetryCount, Delay: cfg.RetryDelay},
		logger:    logger,
	}
}

type chargeRequest struct {
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

type providerError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *client) Charge(ctx context.Context, userID uuid.UUID, amount float64, currency, description string) (*Charge, error) {
	req := chargeRequest{
		UserID:      userID.String(),
		Amount:      amount,
		Currency:    currency,
		Description: description,
	}

	charge, err := fetch.Do(ctx, func(ctx context.Context) (*Charge, error) {
		return c.postCharge(ctx, req)
	}, c.retry)
	if err != nil {
		c.logger.Warn("charge failed",
			zap.String("user_id", userID.String()),
			zap.Float64("amount", amount),
			zap.Error(err))
		return nil, err
	}
	return charge, nil
}

func (c *client) postCharge(ctx context.Context, req chargeRequest) (*Charge, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var charge Charge
		if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
			return nil, fmt.Errorf("decode charge response: %w", err)
		}
		return &charge, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var perr providerError
	_ = json.Unmarshal(raw, &perr)

	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		return nil, fetch.Permanent(ErrNoPaymentMethod)
	case http.StatusUnprocessableEntity:
		return nil, fetch.Permanent(ErrChargeDeclined)
	default:
		if perr.Message != "" {
			return nil, fmt.Errorf("provider error (%d): %s", resp.StatusCode, perr.Message)
		}
		return nil, fmt.Errorf("provider error (%d)", resp.StatusCode)
	}
}
