// Package payment wraps the hosted payment provider. The rest of the service
// only sees the Charger interface; request/response shapes stay here.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNoPaymentMethod means the user must add a payment method before the
	// charge can be placed.
	ErrNoPaymentMethod = errors.New("no payment method on file")

	// ErrChargeDeclined means the provider rejected the charge.
	ErrChargeDeclined = errors.New("charge declined")
)

type Charge struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type Charger interface {
	Charge(ctx context.Context, userID uuid.UUID, amount float64, currency, description string) (*Charge, error)
}
