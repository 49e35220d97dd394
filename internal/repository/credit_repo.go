package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

// ErrInsufficientCredits is returned by Append when a debit would drive the
// user's balance negative.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditRepository is the promotional-credit ledger. The ledger is
// append-only; the balance is the sum of all transaction amounts.
type CreditRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (float64, error)

	// Append writes a ledger row, computing BalanceAfter atomically with the
	// insert. A debit that would overdraft the balance fails with
	// ErrInsufficientCredits, so concurrent spends cannot interleave past the
	// available balance.
	Append(ctx context.Context, tx *model.CreditTransaction) error

	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.CreditTransaction, error)
}
