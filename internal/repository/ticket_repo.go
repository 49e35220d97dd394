package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

// ErrCapacityExceeded is returned by IssueBatch when the event cannot hold
// the requested number of additional tickets.
var ErrCapacityExceeded = errors.New("event capacity exceeded")

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

type TicketRepository interface {
	// IssueBatch inserts the tickets and bumps the event's sold counter in
	// one transaction, failing with ErrCapacityExceeded if the event is out
	// of capacity.
	IssueBatch(ctx context.Context, eventID uuid.UUID, tickets []*model.Ticket) error

	GetByCode(ctx context.Context, code string) (*model.Ticket, error)

	// AtomicScan locks the ticket row by code, runs validate against the
	// current row, and marks it used only when validate returns nil. The
	// loaded ticket is returned even when validation fails so callers can
	// report why the scan was rejected.
	AtomicScan(ctx context.Context, code string, validate func(t *model.Ticket) error) (*model.Ticket, error)

	CountSold(ctx context.Context) (int64, float64, error)
}
