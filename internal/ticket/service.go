// Package ticket issues event tickets and validates them at the door. The
// scan check-and-mark is atomic: two scanners racing on the same code see
// exactly one "valid" result.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/repository"
	"github.com/tempandmajor/commonly-sub007/pkg/crypto"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrEventSoldOut    = errors.New("event is sold out")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
	ErrInvalidEvent    = errors.New("event dates or pricing are invalid")
)

// Validation sentinels for the atomic scan closure; mapped to ScanStatus,
// never returned to callers.
var (
	errWrongEvent  = errors.New("ticket belongs to another event")
	errAlreadyUsed = errors.New("ticket already used")
	errRefunded    = errors.New("ticket was refunded")
	errEventEnded  = errors.New("event has ended")
)

type ScanStatus string

const (
	ScanValid       ScanStatus = "valid"
	ScanAlreadyUsed ScanStatus = "already_used"
	ScanWrongEvent  ScanStatus = "wrong_event"
	ScanRefunded    ScanStatus = "refunded"
	ScanEventEnded  ScanStatus = "event_ended"
	ScanNotFound    ScanStatus = "not_found"
)

// ScanResult reports the outcome of one scan attempt. Rejections are results,
// not errors; only infrastructure failures surface as error.
type ScanResult struct {
	Status ScanStatus    `json:"status"`
	Ticket *model.Ticket `json:"ticket,omitempty"`
}

type CreateEventInputs struct {
	Title       string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	TicketPrice float64
	Capacity    int
}

type Service interface {
	CreateEvent(ctx context.Context, organizerID uuid.UUID, in CreateEventInputs) (*model.Event, error)
	IssueTickets(ctx context.Context, eventID, buyerID uuid.UUID, quantity int) ([]*model.Ticket, error)
	Scan(ctx context.Context, eventID uuid.UUID, code string) (ScanResult, error)
}

type service struct {
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	logger     *zap.Logger
}

func NewService(eventRepo repository.EventRepository, ticketRepo repository.TicketRepository, logger *zap.Logger) Service {
	return &service{eventRepo: eventRepo, ticketRepo: ticketRepo, logger: logger}
}

func (s *service) CreateEvent(ctx context.Context, organizerID uuid.UUID, in CreateEventInputs) (*model.Event, error) {
	if in.Title == "" || in.Capacity <= 0 || in.TicketPrice < 0 || !in.EndsAt.After(in.StartsAt) {
		return nil, ErrInvalidEvent
	}
	event := &model.Event{
		OrganizerID: organizerID,
		Title:       in.Title,
		Venue:       in.Venue,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		TicketPrice: in.TicketPrice,
		Capacity:    in.Capacity,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *service) IssueTickets(ctx context.Context, eventID, buyerID uuid.UUID, quantity int) ([]*model.Ticket, error) {
	// 1. Bound the order size
	if quantity < 1 || quantity > 10 {
		return nil, ErrInvalidQuantity
	}

	// 2. Load the event for pricing
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	// 3. Mint codes and insert atomically against remaining capacity
	tickets := make([]*model.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := crypto.GenerateTicketCode()
		if err != nil {
			return nil, fmt.Errorf("generate ticket code: %w", err)
		}
		tickets = append(tickets, &model.Ticket{
			EventID: eventID,
			OwnerID: buyerID,
			Code:    code,
			Price:   event.TicketPrice,
			Status:  model.TicketStatusIssued,
		})
	}
	if err := s.ticketRepo.IssueBatch(ctx, eventID, tickets); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return nil, ErrEventSoldOut
		}
		return nil, fmt.Errorf("issue tickets: %w", err)
	}
	return tickets, nil
}

func (s *service) Scan(ctx context.Context, eventID uuid.UUID, code string) (ScanResult, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScanResult{}, ErrEventNotFound
		}
		return ScanResult{}, fmt.Errorf("load event: %w", err)
	}

	now := time.Now()
	ticket, err := s.ticketRepo.AtomicScan(ctx, code, func(t *model.Ticket) error {
		if t.EventID != eventID {
			return errWrongEvent
		}
		switch t.Status {
		case model.TicketStatusUsed:
			return errAlreadyUsed
		case model.TicketStatusRefunded:
			return errRefunded
		}
		if now.After(event.EndsAt) {
			return errEventEnded
		}
		return nil
	})

	switch {
	case err == nil:
		return ScanResult{Status: ScanValid, Ticket: ticket}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ScanResult{Status: ScanNotFound}, nil
	case errors.Is(err, errWrongEvent):
		return ScanResult{Status: ScanWrongEvent, Ticket: ticket}, nil
	case errors.Is(err, errAlreadyUsed):
		return ScanResult{Status: ScanAlreadyUsed, Ticket: ticket}, nil
	case errors.Is(err, errRefunded):
		return ScanResult{Status: ScanRefunded, Ticket: ticket}, nil
	case errors.Is(err, errEventEnded):
		return ScanResult{Status: ScanEventEnded, Ticket: ticket}, nil
	default:
		return ScanResult{}, fmt.Errorf("scan ticket: %w", err)
	}
}
