package ticket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tempandmajor/commonly-sub007/internal/model"
	"github.com/tempandmajor/commonly-sub007/internal/repository"
)

type fakeEventRepo struct {
	events map[uuid.UUID]*model.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*model.Event)}
}

func (r *fakeEventRepo) Create(_ context.Context, event *model.Event) error {
	event.ID = uuid.New()
	r.events[event.ID] = event
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *event
	return &out, nil
}

type fakeTicketRepo struct {
	events  *fakeEventRepo
	tickets map[string]*model.Ticket
}

func newFakeTicketRepo(events *fakeEventRepo) *fakeTicketRepo {
	return &fakeTicketRepo{events: events, tickets: make(map[string]*model.Ticket)}
}

func (r *fakeTicketRepo) IssueBatch(_ context.Context, eventID uuid.UUID, tickets []*model.Ticket) error {
	event, ok := r.events.events[eventID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if event.TicketsSold+len(tickets) > event.Capacity {
		return repository.ErrCapacityExceeded
	}
	for _, t := range tickets {
		t.ID = uuid.New()
		r.tickets[t.Code] = t
	}
	event.TicketsSold += len(tickets)
	return nil
}

func (r *fakeTicketRepo) GetByCode(_ context.Context, code string) (*model.Ticket, error) {
	t, ok := r.tickets[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (r *fakeTicketRepo) AtomicScan(_ context.Context, code string, validate func(t *model.Ticket) error) (*model.Ticket, error) {
	t, ok := r.tickets[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := validate(t); err != nil {
		out := *t
		return &out, err
	}
	now := time.Now()
	t.Status = model.TicketStatusUsed
	t.UsedAt = &now
	out := *t
	return &out, nil
}

func (r *fakeTicketRepo) CountSold(_ context.Context) (int64, float64, error) {
	var count int64
	var gross float64
	for _, t := range r.tickets {
		if t.Status != model.TicketStatusRefunded {
			count++
			gross += t.Price
		}
	}
	return count, gross, nil
}

func newTestService() (Service, *fakeEventRepo, *fakeTicketRepo) {
	events := newFakeEventRepo()
	tickets := newFakeTicketRepo(events)
	return NewService(events, tickets, zap.NewNop()), events, tickets
}

func createEvent(t *testing.T, svc Service, capacity int) *model.Event {
	t.Helper()
	event, err := svc.CreateEvent(context.Background(), uuid.New(), CreateEventInputs{
		Title:       "Summer market",
		Venue:       "Pier 3",
		StartsAt:    time.Now().Add(time.Hour),
		EndsAt:      time.Now().Add(5 * time.Hour),
		TicketPrice: 20,
		Capacity:    capacity,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	return event
}

func TestCreateEventValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	now := time.Now()

	cases := []struct {
		name string
		in   CreateEventInputs
	}{
		{"empty title", CreateEventInputs{Capacity: 10, StartsAt: now, EndsAt: now.Add(time.Hour)}},
		{"zero capacity", CreateEventInputs{Title: "x", StartsAt: now, EndsAt: now.Add(time.Hour)}},
		{"negative price", CreateEventInputs{Title: "x", Capacity: 10, TicketPrice: -1, StartsAt: now, EndsAt: now.Add(time.Hour)}},
		{"ends before start", CreateEventInputs{Title: "x", Capacity: 10, StartsAt: now.Add(time.Hour), EndsAt: now}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateEvent(ctx, uuid.New(), tc.in); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("CreateEvent() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestIssueTickets(t *testing.T) {
	svc, _, _ := newTestService()
	event := createEvent(t, svc, 100)
	buyer := uuid.New()

	tickets, err := svc.IssueTickets(context.Background(), event.ID, buyer, 3)
	if err != nil {
		t.Fatalf("IssueTickets() error = %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("issued %d tickets, want 3", len(tickets))
	}
	seen := make(map[string]bool)
	for _, tk := range tickets {
		if tk.Code == "" {
			t.Error("ticket issued without a code")
		}
		if seen[tk.Code] {
			t.Errorf("duplicate code %s in one batch", tk.Code)
		}
		seen[tk.Code] = true
		if tk.Price != event.TicketPrice {
			t.Errorf("Price = %v, want %v", tk.Price, event.TicketPrice)
		}
		if tk.Status != model.TicketStatusIssued {
			t.Errorf("Status = %q, want issued", tk.Status)
		}
	}
}

func TestIssueTicketsQuantityBounds(t *testing.T) {
	svc, _, _ := newTestService()
	event := createEvent(t, svc, 100)
	ctx := context.Background()

	for _, qty := range []int{0, -1, 11} {
		if _, err := svc.IssueTickets(ctx, event.ID, uuid.New(), qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("IssueTickets(qty=%d) error = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestIssueTicketsSoldOut(t *testing.T) {
	svc, _, _ := newTestService()
	event := createEvent(t, svc, 5)
	ctx := context.Background()

	if _, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 4); err != nil {
		t.Fatalf("first batch error = %v", err)
	}
	if _, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 2); !errors.Is(err, ErrEventSoldOut) {
		t.Errorf("over-capacity batch error = %v, want ErrEventSoldOut", err)
	}
	// The remaining seat is still sellable.
	if _, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 1); err != nil {
		t.Errorf("final seat error = %v", err)
	}
}

func TestIssueTicketsUnknownEvent(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.IssueTickets(context.Background(), uuid.New(), uuid.New(), 1); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("IssueTickets(unknown event) error = %v, want ErrEventNotFound", err)
	}
}

func TestScanValidThenAlreadyUsed(t *testing.T) {
	svc, _, _ := newTestService()
	event := createEvent(t, svc, 10)
	ctx := context.Background()

	tickets, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 1)
	if err != nil {
		t.Fatalf("IssueTickets() error = %v", err)
	}
	code := tickets[0].Code

	first, err := svc.Scan(ctx, event.ID, code)
	if err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}
	if first.Status != ScanValid {
		t.Fatalf("first scan Status = %q, want valid", first.Status)
	}
	if first.Ticket == nil || first.Ticket.UsedAt == nil {
		t.Error("valid scan did not mark the ticket used")
	}

	second, err := svc.Scan(ctx, event.ID, code)
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if second.Status != ScanAlreadyUsed {
		t.Errorf("second scan Status = %q, want already_used", second.Status)
	}
}

func TestScanWrongEvent(t *testing.T) {
	svc, _, _ := newTestService()
	eventA := createEvent(t, svc, 10)
	eventB := createEvent(t, svc, 10)
	ctx := context.Background()

	tickets, err := svc.IssueTickets(ctx, eventA.ID, uuid.New(), 1)
	if err != nil {
		t.Fatalf("IssueTickets() error = %v", err)
	}

	res, err := svc.Scan(ctx, eventB.ID, tickets[0].Code)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != ScanWrongEvent {
		t.Errorf("Status = %q, want wrong_event", res.Status)
	}

	// The rejected ticket is still valid at its own door.
	res, err = svc.Scan(ctx, eventA.ID, tickets[0].Code)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != ScanValid {
		t.Errorf("Status at own event = %q, want valid", res.Status)
	}
}

func TestScanRefunded(t *testing.T) {
	svc, _, ticketRepo := newTestService()
	event := createEvent(t, svc, 10)
	ctx := context.Background()

	tickets, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 1)
	if err != nil {
		t.Fatalf("IssueTickets() error = %v", err)
	}
	ticketRepo.tickets[tickets[0].Code].Status = model.TicketStatusRefunded

	res, err := svc.Scan(ctx, event.ID, tickets[0].Code)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != ScanRefunded {
		t.Errorf("Status = %q, want refunded", res.Status)
	}
}

func TestScanEventEnded(t *testing.T) {
	svc, eventRepo, _ := newTestService()
	event := createEvent(t, svc, 10)
	ctx := context.Background()

	tickets, err := svc.IssueTickets(ctx, event.ID, uuid.New(), 1)
	if err != nil {
		t.Fatalf("IssueTickets() error = %v", err)
	}
	eventRepo.events[event.ID].EndsAt = time.Now().Add(-time.Hour)

	res, err := svc.Scan(ctx, event.ID, tickets[0].Code)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != ScanEventEnded {
		t.Errorf("Status = %q, want event_ended", res.Status)
	}
}

func TestScanUnknownCode(t *testing.T) {
	svc, _, _ := newTestService()
	event := createEvent(t, svc, 10)

	res, err := svc.Scan(context.Background(), event.ID, "no-such-code")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != ScanNotFound {
		t.Errorf("Status = %q, want not_found", res.Status)
	}
}
