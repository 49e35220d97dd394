package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tempandmajor/commonly-sub007/internal/ticket"
	"github.com/tempandmajor/commonly-sub007/pkg/response"
)

type TicketHandler struct {
	ticketService ticket.Service
}

func NewTicketHandler(ticketService ticket.Service) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	TicketPrice float64   `json:"ticket_price"`
	Capacity    int       `json:"capacity"`
}

func (h *TicketHandler) CreateEvent(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	event, err := h.ticketService.CreateEvent(c.Request.Context(), userID, ticket.CreateEventInputs{
		Title:       req.Title,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		TicketPrice: req.TicketPrice,
		Capacity:    req.Capacity,
	})
	if err != nil {
		if errors.Is(err, ticket.ErrInvalidEvent) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create event")
		return
	}
	response.Success(c, event)
}

type IssueTicketsRequest struct {
	EventID  uuid.UUID `json:"event_id"`
	Quantity int       `json:"quantity"`
}

func (h *TicketHandler) Issue(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req IssueTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	tickets, err := h.ticketService.IssueTickets(c.Request.Context(), req.EventID, userID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrInvalidQuantity):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ticket.ErrEventNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, ticket.ErrEventSoldOut):
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, "failed to issue tickets")
		}
		return
	}
	response.Success(c, tickets)
}

type ScanTicketRequest struct {
	EventID uuid.UUID `json:"event_id"`
	Code    string    `json:"code"`
}

// Scan validates a ticket at the door. A rejected ticket is a successful
// scan with a non-valid status, not an error.
func (h *TicketHandler) Scan(c *gin.Context) {
	var req ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Code == "" {
		response.BadRequest(c, "ticket code is required")
		return
	}

	result, err := h.ticketService.Scan(c.Request.Context(), req.EventID, req.Code)
	if err != nil {
		if errors.Is(err, ticket.ErrEventNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, "failed to scan ticket")
		return
	}
	response.Success(c, result)
}
