package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OrganizerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizer_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Venue       string         `gorm:"type:varchar(200)" json:"venue"`
	StartsAt    time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt      time.Time      `gorm:"not null" json:"ends_at"`
	TicketPrice float64        `gorm:"not null" json:"ticket_price"`
	Capacity    int            `gorm:"not null" json:"capacity"`
	TicketsSold int            `gorm:"not null;default:0" json:"tickets_sold"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Event) TableName() string { return "events" }

type TicketStatus string

const (
	TicketStatusIssued   TicketStatus = "issued"
	TicketStatusUsed     TicketStatus = "used"
	TicketStatusRefunded TicketStatus = "refunded"
)

type Ticket struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EventID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"event_id"`
	OwnerID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Code      string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Price     float64      `gorm:"not null" json:"price"`
	Status    TicketStatus `gorm:"type:varchar(20);not null;default:'issued'" json:"status"`
	UsedAt    *time.Time   `json:"used_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }
