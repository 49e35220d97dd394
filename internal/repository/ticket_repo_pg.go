package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tempandmajor/commonly-sub007/internal/model"
)

type pgEventRepository struct {
	db *gorm.DB
}

func NewPGEventRepository(db *gorm.DB) EventRepository {
	return &pgEventRepository{db: db}
}

func (r *pgEventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *pgEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

type pgTicketRepository struct {
	db *gorm.DB
}

func NewPGTicketRepository(db *gorm.DB) TicketRepository {
	return &pgTicketRepository{db: db}
}

func (r *pgTicketRepository) IssueBatch(ctx context.Context, eventID uuid.UUID, tickets []*model.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Event{}).
			Where("id = ? AND tickets_sold + ? <= capacity", eventID, len(tickets)).
			UpdateColumn("tickets_sold", gorm.Expr("tickets_sold + ?", len(tickets)))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCapacityExceeded
		}
		return tx.Create(tickets).Error
	})
}

func (r *pgTicketRepository) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *pgTicketRepository) AtomicScan(ctx context.Context, code string, validate func(t *model.Ticket) error) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ticket, "code = ?", code).Error; err != nil {
			return err
		}
		if err := validate(&ticket); err != nil {
			return err
		}
		now := time.Now()
		ticket.Status = model.TicketStatusUsed
		ticket.UsedAt = &now
		return tx.Save(&ticket).Error
	})
	if ticket.ID == uuid.Nil {
		return nil, err
	}
	return &ticket, err
}

func (r *pgTicketRepository) CountSold(ctx context.Context) (int64, float64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("status <> ?", model.TicketStatusRefunded).
		Count(&count).Error; err != nil {
		return 0, 0, err
	}

	var revenue float64
	if err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("status <> ?", model.TicketStatusRefunded).
		Select("COALESCE(SUM(price), 0)").
		Scan(&revenue).Error; err != nil {
		return 0, 0, err
	}
	return count, revenue, nil
}
