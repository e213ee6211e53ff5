package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type TicketGormRepository struct {
	db *gorm.DB
}

func NewTicketGormRepository(db *gorm.DB) *TicketGormRepository {
	return &TicketGormRepository{db: db}
}

// messagesも一緒に作る（gormのassociation）
func (r *TicketGormRepository) Create(ctx context.Context, t *model.Ticket) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return mapErr(err, "create ticket")
	}
	return nil
}

func (r *TicketGormRepository) FindByID(ctx context.Context, ticketID string) (model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Messages", orderMessages).
		Where("id = ?", ticketID).
		First(&t).Error
	if err != nil {
		return model.Ticket{}, mapErr(err, "find ticket")
	}
	return t, nil
}

func (r *TicketGormRepository) ListByEmail(ctx context.Context, email string) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Messages", orderMessages).
		Where("email = ?", email).
		Order("created_at desc").
		Find(&tickets).Error
	if err != nil {
		return nil, mapErr(err, "list tickets by email")
	}
	return tickets, nil
}

func (r *TicketGormRepository) List(ctx context.Context, status string) ([]model.Ticket, error) {
	q := r.db.WithContext(ctx).Preload("Messages", orderMessages)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tickets []model.Ticket
	if err := q.Order("created_at desc").Find(&tickets).Error; err != nil {
		return nil, mapErr(err, "list tickets")
	}
	return tickets, nil
}

func (r *TicketGormRepository) UpdateStatus(ctx context.Context, ticketID string, status model.TicketStatus, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("id = ?", ticketID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": now,
		})
	if res.Error != nil {
		return mapErr(res.Error, "update ticket status")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TicketGormRepository) AddMessage(ctx context.Context, m *model.TicketMessage) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapErr(err, "add ticket message")
	}
	return nil
}

func orderMessages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at asc")
}

type ContactGormRepository struct {
	db *gorm.DB
}

func NewContactGormRepository(db *gorm.DB) *ContactGormRepository {
	return &ContactGormRepository{db: db}
}

func (r *ContactGormRepository) Create(ctx context.Context, m *model.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return mapErr(err, "create contact message")
	}
	return nil
}
