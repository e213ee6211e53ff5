package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type TicketRepository interface {
	Create(ctx context.Context, t *model.Ticket) error
	FindByID(ctx context.Context, ticketID string) (model.Ticket, error)
	//新しい順。messagesは古い順でpreload
	ListByEmail(ctx context.Context, email string) ([]model.Ticket, error)
	//管理者一覧。statusが空なら全件
	List(ctx context.Context, status string) ([]model.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID string, status model.TicketStatus, now time.Time) error
	AddMessage(ctx context.Context, m *model.TicketMessage) error
}

type ContactRepository interface {
	Create(ctx context.Context, m *model.ContactMessage) error
}
