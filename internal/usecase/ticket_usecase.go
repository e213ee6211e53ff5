package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/mailtmpl"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

// 管理者返信の送信者名
const SupportSenderName = "Secured Tampa Support"

type TicketUsecase struct {
	tx         repo.TransactionManager
	tickets    repo.TicketRepository
	notifier   notify.Dispatcher
	idGen      IDGenerator
	clock      Clock
	adminEmail string
}

func NewTicketUsecase(
	tx repo.TransactionManager,
	tickets repo.TicketRepository,
	notifier notify.Dispatcher,
	idGen IDGenerator,
	clock Clock,
	adminEmail string,
) *TicketUsecase {
	return &TicketUsecase{
		tx:         tx,
		tickets:    tickets,
		notifier:   notifier,
		idGen:      idGen,
		clock:      clock,
		adminEmail: adminEmail,
	}
}

type CreateTicketInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Category    string `json:"category"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	OrderNumber string `json:"orderNumber"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validTicketStatus(s model.TicketStatus) bool {
	switch s {
	case model.TicketStatusOpen, model.TicketStatusInProgress, model.TicketStatusResolved, model.TicketStatusClosed:
		return true
	}
	return false
}

// Create opens a ticket with its first customer message.
func (u *TicketUsecase) Create(ctx context.Context, in CreateTicketInput) (model.Ticket, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	category := strings.TrimSpace(in.Category)
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || category == "" || subject == "" || message == "" {
		return model.Ticket{}, NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	now := u.clock.Now()
	t := model.Ticket{
		ID:        u.idGen.NewID(),
		Name:      name,
		Email:     email,
		Category:  category,
		Subject:   subject,
		Status:    model.TicketStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if on := strings.TrimSpace(in.OrderNumber); on != "" {
		t.OrderNumber = &on
	}
	t.Messages = []model.TicketMessage{{
		ID:         u.idGen.NewID(),
		TicketID:   t.ID,
		SenderType: model.SenderCustomer,
		SenderName: name,
		Message:    message,
		CreatedAt:  now,
	}}

	if err := u.tickets.Create(ctx, &t); err != nil {
		slog.ErrorContext(ctx, "create ticket failed", "err", err)
		return model.Ticket{}, NewHTTPError(http.StatusInternalServerError, "Failed to create ticket")
	}

	if r, err := mailtmpl.TicketConfirmation(name, subject); err == nil {
		dispatchEmail(ctx, u.notifier, email, "", "ticket:"+t.ID, r)
	} else {
		slog.ErrorContext(ctx, "render ticket confirmation failed", "err", err)
	}
	if u.adminEmail != "" {
		if r, err := mailtmpl.TicketNotification(name, email, subject, category); err == nil {
			dispatchEmail(ctx, u.notifier, u.adminEmail, email, "ticket:"+t.ID, r)
		}
	}
	return t, nil
}

// Lookup returns the customer's tickets, newest first, messages oldest first.
func (u *TicketUsecase) Lookup(ctx context.Context, email string) ([]model.Ticket, error) {
	e := normalizeEmail(email)
	if e == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	tickets, err := u.tickets.ListByEmail(ctx, e)
	if err != nil {
		slog.ErrorContext(ctx, "lookup tickets failed", "err", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "Failed to fetch tickets")
	}
	return tickets, nil
}

// AddCustomerMessage appends a follow-up. The email must own the ticket.
func (u *TicketUsecase) AddCustomerMessage(ctx context.Context, ticketID, email, message string) (model.TicketMessage, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return model.TicketMessage{}, NewHTTPError(http.StatusBadRequest, "Message is required")
	}

	t, err := u.tickets.FindByID(ctx, ticketID)
	// 他人のチケットは存在しない扱い
	if isNotFound(err) || (err == nil && t.Email != normalizeEmail(email)) {
		return model.TicketMessage{}, NewHTTPError(http.StatusNotFound, "Ticket not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find ticket failed", "err", err)
		return model.TicketMessage{}, NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}

	m := model.TicketMessage{
		ID:         u.idGen.NewID(),
		TicketID:   t.ID,
		SenderType: model.SenderCustomer,
		SenderName: t.Name,
		Message:    msg,
		CreatedAt:  u.clock.Now(),
	}
	if err := u.tickets.AddMessage(ctx, &m); err != nil {
		slog.ErrorContext(ctx, "add ticket message failed", "err", err)
		return model.TicketMessage{}, NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}
	return m, nil
}

// Reply appends an admin message. The first reply on an open ticket moves it
// to in_progress. The customer email is fire-and-forget.
func (u *TicketUsecase) Reply(ctx context.Context, ticketID, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return NewHTTPError(http.StatusBadRequest, "Message is required")
	}

	now := u.clock.Now()
	var ticket model.Ticket
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tickets().FindByID(ctx, ticketID)
		if isNotFound(err) {
			return NewHTTPError(http.StatusNotFound, "Ticket not found")
		}
		if err != nil {
			return err
		}
		ticket = t

		if err := r.Tickets().AddMessage(ctx, &model.TicketMessage{
			ID:         u.idGen.NewID(),
			TicketID:   t.ID,
			SenderType: model.SenderAdmin,
			SenderName: SupportSenderName,
			Message:    msg,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if t.Status == model.TicketStatusOpen {
			return r.Tickets().UpdateStatus(ctx, t.ID, model.TicketStatusInProgress, now)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return err
		}
		slog.ErrorContext(ctx, "ticket reply failed", "ticket_id", ticketID, "err", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to send reply")
	}

	if r, err := mailtmpl.TicketReply(ticket.Name, ticket.Subject, msg); err == nil {
		dispatchEmail(ctx, u.notifier, ticket.Email, "", "ticket:"+ticket.ID, r)
	} else {
		slog.ErrorContext(ctx, "render ticket reply failed", "err", err)
	}
	return nil
}

// 管理者一覧
func (u *TicketUsecase) List(ctx context.Context, status string) ([]model.Ticket, error) {
	s := strings.TrimSpace(status)
	if s != "" && !validTicketStatus(model.TicketStatus(s)) {
		return nil, NewHTTPError(http.StatusBadRequest, "Invalid status")
	}
	tickets, err := u.tickets.List(ctx, s)
	if err != nil {
		slog.ErrorContext(ctx, "list tickets failed", "err", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "Failed to fetch tickets")
	}
	return tickets, nil
}

func (u *TicketUsecase) UpdateStatus(ctx context.Context, actorUserID, ticketID, status string) error {
	next := model.TicketStatus(strings.TrimSpace(status))
	if !validTicketStatus(next) {
		return NewHTTPError(http.StatusBadRequest, "Invalid status")
	}

	now := u.clock.Now()
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Tickets().FindByID(ctx, ticketID)
		if isNotFound(err) {
			return NewHTTPError(http.StatusNotFound, "Ticket not found")
		}
		if err != nil {
			return err
		}
		if t.Status == next {
			return nil
		}
		if err := r.Tickets().UpdateStatus(ctx, t.ID, next, now); err != nil {
			return err
		}

		beforeJSON, _ := json.Marshal(map[string]string{"status": string(t.Status)})
		afterJSON, _ := json.Marshal(map[string]string{"status": string(next)})
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateTicketStatus,
			ResourceType: model.AuditResourceTicket,
			ResourceID:   t.ID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return err
		}
		slog.ErrorContext(ctx, "update ticket status failed", "ticket_id", ticketID, "err", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to update ticket")
	}
	return nil
}
