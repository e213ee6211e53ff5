package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/mailtmpl"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

type ContactUsecase struct {
	contacts   repo.ContactRepository
	notifier   notify.Dispatcher
	idGen      IDGenerator
	clock      Clock
	adminEmail string
}

func NewContactUsecase(contacts repo.ContactRepository, notifier notify.Dispatcher, idGen IDGenerator, clock Clock, adminEmail string) *ContactUsecase {
	return &ContactUsecase{contacts: contacts, notifier: notifier, idGen: idGen, clock: clock, adminEmail: adminEmail}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) error {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || message == "" {
		return NewHTTPError(http.StatusBadRequest, "Name, email, and message are required")
	}

	m := model.ContactMessage{
		ID:        u.idGen.NewID(),
		Name:      name,
		Email:     email,
		Subject:   strings.TrimSpace(in.Subject),
		Message:   message,
		CreatedAt: u.clock.Now(),
	}
	if err := u.contacts.Create(ctx, &m); err != nil {
		slog.ErrorContext(ctx, "save contact message failed", "err", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to send message")
	}

	if u.adminEmail != "" {
		subject := m.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		if r, err := mailtmpl.ContactNotification(name, email, subject, message); err == nil {
			dispatchEmail(ctx, u.notifier, u.adminEmail, email, "contact:"+m.ID, r)
		}
	}
	return nil
}
