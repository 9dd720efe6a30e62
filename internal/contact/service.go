package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// SuccessMessage is shown after a message has been stored
const SuccessMessage = "Message sent successfully! We'll get back to you soon."

var ErrValidation = errors.New("contact form is invalid")

// ValidationError carries every failing field
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "contact form is invalid: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// MessageStore persists contact messages
type MessageStore interface {
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	ListContactMessages(ctx context.Context, filters models.ContactFilters) ([]*models.ContactMessage, error)
}

// Service handles contact form submissions
type Service struct {
	store MessageStore
	now   func() time.Time
}

// NewService creates a contact service
func NewService(store MessageStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Submit validates the form and stores it
func (s *Service) Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	if fields := Validate(req); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	msg := &models.ContactMessage{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.CreateContactMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	slog.Info("contact message received",
		"message_id", msg.ID,
		"subject", msg.Subject,
	)
	return msg, nil
}

// List returns stored messages, newest first
func (s *Service) List(ctx context.Context, filters models.ContactFilters) ([]*models.ContactMessage, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	msgs, err := s.store.ListContactMessages(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return msgs, nil
}
