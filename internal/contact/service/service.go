// Package service handles contact form intake and admin triage.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	dErrors "msmeclinic/pkg/domain-errors"
	"msmeclinic/pkg/platform/sentinel"

	"msmeclinic/internal/contact/models"
	"msmeclinic/internal/contact/schema"
	"msmeclinic/internal/notification/mailer"
	notifmodels "msmeclinic/internal/notification/models"
	"msmeclinic/internal/platform/metrics"
)

// Store is the persistence surface the contact service needs.
type Store interface {
	Create(ctx context.Context, sub models.Submission) (*models.Message, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, adminNotes *string) (*models.Message, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Message, int, error)
	CountUnread(ctx context.Context) (int, error)
}

// Notifier accepts rendered messages for asynchronous delivery.
type Notifier interface {
	Enqueue(to, subject, html, text string, priority notifmodels.Priority) uuid.UUID
}

// Service is the contact domain service.
type Service struct {
	logger     *slog.Logger
	store      Store
	notifier   Notifier
	mailer     *mailer.Mailer
	metrics    *metrics.Metrics
	adminEmail string
}

func New(logger *slog.Logger, store Store, notifier Notifier, m *mailer.Mailer, mt *metrics.Metrics, adminEmail string) *Service {
	return &Service{
		logger:     logger,
		store:      store,
		notifier:   notifier,
		mailer:     m,
		metrics:    mt,
		adminEmail: adminEmail,
	}
}

type contactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

// Submit validates and persists a contact message, then queues the internal
// alert. Notification outcome never reaches the sender's request.
func (s *Service) Submit(ctx context.Context, body []byte) (*models.Message, error) {
	if fields := schema.ValidateContact(body); len(fields) > 0 {
		return nil, dErrors.NewValidation(fields)
	}

	var req contactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err)
	}

	msg, err := s.store.Create(ctx, models.Submission{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	s.metrics.ContactMessages.Inc()
	s.logger.Info("contact message received", "id", msg.ID, "email", msg.Email, "subject", msg.Subject)

	if s.adminEmail != "" {
		if rendered, mailErr := s.mailer.ContactNotification(s.adminEmail, msg); mailErr != nil {
			s.logger.Error("render contact alert failed", "id", msg.ID, "error", mailErr.Error())
		} else {
			s.notifier.Enqueue(rendered.To, rendered.Subject, rendered.HTML, rendered.Text, notifmodels.PriorityNormal)
		}
	}
	return msg, nil
}

// Get fetches one message for the admin surface.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Contact message not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return msg, nil
}

// UpdateStatus transitions a message's triage state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, adminNotes *string) (*models.Message, error) {
	if !status.Valid() {
		return nil, dErrors.NewValidation([]dErrors.FieldError{
			{Field: "status", Message: "status must be one of unread, read, replied, archived"},
		})
	}

	msg, err := s.store.UpdateStatus(ctx, id, status, adminNotes)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Contact message not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	s.logger.Info("contact message status updated", "id", msg.ID, "status", msg.Status)
	return msg, nil
}

// List pages contact messages for the admin surface.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Message, int, error) {
	filter.Normalize()
	msgs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return msgs, total, nil
}

// UnreadCount reports how many messages await triage.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	count, err := s.store.CountUnread(ctx)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return count, nil
}
