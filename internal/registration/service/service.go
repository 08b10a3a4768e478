// Package service orchestrates the registration intake pipeline: payload
// validation, duplicate screening, persistence and detached notification
// dispatch.
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

	"msmeclinic/internal/notification/mailer"
	notifmodels "msmeclinic/internal/notification/models"
	"msmeclinic/internal/platform/metrics"
	"msmeclinic/internal/registration/models"
	"msmeclinic/internal/registration/schema"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	Create(ctx context.Context, sub models.Submission) (*models.Registration, error)
	FindByEmail(ctx context.Context, email string) (*models.Registration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByRegistrationID(ctx context.Context, registrationID string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Registration, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Registration, int, error)
	Aggregate(ctx context.Context) (*models.Analytics, error)
}

// Notifier accepts rendered messages for asynchronous delivery. Enqueue never
// blocks and never fails; delivery outcome is not reported back.
type Notifier interface {
	Enqueue(to, subject, html, text string, priority notifmodels.Priority) uuid.UUID
}

// Service is the registration domain service.
type Service struct {
	logger   *slog.Logger
	store    Store
	notifier Notifier
	mailer   *mailer.Mailer
	metrics  *metrics.Metrics
	opsEmail string
}

func New(logger *slog.Logger, store Store, notifier Notifier, m *mailer.Mailer, mt *metrics.Metrics, opsEmail string) *Service {
	return &Service{
		logger:   logger,
		store:    store,
		notifier: notifier,
		mailer:   m,
		metrics:  mt,
		opsEmail: opsEmail,
	}
}

type registerRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	AboutBusiness   string `json:"aboutBusiness"`
	CacNo           string `json:"cacNo"`
	KasedaCertNo    string `json:"kasedaCertNo"`
	BusinessName    string `json:"businessName"`
	BusinessType    string `json:"businessType"`
	BusinessAddress string `json:"businessAddress"`
	YearsInBusiness string `json:"yearsInBusiness"`
	Expectations    string `json:"expectations"`
	AvailableFrom   string `json:"availability"`
	PreferredTime   string `json:"preferredTime"`
	AdditionalInfo  string `json:"additionalInfo"`
}

// Register runs the synchronous portion of the intake pipeline: validate the
// raw payload, screen for duplicates, persist. Notification dispatch is the
// caller's next step (NotifyRegistered) once the response is committed.
func (s *Service) Register(ctx context.Context, body []byte) (*models.Registration, error) {
	if fields := schema.ValidateRegistration(body); len(fields) > 0 {
		return nil, dErrors.NewValidation(fields)
	}

	var req registerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Friendly pre-check; the store's uniqueness constraint is authoritative.
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		s.metrics.DuplicateEmails.Inc()
		return nil, dErrors.New(dErrors.CodeDuplicateEmail, "This email is already registered for the event")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	created, err := s.store.Create(ctx, models.Submission{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           email,
		Phone:           strings.TrimSpace(req.Phone),
		AboutBusiness:   req.AboutBusiness,
		CacNo:           req.CacNo,
		KasedaCertNo:    req.KasedaCertNo,
		BusinessName:    strings.TrimSpace(req.BusinessName),
		BusinessType:    req.BusinessType,
		BusinessAddress: req.BusinessAddress,
		YearsInBusiness: req.YearsInBusiness,
		Expectations:    req.Expectations,
		AvailableFrom:   req.AvailableFrom,
		PreferredTime:   req.PreferredTime,
		AdditionalInfo:  req.AdditionalInfo,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.DuplicateEmails.Inc()
			return nil, dErrors.New(dErrors.CodeDuplicateEmail, "This email is already registered for the event")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	s.metrics.RegistrationsCreated.Inc()
	s.logger.Info("registration created",
		"registration_id", created.RegistrationID,
		"participant_id", created.ParticipantID,
		"email", created.Email,
	)
	return created, nil
}

// Discard removes a record that was persisted but whose intake response could
// not be produced. This is the only path that deletes a registration outside
// the admin surface.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		s.logger.Error("compensating delete failed", "id", id, "error", err.Error())
		return err
	}
	s.logger.Warn("registration discarded after post-write failure", "id", id)
	return nil
}

// NotifyRegistered queues the applicant confirmation and the internal alert.
// Rendering failures are logged and swallowed: notification outcome never
// reaches the applicant's request.
func (s *Service) NotifyRegistered(reg *models.Registration) {
	if email, err := s.mailer.Confirmation(reg); err != nil {
		s.logger.Error("render confirmation failed", "registration_id", reg.RegistrationID, "error", err.Error())
	} else {
		s.notifier.Enqueue(email.To, email.Subject, email.HTML, email.Text, notifmodels.PriorityHigh)
	}

	if s.opsEmail == "" {
		return
	}
	if email, err := s.mailer.OpsAlert(s.opsEmail, reg); err != nil {
		s.logger.Error("render ops alert failed", "registration_id", reg.RegistrationID, "error", err.Error())
	} else {
		s.notifier.Enqueue(email.To, email.Subject, email.HTML, email.Text, notifmodels.PriorityNormal)
	}
}

// Get resolves a registration by its public registration id (REG-...) or by
// its storage id.
func (s *Service) Get(ctx context.Context, key string) (*models.Registration, error) {
	var (
		reg *models.Registration
		err error
	)
	if strings.HasPrefix(key, "REG-") {
		reg, err = s.store.FindByRegistrationID(ctx, key)
	} else if id, parseErr := uuid.Parse(key); parseErr == nil {
		reg, err = s.store.FindByID(ctx, id)
	} else {
		return nil, dErrors.New(dErrors.CodeNotFound, "Registration not found")
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return reg, nil
}

// UpdateStatus transitions a registration's workflow state and queues a
// status-update email to the applicant.
func (s *Service) UpdateStatus(ctx context.Context, key string, status models.Status) (*models.Registration, error) {
	if !status.Valid() {
		return nil, dErrors.NewValidation([]dErrors.FieldError{
			{Field: "status", Message: "status must be one of pending, confirmed, rejected"},
		})
	}

	reg, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateStatus(ctx, reg.ID, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registration not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	s.logger.Info("registration status updated",
		"registration_id", updated.RegistrationID,
		"status", updated.Status,
	)

	if email, mailErr := s.mailer.StatusUpdate(updated); mailErr != nil {
		s.logger.Error("render status update failed", "registration_id", updated.RegistrationID, "error", mailErr.Error())
	} else {
		s.notifier.Enqueue(email.To, email.Subject, email.HTML, email.Text, notifmodels.PriorityNormal)
	}
	return updated, nil
}

// ResendConfirmation re-queues the confirmation email for an existing
// registration, looked up by applicant email.
func (s *Service) ResendConfirmation(ctx context.Context, email string) (*models.Registration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.NewValidation([]dErrors.FieldError{
			{Field: "email", Message: "email is required"},
		})
	}

	reg, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "No registration found for this email")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}

	if rendered, mailErr := s.mailer.Confirmation(reg); mailErr != nil {
		s.logger.Error("render confirmation failed", "registration_id", reg.RegistrationID, "error", mailErr.Error())
	} else {
		s.notifier.Enqueue(rendered.To, rendered.Subject, rendered.HTML, rendered.Text, notifmodels.PriorityHigh)
	}
	return reg, nil
}

// List pages registrations for the admin surface.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Registration, int, error) {
	filter.Normalize()
	regs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return regs, total, nil
}

// Analytics aggregates registration counts for the admin dashboard.
func (s *Service) Analytics(ctx context.Context) (*models.Analytics, error) {
	agg, err := s.store.Aggregate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err)
	}
	return agg, nil
}
