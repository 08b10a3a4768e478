package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	dErrors "msmeclinic/pkg/domain-errors"

	"msmeclinic/internal/notification/mailer"
	notifmodels "msmeclinic/internal/notification/models"
	"msmeclinic/internal/platform/metrics"
	"msmeclinic/internal/registration/models"
	"msmeclinic/internal/registration/store"
)

type queued struct {
	To       string
	Subject  string
	Priority notifmodels.Priority
}

// fakeNotifier records enqueued messages.
type fakeNotifier struct {
	messages []queued
}

func (f *fakeNotifier) Enqueue(to, subject, _, _ string, priority notifmodels.Priority) uuid.UUID {
	f.messages = append(f.messages, queued{To: to, Subject: subject, Priority: priority})
	return uuid.New()
}

type ServiceSuite struct {
	suite.Suite
	svc      *Service
	store    *store.InMemoryStore
	notifier *fakeNotifier
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.store = store.NewInMemoryStore(store.WithClock(func() time.Time {
		return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	}))
	s.notifier = &fakeNotifier{}
	s.svc = New(logger, s.store, s.notifier, mailer.New("MSME Clinic"), metrics.New(prometheus.NewRegistry()), "ops@msmeclinic.ng")
}

func validBody(email string) []byte {
	payload := map[string]any{
		"firstName":       "Amina",
		"lastName":        "Bello",
		"email":           email,
		"phone":           "+2348012345678",
		"aboutBusiness":   "We weave and sell textiles.",
		"businessName":    "Bello Textiles",
		"businessType":    "retail",
		"businessAddress": "12 Market Rd, Kaduna",
		"yearsInBusiness": "2-3",
		"expectations":    "Grow export sales",
		"availability":    "immediately",
		"preferredTime":   "morning",
	}
	body, _ := json.Marshal(payload)
	return body
}

func (s *ServiceSuite) TestRegisterPersistsAndAssignsIdentifiers() {
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	s.Equal("REG-2024-001", reg.RegistrationID)
	s.Regexp(`^PART-\d{13}-[0-9A-Z]{5}$`, reg.ParticipantID)
	s.Equal(models.StatusPending, reg.Status)
	s.Empty(s.notifier.messages, "notifications are dispatched separately, after the response")
}

func (s *ServiceSuite) TestRegisterRejectsInvalidPayload() {
	body := validBody("amina@example.com")
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(body, &payload))
	payload["phone"] = "08012345678"
	delete(payload, "businessType")
	raw, _ := json.Marshal(payload)

	_, err := s.svc.Register(context.Background(), raw)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	de := dErrors.From(err)
	s.Require().NotEmpty(de.Fields)
	seen := map[string]bool{}
	for _, f := range de.Fields {
		seen[f.Field] = true
	}
	s.True(seen["phone"])
	s.True(seen["businessType"])
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	_, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	_, err = s.svc.Register(context.Background(), validBody("Amina@Example.com"))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeDuplicateEmail))
	s.Equal("This email is already registered for the event", dErrors.From(err).Message)
}

func (s *ServiceSuite) TestRegisterSequenceIncrementsWithinYear() {
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		reg, err := s.svc.Register(context.Background(), validBody(email))
		s.Require().NoError(err)
		s.Equal(i+1, int(reg.RegistrationID[len(reg.RegistrationID)-1]-'0'))
	}
	reg, err := s.store.FindByEmail(context.Background(), "c@x.com")
	s.Require().NoError(err)
	s.Equal("REG-2024-003", reg.RegistrationID)
}

func (s *ServiceSuite) TestNotifyRegisteredQueuesConfirmationAndOpsAlert() {
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	s.svc.NotifyRegistered(reg)

	s.Require().Len(s.notifier.messages, 2)
	s.Equal("amina@example.com", s.notifier.messages[0].To)
	s.Equal(mailer.SubjectConfirmation, s.notifier.messages[0].Subject)
	s.Equal(notifmodels.PriorityHigh, s.notifier.messages[0].Priority)
	s.Equal("ops@msmeclinic.ng", s.notifier.messages[1].To)
	s.Equal(mailer.SubjectOpsAlert, s.notifier.messages[1].Subject)
}

func (s *ServiceSuite) TestNotifyRegisteredSkipsOpsAlertWhenUnset() {
	s.svc.opsEmail = ""
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	s.svc.NotifyRegistered(reg)
	s.Require().Len(s.notifier.messages, 1)
	s.Equal(mailer.SubjectConfirmation, s.notifier.messages[0].Subject)
}

func (s *ServiceSuite) TestDiscardRemovesPersistedRecord() {
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Discard(context.Background(), reg.ID))

	_, err = s.svc.Get(context.Background(), reg.RegistrationID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetByRegistrationIDAndByStorageID() {
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	byRegID, err := s.svc.Get(context.Background(), reg.RegistrationID)
	s.Require().NoError(err)
	s.Equal(reg.ID, byRegID.ID)

	byID, err := s.svc.Get(context.Background(), reg.ID.String())
	s.Require().NoError(err)
	s.Equal(reg.RegistrationID, byID.RegistrationID)

	_, err = s.svc.Get(context.Background(), "nonsense")
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateStatusQueuesStatusEmail() {
	reg, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	updated, err := s.svc.UpdateStatus(context.Background(), reg.RegistrationID, models.StatusConfirmed)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, updated.Status)

	s.Require().Len(s.notifier.messages, 1)
	s.Equal(mailer.SubjectStatusUpdate, s.notifier.messages[0].Subject)
	s.Equal("amina@example.com", s.notifier.messages[0].To)
}

func (s *ServiceSuite) TestUpdateStatusRejectsUnknownState() {
	_, err := s.svc.UpdateStatus(context.Background(), "REG-2024-001", models.Status("approved"))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestResendConfirmation() {
	_, err := s.svc.Register(context.Background(), validBody("amina@example.com"))
	s.Require().NoError(err)

	reg, err := s.svc.ResendConfirmation(context.Background(), "AMINA@example.com")
	s.Require().NoError(err)
	s.Equal("amina@example.com", reg.Email)
	s.Require().Len(s.notifier.messages, 1)
	s.Equal(mailer.SubjectConfirmation, s.notifier.messages[0].Subject)
}

func (s *ServiceSuite) TestResendConfirmationUnknownEmail() {
	_, err := s.svc.ResendConfirmation(context.Background(), "nobody@example.com")
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
	s.Equal("No registration found for this email", dErrors.From(err).Message)
}

func (s *ServiceSuite) TestListNormalizesPaging() {
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := s.svc.Register(context.Background(), validBody(email))
		s.Require().NoError(err)
	}

	regs, total, err := s.svc.List(context.Background(), models.ListFilter{Page: -5, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(regs, 2)
}

func (s *ServiceSuite) TestAnalytics() {
	for _, email := range []string{"a@x.com", "b@x.com"} {
		_, err := s.svc.Register(context.Background(), validBody(email))
		s.Require().NoError(err)
	}

	agg, err := s.svc.Analytics(context.Background())
	s.Require().NoError(err)
	s.Equal(2, agg.Total)
	s.Equal(2, agg.ByStatus["pending"])
	s.Equal(2, agg.ByBusinessType["retail"])
}
