//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"msmeclinic/internal/contact/models"
	"msmeclinic/internal/contact/store"
	"msmeclinic/pkg/platform/sentinel"
	"msmeclinic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.Pool,
		store.WithPostgresClock(func() time.Time { return s.now }))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "contact_messages"))
}

func (s *PostgresStoreSuite) submit(email string) *models.Message {
	msg, err := s.store.Create(context.Background(), models.Submission{
		FirstName: "Chidi",
		LastName:  "Okafor",
		Email:     email,
		Subject:   "Partnership inquiry",
		Message:   "I would like to discuss a partnership.",
	})
	s.Require().NoError(err)
	s.now = s.now.Add(time.Minute)
	return msg
}

func (s *PostgresStoreSuite) TestCreateStartsUnread() {
	msg := s.submit("Chidi@Example.com")

	s.Equal(models.StatusUnread, msg.Status)
	s.Equal("chidi@example.com", msg.Email)
	s.Nil(msg.RepliedAt)

	stored, err := s.store.FindByID(context.Background(), msg.ID)
	s.Require().NoError(err)
	s.Equal(msg.Subject, stored.Subject)
	s.Equal(models.StatusUnread, stored.Status)
	s.True(stored.CreatedAt.Equal(msg.CreatedAt))
}

func (s *PostgresStoreSuite) TestFindUnknownIsNotFound() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRepliedAtStampedOnce() {
	ctx := context.Background()
	msg := s.submit("chidi@example.com")

	notes := "answered by phone"
	replied, err := s.store.UpdateStatus(ctx, msg.ID, models.StatusReplied, &notes)
	s.Require().NoError(err)
	s.Require().NotNil(replied.RepliedAt)
	firstReply := *replied.RepliedAt

	// Later transitions must not move the original reply timestamp.
	s.now = s.now.Add(time.Hour)
	archived, err := s.store.UpdateStatus(ctx, msg.ID, models.StatusArchived, nil)
	s.Require().NoError(err)
	s.Require().NotNil(archived.RepliedAt)
	s.True(archived.RepliedAt.Equal(firstReply))

	s.now = s.now.Add(time.Hour)
	again, err := s.store.UpdateStatus(ctx, msg.ID, models.StatusReplied, nil)
	s.Require().NoError(err)
	s.True(again.RepliedAt.Equal(firstReply))
}

func (s *PostgresStoreSuite) TestNilNotesKeepExisting() {
	ctx := context.Background()
	msg := s.submit("chidi@example.com")

	notes := "escalated to ops"
	_, err := s.store.UpdateStatus(ctx, msg.ID, models.StatusRead, &notes)
	s.Require().NoError(err)

	updated, err := s.store.UpdateStatus(ctx, msg.ID, models.StatusArchived, nil)
	s.Require().NoError(err)
	s.Equal("escalated to ops", updated.AdminNotes)

	replacement := "resolved"
	updated, err = s.store.UpdateStatus(ctx, msg.ID, models.StatusArchived, &replacement)
	s.Require().NoError(err)
	s.Equal("resolved", updated.AdminNotes)
}

func (s *PostgresStoreSuite) TestUpdateUnknownIsNotFound() {
	_, err := s.store.UpdateStatus(context.Background(), uuid.New(), models.StatusRead, nil)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersAndPages() {
	ctx := context.Background()
	first := s.submit("a@x.com")
	second := s.submit("b@x.com")
	third := s.submit("c@x.com")

	_, err := s.store.UpdateStatus(ctx, second.ID, models.StatusRead, nil)
	s.Require().NoError(err)

	msgs, total, err := s.store.List(ctx, models.ListFilter{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(msgs, 2)
	// Newest first.
	s.Equal(third.ID, msgs[0].ID)
	s.Equal(second.ID, msgs[1].ID)

	msgs, total, err = s.store.List(ctx, models.ListFilter{Status: "unread"})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(msgs, 2)
	s.Equal(third.ID, msgs[0].ID)
	s.Equal(first.ID, msgs[1].ID)
}

func (s *PostgresStoreSuite) TestCountUnread() {
	ctx := context.Background()
	s.submit("a@x.com")
	second := s.submit("b@x.com")

	count, err := s.store.CountUnread(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	_, err = s.store.UpdateStatus(ctx, second.ID, models.StatusRead, nil)
	s.Require().NoError(err)

	count, err = s.store.CountUnread(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}
