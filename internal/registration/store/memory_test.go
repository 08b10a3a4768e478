package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"msmeclinic/internal/registration/models"
	"msmeclinic/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
}

func submission(email string) models.Submission {
	return models.Submission{
		FirstName:       "Amina",
		LastName:        "Bello",
		Email:           email,
		Phone:           "+2348012345678",
		AboutBusiness:   "Textile trading in the central market",
		BusinessName:    "Bello Textiles",
		BusinessType:    "retail",
		BusinessAddress: "12 Market Road, Katsina",
		YearsInBusiness: "2-3",
		Expectations:    "Access to financing guidance",
		AvailableFrom:   "immediately",
		PreferredTime:   "morning",
	}
}

func (s *MemoryStoreSuite) TestCreateAssignsIdentifiers() {
	fixed := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(WithClock(func() time.Time { return fixed }))

	rec, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)

	s.NotEqual(uuid.Nil, rec.ID)
	s.Equal("REG-2024-001", rec.RegistrationID)
	s.Regexp(regexp.MustCompile(`^PART-\d{13}-[0-9A-Z]{5}$`), rec.ParticipantID)
	s.Equal(models.StatusPending, rec.Status)
	s.Equal(fixed, rec.CreatedAt)
}

func (s *MemoryStoreSuite) TestYearlySequenceIncrements() {
	fixed := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(WithClock(func() time.Time { return fixed }))

	_, err := store.Create(s.ctx, submission("one@example.com"))
	s.Require().NoError(err)
	_, err = store.Create(s.ctx, submission("two@example.com"))
	s.Require().NoError(err)

	third, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)
	s.Equal("REG-2024-003", third.RegistrationID)
}

func (s *MemoryStoreSuite) TestSequenceResetsAcrossYears() {
	now := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(WithClock(func() time.Time { return now }))

	first, err := store.Create(s.ctx, submission("dec@example.com"))
	s.Require().NoError(err)
	s.Equal("REG-2024-001", first.RegistrationID)

	now = time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC)
	second, err := store.Create(s.ctx, submission("jan@example.com"))
	s.Require().NoError(err)
	s.Equal("REG-2025-001", second.RegistrationID)
}

func (s *MemoryStoreSuite) TestDuplicateEmailRejected() {
	store := NewInMemoryStore()

	_, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)

	_, err = store.Create(s.ctx, submission("A@B.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	_, total, err := store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(1, total)
}

func (s *MemoryStoreSuite) TestFindByEmailCaseInsensitive() {
	store := NewInMemoryStore()
	created, err := store.Create(s.ctx, submission("Mixed.Case@Example.com"))
	s.Require().NoError(err)

	found, err := store.FindByEmail(s.ctx, "mixed.case@example.COM")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = store.FindByEmail(s.ctx, "absent@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpdateStatus() {
	store := NewInMemoryStore()
	rec, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)

	updated, err := store.UpdateStatus(s.ctx, rec.ID, models.StatusConfirmed)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, updated.Status)

	_, err = store.UpdateStatus(s.ctx, uuid.New(), models.StatusRejected)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDeleteByID() {
	store := NewInMemoryStore()
	rec, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)

	s.Require().NoError(store.DeleteByID(s.ctx, rec.ID))
	_, err = store.FindByID(s.ctx, rec.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(store.DeleteByID(s.ctx, rec.ID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestListFiltersAndPages() {
	now := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	store := NewInMemoryStore(WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))

	for i, email := range []string{"r1@x.com", "r2@x.com", "r3@x.com"} {
		sub := submission(email)
		if i == 2 {
			sub.BusinessType = "technology"
			sub.BusinessName = "Katsina Devs"
		}
		_, err := store.Create(s.ctx, sub)
		s.Require().NoError(err)
	}

	s.Run("filter by business type", func() {
		recs, total, err := store.List(s.ctx, models.ListFilter{BusinessType: "technology"})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(recs, 1)
		s.Equal("r3@x.com", recs[0].Email)
	})

	s.Run("search matches business name", func() {
		_, total, err := store.List(s.ctx, models.ListFilter{Search: "katsina devs"})
		s.Require().NoError(err)
		s.Equal(1, total)
	})

	s.Run("pages newest first", func() {
		recs, total, err := store.List(s.ctx, models.ListFilter{Page: 1, Limit: 2})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Require().Len(recs, 2)
		s.Equal("r3@x.com", recs[0].Email)

		rest, _, err := store.List(s.ctx, models.ListFilter{Page: 2, Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(rest, 1)
		s.Equal("r1@x.com", rest[0].Email)
	})
}

func (s *MemoryStoreSuite) TestAggregate() {
	store := NewInMemoryStore()
	rec, err := store.Create(s.ctx, submission("a@b.com"))
	s.Require().NoError(err)
	_, err = store.Create(s.ctx, submission("c@d.com"))
	s.Require().NoError(err)
	_, err = store.UpdateStatus(s.ctx, rec.ID, models.StatusConfirmed)
	s.Require().NoError(err)

	agg, err := store.Aggregate(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, agg.Total)
	s.Equal(1, agg.ByStatus["pending"])
	s.Equal(1, agg.ByStatus["confirmed"])
	s.Equal(2, agg.ByBusinessType["retail"])
	s.Equal(2, agg.Last7Days)
}
