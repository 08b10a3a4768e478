package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"msmeclinic/internal/registration/models"
	"msmeclinic/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Registration
	clock   Clock
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemoryStore constructs an empty in-memory registration store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[uuid.UUID]*models.Registration),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create assigns identifiers and persists the submission. The yearly sequence
// is computed with the same count-then-use semantics as the postgres store;
// here the surrounding mutex makes it race-free.
func (s *InMemoryStore) Create(_ context.Context, sub models.Submission) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(sub.Email))
	for _, rec := range s.records {
		if rec.Email == email {
			return nil, fmt.Errorf("email %q already registered: %w", email, sentinel.ErrConflict)
		}
	}

	now := s.clock()
	start, end := yearBounds(now)
	seq := 1
	for _, rec := range s.records {
		if !rec.CreatedAt.Before(start) && rec.CreatedAt.Before(end) {
			seq++
		}
	}

	rec := &models.Registration{
		ID:              uuid.New(),
		RegistrationID:  formatRegistrationID(now.Year(), seq),
		ParticipantID:   newParticipantID(now),
		FirstName:       sub.FirstName,
		LastName:        sub.LastName,
		Email:           email,
		Phone:           sub.Phone,
		AboutBusiness:   sub.AboutBusiness,
		CacNo:           sub.CacNo,
		KasedaCertNo:    sub.KasedaCertNo,
		BusinessName:    sub.BusinessName,
		BusinessType:    sub.BusinessType,
		BusinessAddress: sub.BusinessAddress,
		YearsInBusiness: sub.YearsInBusiness,
		Expectations:    sub.Expectations,
		AvailableFrom:   sub.AvailableFrom,
		PreferredTime:   sub.PreferredTime,
		AdditionalInfo:  sub.AdditionalInfo,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.records[rec.ID] = rec

	out := *rec
	return &out, nil
}

// FindByEmail matches case-insensitively.
func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, rec := range s.records {
		if rec.Email == email {
			out := *rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("registration for %q: %w", email, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		out := *rec
		return &out, nil
	}
	return nil, fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByRegistrationID(_ context.Context, registrationID string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.RegistrationID == registrationID {
			out := *rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("registration %q: %w", registrationID, sentinel.ErrNotFound)
}

// UpdateStatus sets the workflow status and returns the updated record.
func (s *InMemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
	}
	rec.Status = status
	rec.UpdatedAt = s.clock()
	out := *rec
	return &out, nil
}

// DeleteByID removes a record. Used only for compensation.
func (s *InMemoryStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// List returns a page of registrations matching the filter, newest first,
// along with the total match count.
func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Registration, int, error) {
	filter.Normalize()

	s.mu.RLock()
	matched := make([]*models.Registration, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, filter) {
			out := *rec
			matched = append(matched, &out)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := (filter.Page - 1) * filter.Limit
	if offset >= total {
		return []*models.Registration{}, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Aggregate computes the analytics rollup.
func (s *InMemoryStore) Aggregate(_ context.Context) (*models.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := &models.Analytics{
		ByStatus:          make(map[string]int),
		ByBusinessType:    make(map[string]int),
		ByYearsInBusiness: make(map[string]int),
	}
	weekAgo := s.clock().AddDate(0, 0, -7)
	for _, rec := range s.records {
		agg.Total++
		agg.ByStatus[string(rec.Status)]++
		agg.ByBusinessType[rec.BusinessType]++
		agg.ByYearsInBusiness[rec.YearsInBusiness]++
		if rec.CreatedAt.After(weekAgo) {
			agg.Last7Days++
		}
	}
	return agg, nil
}

func matches(rec *models.Registration, f models.ListFilter) bool {
	if f.Status != "" && string(rec.Status) != f.Status {
		return false
	}
	if f.BusinessType != "" && rec.BusinessType != f.BusinessType {
		return false
	}
	if f.YearsInBusiness != "" && rec.YearsInBusiness != f.YearsInBusiness {
		return false
	}
	if f.DateFrom != nil && rec.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && rec.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(rec.FirstName + " " + rec.LastName + " " + rec.Email + " " + rec.BusinessName)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
