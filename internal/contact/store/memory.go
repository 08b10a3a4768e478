// Package store persists contact messages. Implementations return sentinel
// errors: ErrNotFound for missing records, ErrUnavailable for backend faults.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"msmeclinic/internal/contact/models"
	"msmeclinic/pkg/platform/sentinel"
)

// Clock supplies timestamps; tests pin it.
type Clock func() time.Time

// InMemoryStore keeps contact messages in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Message
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

// NewInMemoryStore constructs an empty in-memory contact message store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[uuid.UUID]*models.Message),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create persists a new message in the unread state.
func (s *InMemoryStore) Create(_ context.Context, sub models.Submission) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	rec := &models.Message{
		ID:        uuid.New(),
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     strings.ToLower(strings.TrimSpace(sub.Email)),
		Subject:   sub.Subject,
		Message:   sub.Message,
		Status:    models.StatusUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[rec.ID] = rec

	out := *rec
	return &out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		out := *rec
		return &out, nil
	}
	return nil, fmt.Errorf("contact message %s: %w", id, sentinel.ErrNotFound)
}

// UpdateStatus sets the triage state, optionally replacing the admin notes.
// Moving to replied stamps RepliedAt once.
func (s *InMemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status, adminNotes *string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("contact message %s: %w", id, sentinel.ErrNotFound)
	}

	now := s.clock()
	rec.Status = status
	if adminNotes != nil {
		rec.AdminNotes = *adminNotes
	}
	if status == models.StatusReplied && rec.RepliedAt == nil {
		rec.RepliedAt = &now
	}
	rec.UpdatedAt = now

	out := *rec
	return &out, nil
}

// List returns a page of messages matching the filter, newest first, along
// with the total match count.
func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Message, int, error) {
	filter.Normalize()

	s.mu.RLock()
	matched := make([]*models.Message, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Status != "" && string(rec.Status) != filter.Status {
			continue
		}
		out := *rec
		matched = append(matched, &out)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := (filter.Page - 1) * filter.Limit
	if offset >= total {
		return []*models.Message{}, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// CountUnread reports how many messages await triage.
func (s *InMemoryStore) CountUnread(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, rec := range s.records {
		if rec.Status == models.StatusUnread {
			count++
		}
	}
	return count, nil
}
