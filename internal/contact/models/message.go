package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the admin-driven triage state of a contact message.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the known triage states.
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

// Message is one visitor enquiry from the public contact form.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Status     Status     `json:"status"`
	AdminNotes string     `json:"adminNotes,omitempty"`
	RepliedAt  *time.Time `json:"repliedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// FullName joins the sender's names for notification templates.
func (m *Message) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Submission carries a validated contact payload into the store.
type Submission struct {
	FirstName string
	LastName  string
	Email     string
	Subject   string
	Message   string
}

// ListFilter selects and pages contact messages for the admin surface.
type ListFilter struct {
	Status string
	Page   int
	Limit  int
}

// Normalize clamps paging values to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}
