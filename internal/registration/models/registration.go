package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the admin-driven workflow state of a registration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the known workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Closed enums for the business profile fields. The payload schema enforces
// these; they are exported so stores and tests share one source of truth.
var (
	BusinessTypes = []string{"retail", "manufacturing", "services", "technology", "healthcare", "education", "food", "agriculture", "other"}
	YearsBuckets  = []string{"0-1", "2-3", "4-5", "6-10", "10+"}
	Availability  = []string{"immediately", "1-month", "2-3-months", "3-6-months", "flexible"}
	PreferredTime = []string{"morning", "afternoon", "evening", "weekend", "flexible"}
)

// Registration is one applicant's persisted submission.
//
// RegistrationID has the form REG-<year>-<3-digit sequence> where the sequence
// counts submissions created within the calendar year. ParticipantID has the
// form PART-<epoch-millis>-<5-char uppercase token>. Both are assigned exactly
// once at creation and never change.
type Registration struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID string    `json:"registrationId"`
	ParticipantID  string    `json:"participantId"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	AboutBusiness   string `json:"aboutBusiness"`
	CacNo           string `json:"cacNo,omitempty"`
	KasedaCertNo    string `json:"kasedaCertNo,omitempty"`
	BusinessName    string `json:"businessName"`
	BusinessType    string `json:"businessType"`
	BusinessAddress string `json:"businessAddress"`
	YearsInBusiness string `json:"yearsInBusiness"`
	Expectations    string `json:"expectations"`
	AvailableFrom   string `json:"availability"`
	PreferredTime   string `json:"preferredTime"`
	AdditionalInfo  string `json:"additionalInfo,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins the applicant's names for notification templates.
func (r *Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Submission carries the validated intake payload into the store. Identifier,
// status and timestamp fields are assigned by the store, never by callers.
type Submission struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string

	AboutBusiness   string
	CacNo           string
	KasedaCertNo    string
	BusinessName    string
	BusinessType    string
	BusinessAddress string
	YearsInBusiness string
	Expectations    string
	AvailableFrom   string
	PreferredTime   string
	AdditionalInfo  string
}

// ListFilter selects and pages registrations for the admin surface.
type ListFilter struct {
	Status          string
	BusinessType    string
	YearsInBusiness string
	// Search matches first name, last name, email or business name,
	// case-insensitively.
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
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

// Analytics aggregates registration counts for the admin dashboard.
type Analytics struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"byStatus"`
	ByBusinessType    map[string]int `json:"byBusinessType"`
	ByYearsInBusiness map[string]int `json:"byYearsInBusiness"`
	Last7Days         int            `json:"last7Days"`
}
