package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a notification job through the queue.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Priority orders nothing today; it is carried for operator visibility in
// logs and the dead-letter record.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Job is one queued attempt to deliver a message. Jobs are ephemeral: a job
// that exhausts its attempts is logged (and dead-lettered when redis is
// configured), then dropped.
type Job struct {
	ID       uuid.UUID `json:"id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Text     string    `json:"text"`
	Priority Priority  `json:"priority"`

	Attempts      int       `json:"attempts"`
	Status        JobStatus `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	NextAttemptAt time.Time `json:"nextAttemptAt,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
}
