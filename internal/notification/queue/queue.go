// Package queue implements the notification delivery policy: a single-flight
// FIFO in-process queue with per-attempt timeouts, an ordered channel
// fallback chain, exponential retry backoff and inter-job pacing.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"msmeclinic/internal/notification/channel"
	"msmeclinic/internal/notification/models"
	"msmeclinic/internal/platform/metrics"
	"msmeclinic/pkg/platform/sentinel"
)

// DeadLetter durably records jobs that exhausted their attempts. Optional.
type DeadLetter interface {
	Record(ctx context.Context, job *models.Job) error
}

// Config tunes the delivery policy.
type Config struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
	PacingDelay    time.Duration
}

// Queue is constructed once at process start and handed to whichever
// component needs to enqueue notifications. Enqueue never blocks; a single
// worker started by Run processes jobs one at a time.
type Queue struct {
	logger   *slog.Logger
	channels []channel.Channel
	cfg      Config
	dead     DeadLetter
	metrics  *metrics.Metrics
	clock    func() time.Time
	sleep    func(context.Context, time.Duration) error

	mu   sync.Mutex
	jobs []*models.Job
	wake chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithDeadLetter records exhausted jobs durably.
func WithDeadLetter(dl DeadLetter) Option {
	return func(q *Queue) { q.dead = dl }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithSleep replaces the pacing/backoff sleep, so tests run instantly.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(q *Queue) {
		if sleep != nil {
			q.sleep = sleep
		}
	}
}

// New builds the queue over an ordered channel fallback chain.
func New(logger *slog.Logger, m *metrics.Metrics, channels []channel.Channel, cfg Config, opts ...Option) *Queue {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	q := &Queue{
		logger:   logger,
		channels: channels,
		cfg:      cfg,
		metrics:  m,
		clock:    time.Now,
		sleep:    sleepCtx,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Enqueue queues one message for delivery and returns immediately. The
// returned ID is for log correlation only.
func (q *Queue) Enqueue(to, subject, html, text string, priority models.Priority) uuid.UUID {
	job := &models.Job{
		ID:        uuid.New(),
		To:        to,
		Subject:   subject,
		HTML:      html,
		Text:      text,
		Priority:  priority,
		Status:    models.JobPending,
		CreatedAt: q.clock(),
	}
	q.push(job)
	q.logger.Info("notification queued",
		"job_id", job.ID,
		"to", to,
		"subject", subject,
		"queue_depth", q.Depth(),
	)
	return job.ID
}

// Depth reports how many jobs are waiting.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Run processes jobs until ctx is cancelled. It is the only goroutine that
// mutates job state after enqueue, so jobs need no locking of their own.
func (q *Queue) Run(ctx context.Context) error {
	for {
		job := q.pop()
		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
				continue
			}
		}

		if wait := job.NextAttemptAt.Sub(q.clock()); wait > 0 {
			if err := q.sleep(ctx, wait); err != nil {
				return err
			}
		}

		q.process(ctx, job)

		// Small delay between jobs to respect recipient-side rate limits.
		if err := q.sleep(ctx, q.cfg.PacingDelay); err != nil {
			return err
		}
	}
}

func (q *Queue) process(ctx context.Context, job *models.Job) {
	job.Attempts++
	job.Status = models.JobProcessing
	q.metrics.NotificationAttempts.Inc()

	err := q.deliver(ctx, job)
	if err == nil {
		job.Status = models.JobCompleted
		q.metrics.NotificationsSent.Inc()
		q.logger.Info("notification sent",
			"job_id", job.ID,
			"to", job.To,
			"attempt", job.Attempts,
		)
		return
	}

	job.LastError = err.Error()
	if job.Attempts < q.cfg.MaxAttempts {
		job.Status = models.JobPending
		job.NextAttemptAt = q.clock().Add(q.backoff(job.Attempts))
		q.push(job)
		q.logger.Warn("notification attempt failed, requeued",
			"job_id", job.ID,
			"to", job.To,
			"attempt", job.Attempts,
			"next_attempt_at", job.NextAttemptAt,
			"error", err.Error(),
		)
		return
	}

	job.Status = models.JobFailed
	q.metrics.NotificationsFailed.Inc()
	q.logger.Error("notification dropped after exhausting attempts",
		"job_id", job.ID,
		"to", job.To,
		"attempts", job.Attempts,
		"error", err.Error(),
	)
	if q.dead != nil {
		if dlErr := q.dead.Record(ctx, job); dlErr != nil {
			q.logger.Error("dead-letter record failed",
				"job_id", job.ID,
				"error", dlErr.Error(),
			)
		}
	}
}

// deliver walks the fallback chain until one channel succeeds. Unconfigured
// channels are skipped without counting against anything; a chain where every
// channel fails counts as one failed attempt for the job.
func (q *Queue) deliver(ctx context.Context, job *models.Job) error {
	msg := channel.Message{To: job.To, Subject: job.Subject, HTML: job.HTML, Text: job.Text}

	var failures []string
	for _, ch := range q.channels {
		err := q.sendWithTimeout(ctx, ch, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrNotConfigured) {
			q.logger.Debug("channel not configured, skipping", "channel", ch.Name())
			failures = append(failures, ch.Name()+": not configured")
			continue
		}
		q.logger.Warn("channel failed, trying next",
			"channel", ch.Name(),
			"job_id", job.ID,
			"error", err.Error(),
		)
		failures = append(failures, ch.Name()+": "+err.Error())
	}
	return fmt.Errorf("all channels failed: %s", strings.Join(failures, "; "))
}

// sendWithTimeout races the channel call against the per-attempt budget. A
// hung channel must not block the queue indefinitely, so the send runs in its
// own goroutine and is abandoned on timeout.
func (q *Queue) sendWithTimeout(ctx context.Context, ch channel.Channel, msg channel.Message) error {
	actx, cancel := context.WithTimeout(ctx, q.cfg.AttemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ch.Send(actx, msg) }()

	select {
	case err := <-done:
		return err
	case <-actx.Done():
		return fmt.Errorf("channel %s: %v: %w", ch.Name(), actx.Err(), sentinel.ErrUnavailable)
	}
}

func (q *Queue) backoff(attempts int) time.Duration {
	// Base delay doubles per completed attempt.
	return q.cfg.BackoffBase << (attempts - 1)
}

func (q *Queue) push(job *models.Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	q.mu.Unlock()

	q.metrics.QueueDepth.Set(float64(depth))
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() *models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.metrics.QueueDepth.Set(float64(len(q.jobs)))
	return job
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
