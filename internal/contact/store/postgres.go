package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"msmeclinic/internal/contact/models"
	"msmeclinic/pkg/platform/sentinel"
)

const messageColumns = `id, first_name, last_name, email, subject, message,
	status, admin_notes, replied_at, created_at, updated_at`

// PostgresStore persists contact messages in PostgreSQL.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed contact message store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create persists a new message in the unread state.
func (s *PostgresStore) Create(ctx context.Context, sub models.Submission) (*models.Message, error) {
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO contact_messages (`+messageColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.FirstName, rec.LastName, rec.Email, rec.Subject, rec.Message,
		rec.Status, rec.AdminNotes, rec.RepliedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contact message: %v: %w", err, sentinel.ErrUnavailable)
	}
	return rec, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	rec, err := scanMessage(s.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contact message %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find contact message: %v: %w", err, sentinel.ErrUnavailable)
	}
	return rec, nil
}

// UpdateStatus sets the triage state, optionally replacing the admin notes.
// Moving to replied stamps replied_at once.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, adminNotes *string) (*models.Message, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE contact_messages SET
			status = $2,
			admin_notes = COALESCE($3, admin_notes),
			replied_at = CASE WHEN $2 = 'replied' THEN COALESCE(replied_at, $4) ELSE replied_at END,
			updated_at = $4
		WHERE id = $1
		RETURNING `+messageColumns,
		id, status, adminNotes, s.clock())
	rec, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contact message %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("update contact message: %v: %w", err, sentinel.ErrUnavailable)
	}
	return rec, nil
}

// List returns a page of messages matching the filter, newest first, along
// with the total match count.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Message, int, error) {
	filter.Normalize()

	where := ""
	args := []any{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, filter.Status)
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM contact_messages`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %v: %w", err, sentinel.ErrUnavailable)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM contact_messages%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		messageColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %v: %w", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	out := make([]*models.Message, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact message: %v: %w", err, sentinel.ErrUnavailable)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %v: %w", err, sentinel.ErrUnavailable)
	}
	return out, total, nil
}

// CountUnread reports how many messages await triage.
func (s *PostgresStore) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM contact_messages WHERE status = 'unread'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread contact messages: %v: %w", err, sentinel.ErrUnavailable)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var rec models.Message
	err := row.Scan(
		&rec.ID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Subject, &rec.Message,
		&rec.Status, &rec.AdminNotes, &rec.RepliedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
