package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"msmeclinic/internal/registration/models"
	"msmeclinic/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const registrationColumns = `id, registration_id, participant_id, first_name, last_name, email, phone,
	about_business, cac_no, kaseda_cert_no, business_name, business_type, business_address,
	years_in_business, expectations, availability, preferred_time, additional_info,
	status, created_at, updated_at`

// PostgresStore persists registrations in PostgreSQL. The unique index on
// lower(email) is the authoritative uniqueness guarantee.
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

// NewPostgresStore constructs a PostgreSQL-backed registration store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create assigns identifiers and inserts the record. Count and insert run in
// one transaction; the yearly sequence is still count-then-use, so two
// concurrent same-year submissions can mint the same sequence number. That
// matches the documented behavior and is not silently fixed here.
func (s *PostgresStore) Create(ctx context.Context, sub models.Submission) (*models.Registration, error) {
	now := s.clock()
	start, end := yearBounds(now)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create: %v: %w", err, sentinel.ErrUnavailable)
	}
	defer tx.Rollback(ctx)

	var count int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE created_at >= $1 AND created_at < $2`,
		start, end,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("count yearly registrations: %v: %w", err, sentinel.ErrUnavailable)
	}

	rec := &models.Registration{
		ID:              uuid.New(),
		RegistrationID:  formatRegistrationID(now.Year(), count+1),
		ParticipantID:   newParticipantID(now),
		FirstName:       sub.FirstName,
		LastName:        sub.LastName,
		Email:           strings.ToLower(strings.TrimSpace(sub.Email)),
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

	_, err = tx.Exec(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		rec.ID, rec.RegistrationID, rec.ParticipantID, rec.FirstName, rec.LastName, rec.Email, rec.Phone,
		rec.AboutBusiness, rec.CacNo, rec.KasedaCertNo, rec.BusinessName, rec.BusinessType, rec.BusinessAddress,
		rec.YearsInBusiness, rec.Expectations, rec.AvailableFrom, rec.PreferredTime, rec.AdditionalInfo,
		rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, translatePgError("insert registration", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translatePgError("commit registration", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Registration, error) {
	return s.findOne(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.findOne(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
}

func (s *PostgresStore) FindByRegistrationID(ctx context.Context, registrationID string) (*models.Registration, error) {
	return s.findOne(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE registration_id = $1`, registrationID)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Registration, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING `+registrationColumns,
		id, status, s.clock())
	rec, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, translatePgError("update status", err)
	}
	return rec, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return translatePgError("delete registration", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Registration, int, error) {
	filter.Normalize()
	where, args := buildListWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM registrations`+where, args...).Scan(&total); err != nil {
		return nil, 0, translatePgError("count registrations", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM registrations%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		registrationColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError("list registrations", err)
	}
	defer rows.Close()

	out := make([]*models.Registration, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, translatePgError("scan registration", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translatePgError("list registrations", err)
	}
	return out, total, nil
}

func (s *PostgresStore) Aggregate(ctx context.Context) (*models.Analytics, error) {
	agg := &models.Analytics{
		ByStatus:          make(map[string]int),
		ByBusinessType:    make(map[string]int),
		ByYearsInBusiness: make(map[string]int),
	}

	for _, q := range []struct {
		column string
		dest   map[string]int
	}{
		{"status", agg.ByStatus},
		{"business_type", agg.ByBusinessType},
		{"years_in_business", agg.ByYearsInBusiness},
	} {
		rows, err := s.pool.Query(ctx,
			fmt.Sprintf(`SELECT %s, count(*) FROM registrations GROUP BY %s`, q.column, q.column))
		if err != nil {
			return nil, translatePgError("aggregate registrations", err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, translatePgError("scan aggregate", err)
			}
			q.dest[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, translatePgError("aggregate registrations", err)
		}
	}
	for _, n := range agg.ByStatus {
		agg.Total += n
	}

	weekAgo := s.clock().AddDate(0, 0, -7)
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM registrations WHERE created_at > $1`, weekAgo,
	).Scan(&agg.Last7Days); err != nil {
		return nil, translatePgError("count recent registrations", err)
	}
	return agg, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Registration, error) {
	rec, err := scanRegistration(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("registration %v: %w", arg, sentinel.ErrNotFound)
		}
		return nil, translatePgError("find registration", err)
	}
	return rec, nil
}

func buildListWhere(f models.ListFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.BusinessType != "" {
		add("business_type = $%d", f.BusinessType)
	}
	if f.YearsInBusiness != "" {
		add("years_in_business = $%d", f.YearsInBusiness)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}
	if f.Search != "" {
		add("(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR business_name ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var rec models.Registration
	err := row.Scan(
		&rec.ID, &rec.RegistrationID, &rec.ParticipantID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone,
		&rec.AboutBusiness, &rec.CacNo, &rec.KasedaCertNo, &rec.BusinessName, &rec.BusinessType, &rec.BusinessAddress,
		&rec.YearsInBusiness, &rec.Expectations, &rec.AvailableFrom, &rec.PreferredTime, &rec.AdditionalInfo,
		&rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// translatePgError maps database failures onto the store error contract.
func translatePgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %v: %w", op, err, sentinel.ErrUnavailable)
}
