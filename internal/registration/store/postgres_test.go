package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"msmeclinic/internal/registration/models"
	"msmeclinic/pkg/platform/sentinel"
)

func TestTranslatePgError(t *testing.T) {
	t.Run("unique violation maps to conflict", func(t *testing.T) {
		err := translatePgError("insert registration", &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "registrations_email_unique",
		})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
		assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Contains(t, err.Error(), "insert registration")
	})

	t.Run("wrapped unique violation still maps to conflict", func(t *testing.T) {
		inner := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, translatePgError("commit registration", inner), sentinel.ErrConflict)
	})

	t.Run("other pg error maps to unavailable", func(t *testing.T) {
		err := translatePgError("insert registration", &pgconn.PgError{Code: "23502"})
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.NotErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("plain error maps to unavailable", func(t *testing.T) {
		err := translatePgError("list registrations", errors.New("dial tcp: connection refused"))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestBuildListWhere(t *testing.T) {
	dateFrom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dateTo := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    models.ListFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "empty filter",
			filter:    models.ListFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "status only",
			filter:    models.ListFilter{Status: "confirmed"},
			wantWhere: " WHERE status = $1",
			wantArgs:  []any{"confirmed"},
		},
		{
			name: "equality filters number placeholders in order",
			filter: models.ListFilter{
				Status:          "pending",
				BusinessType:    "retail",
				YearsInBusiness: "2-3",
			},
			wantWhere: " WHERE status = $1 AND business_type = $2 AND years_in_business = $3",
			wantArgs:  []any{"pending", "retail", "2-3"},
		},
		{
			name:      "date range",
			filter:    models.ListFilter{DateFrom: &dateFrom, DateTo: &dateTo},
			wantWhere: " WHERE created_at >= $1 AND created_at <= $2",
			wantArgs:  []any{dateFrom, dateTo},
		},
		{
			name:      "search reuses a single argument across columns",
			filter:    models.ListFilter{Search: "bello"},
			wantWhere: " WHERE (first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1 OR business_name ILIKE $1)",
			wantArgs:  []any{"%bello%"},
		},
		{
			name:      "status and search",
			filter:    models.ListFilter{Status: "pending", Search: "okafor"},
			wantWhere: " WHERE status = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2 OR business_name ILIKE $2)",
			wantArgs:  []any{"pending", "%okafor%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildListWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
