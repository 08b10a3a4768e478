// Package handler exposes the authenticated admin surface: registration
// review, contact triage, CSV export and dashboard analytics.
package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "msmeclinic/pkg/domain-errors"

	"msmeclinic/internal/admin/auth"
	contactmodels "msmeclinic/internal/contact/models"
	contactservice "msmeclinic/internal/contact/service"
	notifmodels "msmeclinic/internal/notification/models"
	"msmeclinic/internal/platform/middleware"
	regmodels "msmeclinic/internal/registration/models"
	regservice "msmeclinic/internal/registration/service"
	"msmeclinic/internal/transport/http/shared"
)

const maxBodyBytes = 64 << 10

// DeadLetterReader exposes notification jobs that exhausted their delivery
// attempts. Nil when no dead-letter store is configured.
type DeadLetterReader interface {
	List(ctx context.Context, limit int64) ([]*notifmodels.Job, error)
}

type Handler struct {
	logger        *slog.Logger
	authenticator *auth.Authenticator
	registrations *regservice.Service
	contacts      *contactservice.Service
	deadLetters   DeadLetterReader
}

func New(logger *slog.Logger, authenticator *auth.Authenticator, registrations *regservice.Service, contacts *contactservice.Service, deadLetters DeadLetterReader) *Handler {
	return &Handler{
		logger:        logger,
		authenticator: authenticator,
		registrations: registrations,
		contacts:      contacts,
		deadLetters:   deadLetters,
	}
}

// Routes mounts the admin surface. Everything except login sits behind the
// bearer-token guard.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/admin/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.authenticator, h.logger))
		r.Get("/admin/registrations", h.listRegistrations)
		r.Get("/admin/registrations/export", h.exportRegistrations)
		r.Patch("/admin/registrations/{id}/status", h.updateRegistrationStatus)
		r.Get("/admin/analytics", h.analytics)
		r.Get("/admin/contact-messages", h.listContactMessages)
		r.Patch("/admin/contact-messages/{id}/status", h.updateContactStatus)
		r.Get("/admin/notifications/dead-letter", h.listDeadLetters)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	token, expiresAt, err := h.authenticator.Login(req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.Info("admin login", "email", req.Email)
	shared.WriteSuccess(w, http.StatusOK, "Login successful", map[string]any{
		"token":     token,
		"expiresAt": expiresAt,
	})
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	filter := registrationFilterFromQuery(r)
	regs, total, err := h.registrations.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"registrations": regs,
		"pagination": map[string]int{
			"page":       filter.Page,
			"limit":      filter.Limit,
			"total":      total,
			"totalPages": (total + filter.Limit - 1) / filter.Limit,
		},
	})
}

type statusRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func (h *Handler) updateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	reg, err := h.registrations.UpdateStatus(r.Context(), chi.URLParam(r, "id"), regmodels.Status(req.Status))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.Info("admin updated registration status",
		"registration_id", reg.RegistrationID,
		"status", reg.Status,
		"admin", middleware.GetAdminEmail(r.Context()),
	)
	shared.WriteSuccess(w, http.StatusOK, "Registration status updated", map[string]any{
		"registrationId": reg.RegistrationID,
		"status":         reg.Status,
		"updatedAt":      reg.UpdatedAt,
	})
}

var exportHeader = []string{
	"Registration ID", "Participant ID", "First Name", "Last Name", "Email", "Phone",
	"Business Name", "Business Type", "Business Address", "Years In Business",
	"Availability", "Preferred Time", "Status", "Created At",
}

// exportRegistrations streams every matching registration as CSV. The export
// ignores pagination: admins expect the full filtered set in one file.
func (h *Handler) exportRegistrations(w http.ResponseWriter, r *http.Request) {
	filter := registrationFilterFromQuery(r)
	filter.Page = 1
	filter.Limit = 100

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		`attachment; filename="registrations-`+time.Now().Format("2006-01-02")+`.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		h.logger.Error("csv export failed", "error", err.Error())
		return
	}

	for {
		regs, total, err := h.registrations.List(r.Context(), filter)
		if err != nil {
			// Headers are committed; nothing useful left to send.
			h.logger.Error("csv export failed", "error", err.Error())
			return
		}
		for _, reg := range regs {
			row := []string{
				reg.RegistrationID, reg.ParticipantID, reg.FirstName, reg.LastName, reg.Email, reg.Phone,
				reg.BusinessName, reg.BusinessType, reg.BusinessAddress, reg.YearsInBusiness,
				reg.AvailableFrom, reg.PreferredTime, string(reg.Status), reg.CreatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				h.logger.Error("csv export failed", "error", err.Error())
				return
			}
		}
		if filter.Page*filter.Limit >= total {
			break
		}
		filter.Page++
	}
	cw.Flush()
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	agg, err := h.registrations.Analytics(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	unread, err := h.contacts.UnreadCount(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"registrations":         agg,
		"unreadContactMessages": unread,
	})
}

// listDeadLetters returns the most recently dead-lettered notification jobs.
// Without redis the endpoint stays up and reports itself disabled, so the
// dashboard can render the panel unconditionally.
func (h *Handler) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	if h.deadLetters == nil {
		shared.WriteSuccess(w, http.StatusOK, "Dead-letter store not configured", map[string]any{
			"enabled": false,
			"jobs":    []*notifmodels.Job{},
		})
		return
	}

	jobs, err := h.deadLetters.List(r.Context(), int64(intQuery(r.URL.Query().Get("limit"))))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "Service temporarily unavailable", err))
		return
	}

	shared.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"enabled": true,
		"jobs":    jobs,
		"count":   len(jobs),
	})
}

func (h *Handler) listContactMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := contactmodels.ListFilter{
		Status: q.Get("status"),
		Page:   intQuery(q.Get("page")),
		Limit:  intQuery(q.Get("limit")),
	}
	filter.Normalize()

	msgs, total, err := h.contacts.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"messages": msgs,
		"pagination": map[string]int{
			"page":       filter.Page,
			"limit":      filter.Limit,
			"total":      total,
			"totalPages": (total + filter.Limit - 1) / filter.Limit,
		},
	})
}

func (h *Handler) updateContactStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Contact message not found"))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	msg, err := h.contacts.UpdateStatus(r.Context(), id, contactmodels.Status(req.Status), req.AdminNotes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, http.StatusOK, "Contact message updated", map[string]any{
		"id":        msg.ID,
		"status":    msg.Status,
		"updatedAt": msg.UpdatedAt,
	})
}

func registrationFilterFromQuery(r *http.Request) regmodels.ListFilter {
	q := r.URL.Query()
	filter := regmodels.ListFilter{
		Status:          q.Get("status"),
		BusinessType:    q.Get("businessType"),
		YearsInBusiness: q.Get("yearsInBusiness"),
		Search:          q.Get("search"),
		Page:            intQuery(q.Get("page")),
		Limit:           intQuery(q.Get("limit")),
	}
	if from := parseDateQuery(q.Get("dateFrom")); from != nil {
		filter.DateFrom = from
	}
	if to := parseDateQuery(q.Get("dateTo")); to != nil {
		filter.DateTo = to
	}
	filter.Normalize()
	return filter
}

func intQuery(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func parseDateQuery(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
