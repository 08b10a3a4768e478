// Package handler exposes the public registration endpoints.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "msmeclinic/pkg/domain-errors"

	"msmeclinic/internal/registration/models"
	"msmeclinic/internal/registration/service"
	"msmeclinic/internal/transport/http/shared"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	logger *slog.Logger
	svc    *service.Service
}

func New(logger *slog.Logger, svc *service.Service) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Routes mounts the public registration surface.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/register/send-confirmation", h.resendConfirmation)
	r.Get("/register/{id}", h.get)
}

// registerData is the intake success payload. Status is reported as
// confirmed_to_attend regardless of the persisted workflow state; clients
// depend on this value.
type registerData struct {
	RegistrationID string `json:"registrationId"`
	ParticipantID  string `json:"participantId"`
	Email          string `json:"email"`
	Status         string `json:"status"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	reg, err := h.svc.Register(r.Context(), body)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	envelope := shared.SuccessEnvelope{
		Success: true,
		Message: "Registration successful! Check your email for confirmation.",
		Data: registerData{
			RegistrationID: reg.RegistrationID,
			ParticipantID:  reg.ParticipantID,
			Email:          reg.Email,
			Status:         "confirmed_to_attend",
		},
	}
	// Serialize before committing the response: if this fails the record is
	// orphaned and must be removed again.
	payload, err := json.Marshal(envelope)
	if err != nil {
		_ = h.svc.Discard(r.Context(), reg.ID)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "Something went wrong!", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(payload)

	// Fire-and-forget: delivery outcome never reaches this request.
	h.svc.NotifyRegistered(reg)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "", registrationView(reg))
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	reg, err := h.svc.ResendConfirmation(r.Context(), req.Email)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteSuccess(w, http.StatusOK, "Confirmation email has been resent.", map[string]string{
		"registrationId": reg.RegistrationID,
		"email":          reg.Email,
	})
}

// registrationView shapes a registration for read endpoints.
func registrationView(reg *models.Registration) map[string]any {
	return map[string]any{
		"registrationId":  reg.RegistrationID,
		"participantId":   reg.ParticipantID,
		"firstName":       reg.FirstName,
		"lastName":        reg.LastName,
		"email":           reg.Email,
		"phone":           reg.Phone,
		"businessName":    reg.BusinessName,
		"businessType":    reg.BusinessType,
		"yearsInBusiness": reg.YearsInBusiness,
		"availability":    reg.AvailableFrom,
		"preferredTime":   reg.PreferredTime,
		"status":          reg.Status,
		"createdAt":       reg.CreatedAt,
	}
}
