// Package handler exposes the public contact form endpoint.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "msmeclinic/pkg/domain-errors"

	"msmeclinic/internal/contact/service"
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

// Routes mounts the public contact surface.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/contact", h.submit)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeValidation, "Validation failed", err))
		return
	}

	msg, err := h.svc.Submit(r.Context(), body)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteSuccess(w, http.StatusCreated, "Thank you for contacting us. We will get back to you shortly.", map[string]any{
		"id":        msg.ID,
		"email":     msg.Email,
		"subject":   msg.Subject,
		"createdAt": msg.CreatedAt,
	})
}
