package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/api/models"
	"github.com/bookdrop/bookdrop/internal/api/response"
	"github.com/bookdrop/bookdrop/internal/mailing"
)

// MailingHandler handles mailing-list subscription endpoints.
type MailingHandler struct {
	service *mailing.Service
	logger  zerolog.Logger
}

// NewMailingHandler creates a new MailingHandler.
func NewMailingHandler(service *mailing.Service, logger zerolog.Logger) *MailingHandler {
	return &MailingHandler{
		service: service,
		logger:  logger,
	}
}

// Unsubscribe handles POST /unsubscribe/{email}.
//
// Responds 200 whether or not the email is on the list, so the endpoint can't
// be used to probe for subscribers.
func (h *MailingHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := models.ValidateEmail(email); err != nil {
		response.UnprocessableEntity(w, r, err.Error())
		return
	}

	if err := h.service.Unsubscribe(r.Context(), email); err != nil {
		h.logger.Error().Err(err).Msg("unsubscribe failed")
		response.InternalError(w, r, "Could not process your request. Please try again later.")
		return
	}

	response.Message(w, r, http.StatusOK, "You have been unsubscribed.")
}

// Resubscribe handles POST /resubscribe/{email}.
//
// Same shape as Unsubscribe: 200 for known and unknown emails alike.
func (h *MailingHandler) Resubscribe(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := models.ValidateEmail(email); err != nil {
		response.UnprocessableEntity(w, r, err.Error())
		return
	}

	if err := h.service.Resubscribe(r.Context(), email); err != nil {
		h.logger.Error().Err(err).Msg("resubscribe failed")
		response.InternalError(w, r, "Could not process your request. Please try again later.")
		return
	}

	response.Message(w, r, http.StatusOK, "You have been resubscribed.")
}
