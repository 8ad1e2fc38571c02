// Package handler provides HTTP handlers for the bookdrop API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/api/models"
	"github.com/bookdrop/bookdrop/internal/api/response"
	"github.com/bookdrop/bookdrop/internal/download"
	"github.com/bookdrop/bookdrop/internal/signer"
)

// DownloadHandler handles download-request endpoints.
type DownloadHandler struct {
	service *download.Service
	logger  zerolog.Logger
}

// NewDownloadHandler creates a new DownloadHandler.
func NewDownloadHandler(service *download.Service, logger zerolog.Logger) *DownloadHandler {
	return &DownloadHandler{
		service: service,
		logger:  logger,
	}
}

// RequestDownload handles POST /download/request - create a download request.
//
// Responds 201 with an empty body on success; the link travels by email, never
// in the response.
func (h *DownloadHandler) RequestDownload(w http.ResponseWriter, r *http.Request) {
	var input models.DownloadRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.UnprocessableEntity(w, r, "invalid JSON body")
		return
	}
	if err := input.Validate(); err != nil {
		response.UnprocessableEntity(w, r, err.Error())
		return
	}

	_, err := h.service.Request(r.Context(), input.Email, input.Name)
	if err != nil {
		var backoff *download.BackoffActiveError
		if errors.As(err, &backoff) {
			response.Forbidden(w, r, fmt.Sprintf(
				"You have already requested a download link. Please check your email inbox or try again in %d seconds.",
				backoff.Remaining,
			))
			return
		}

		h.logger.Error().Err(err).Str("email", input.Email).Msg("download request failed")
		response.InternalError(w, r, "Could not process your request. Please try again later.")
		return
	}

	response.Created(w, r)
}

// RedeemToken handles GET /download/{token} - exchange a token for the book.
//
// Redirects to the signed object URL with 303 See Other so the browser fetches
// the file directly. Error bodies never distinguish more than the spec'd
// cases: unknown, used, expired.
func (h *DownloadHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	req, err := h.service.Redeem(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, download.ErrRequestNotFound):
			response.NotFound(w, r, "Invalid link.")
		case errors.Is(err, download.ErrAlreadyUsed):
			response.Forbidden(w, r, "Link already used.")
		case errors.Is(err, download.ErrLinkExpired):
			response.Forbidden(w, r, "Link expired.")
		case errors.Is(err, signer.ErrUnavailable):
			h.logger.Error().Err(err).Msg("signed link issuer unavailable")
			response.ServiceUnavailable(w, r, "Download temporarily unavailable. Please try again later.")
		default:
			h.logger.Error().Err(err).Msg("token redemption failed")
			response.InternalError(w, r, "Could not process your request. Please try again later.")
		}
		return
	}

	response.SeeOther(w, r, req.PresignedURL)
}

// Statistics handles GET /download/statistics - aggregate request counts.
func (h *DownloadHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("statistics query failed")
		response.InternalError(w, r, "Could not process your request. Please try again later.")
		return
	}

	response.JSON(w, r, http.StatusOK, stats)
}
