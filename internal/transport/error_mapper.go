package transport

import (
	"errors"
	"net/http"

	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/observability"
	"go.uber.org/zap"
)

// DomainError maps a failure from the orchestrator onto an HTTP response.
// Validation failures reject the request; store connectivity surfaces as a
// transient 503 (retry is the client's decision, not this layer's).
func DomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.GetLogger(r.Context())

	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		WriteError(w, http.StatusBadRequest, "empty_message", "message needs text, an image or a file")
	case errors.Is(err, domain.ErrMessageTooLarge):
		WriteError(w, http.StatusBadRequest, "message_too_large", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrMessageNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrNotRecipient):
		WriteError(w, http.StatusForbidden, "forbidden", "message not addressed to caller")
	case errors.Is(err, domain.ErrUploadFailed):
		log.Warn("upload_failed", zap.Error(err))
		WriteError(w, http.StatusBadGateway, "upload_failed", "could not store attachment")
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error("store_unavailable", zap.Error(err))
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "message store temporarily unavailable")
	default:
		log.Error("internal_error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
