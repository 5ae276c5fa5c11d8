package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Pesokrava/jewelry_catalog/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_catalog/internal/domain"
	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

// writeError maps service errors to HTTP responses. notFound is the message for missing resources.
func writeError(w http.ResponseWriter, log *logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, detail(err, domain.ErrInvalidInput, "Invalid input"))
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, detail(err, domain.ErrConflict, "Conflict"))
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Error("Internal error in handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// detail strips the sentinel prefix from a wrapped error, e.g. "invalid input: rating must be..."
func detail(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == err.Error() && msg == sentinel.Error() {
		return fallback
	}
	return msg
}
