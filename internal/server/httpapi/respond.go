package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps sentinel errors onto HTTP statuses. Anything not
// covered by a sentinel is an internal failure and is logged server-side;
// the client only sees a generic message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		logger.Error(ctx, "request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
