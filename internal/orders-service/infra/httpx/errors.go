package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgValidation       = "Validation Error"
	msgNotFound         = "Order not found"
	msgNotCancellable   = "Order cannot be cancelled"
	msgInProgress       = "Order placement in progress"
	msgBrokerError      = "Broker Error"
	msgInternal         = "Internal Server Error"
	msgNotAuthenticated = "Not authenticated"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, detail any) {
	writeJSON(w, status, ErrorResponse{
		Status:  statusError,
		Message: msg,
		Detail:  detail,
		Path:    r.URL.Path,
	})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, r, http.StatusUnprocessableEntity, msgValidation, []domain.ValidationError(verrs))
	case errors.Is(err, domain.ErrUnknownBroker):
		writeError(w, r, http.StatusUnprocessableEntity, msgValidation, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, r, http.StatusNotFound, msgNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable):
		writeError(w, r, http.StatusConflict, msgNotCancellable, err.Error())
	case errors.Is(err, domain.ErrPlacementInProgress):
		writeError(w, r, http.StatusConflict, msgInProgress, err.Error())
	case errors.Is(err, domain.ErrBrokerUnavailable):
		slog.ErrorContext(r.Context(), "broker call failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusBadGateway, msgBrokerError, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, msgInternal, err.Error())
	}
}
