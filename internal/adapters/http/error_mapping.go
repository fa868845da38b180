package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/docflow/internal/core/domain"
)

var (
	errMissingToken     = errors.New("missing bearer token")
	errPayloadTooLarge  = errors.New("request body too large")
	errForbiddenRequest = domain.NewError(domain.ErrForbidden, "Forbidden resource")
)

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// User lookups answer 404; other missing records surface as bad requests.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrNotFound):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(status int, err error) string {
	if msg, ok := domain.PublicMessage(err); ok {
		return msg
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge:
		return err.Error()
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusInternalServerError:
		return "Internal server error"
	default:
		return http.StatusText(status)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeStatus(w, status, errorMessage(status, err))
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}
