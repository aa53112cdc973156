package web

// errors.go turns errors into HTTP responses.
//
// Every error is logged with its technical detail and the request ID, then
// sent to the client as a coded message from core.MapError. The status code
// comes from the error's kind.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	errNoFile    = errors.New("no file provided")
	errRateLimit = errors.New("rate limit exceeded")

	errRateLimited = core.MapError(errRateLimit)
)

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var optErr *core.OptionError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedExtension), errors.Is(err, core.ErrNotText):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrTenantNotFound), errors.Is(err, core.ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &optErr),
		errors.Is(err, core.ErrInvalidTenantID),
		errors.Is(err, core.ErrUnknownExportFormat),
		errors.Is(err, errNoFile),
		core.IsFileLevel(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the coded JSON body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ue := core.NewUserError(err)

	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", ue.User.Code,
		"request_id", middleware.GetReqID(r.Context()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(5))
	}
	respondErrorJSON(w, ue.User, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
