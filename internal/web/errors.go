package web

// errors.go renders handler errors. The technical error is logged with the
// request ID; the client gets the coded user message from core.MapError, as
// JSON for API callers and as a page otherwise.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/logging"
	"github.com/AwsThamer/ranger/internal/web/templates"
)

var (
	errNotFound       = errors.New("route not found")
	errInvalidBody    = errors.New("invalid request body")
	errRangeRequired  = errors.New("range is required")
	notFoundUserError = core.UserMessage{
		Message: "Page not found",
		Action:  "Go back to the range list",
		Code:    "REQ404",
	}
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	if errors.Is(err, errNotFound) {
		userMsg = notFoundUserError
	}

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	respondErrorHTML(w, r, userMsg, statusCode)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorPage(msg).Render(r.Context(), w)
}

// wantsJSON reports whether the client should get a JSON body.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
