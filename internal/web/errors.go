package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged server-side with its technical detail and request
// ID, mapped through core.MapError, and returned as an HTML fragment for
// in-page requests, JSON for API clients, or plain text otherwise.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/JonMunkholm/reproject/internal/logging"
	"github.com/JonMunkholm/reproject/internal/web/templates"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// statusByCode is the HTTP status for each support code. Codes not listed
// are client errors.
var statusByCode = map[string]int{
	"FILE001":  http.StatusRequestEntityTooLarge,
	"CRS002":   http.StatusBadGateway,
	"CONV001":  http.StatusServiceUnavailable,
	"CONV003":  http.StatusGatewayTimeout,
	"HIST001":  http.StatusNotFound,
	"HIST002":  http.StatusServiceUnavailable,
	"RATE001":  http.StatusTooManyRequests,
	"ERR000":   http.StatusInternalServerError,
	"COORD001": http.StatusUnprocessableEntity,
	"COORD002": http.StatusUnprocessableEntity,
}

// statusFor picks the HTTP status for err from its support code.
func statusFor(err error) int {
	if status, ok := statusByCode[core.MapError(err).Code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// fail responds with the status derived from err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or HTML).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.WithFields(r.Context(),
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)
	if statusCode >= 500 {
		logger.Error("request error")
	} else {
		logger.Warn("request error")
	}

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, middleware.GetReqID(r.Context()), statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, requestID string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		RequestID: requestID,
	})
}

// respondErrorHTML writes a plain text error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
