package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response. Error carries the
// human-readable summary clients display; Code is the stable machine value.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, errMsg, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errMsg,
		Message: message,
		Code:    code,
	})
}

// RespondErrorWithDetails writes an error response with additional details
func RespondErrorWithDetails(w http.ResponseWriter, status int, code, errMsg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{
		Error:   errMsg,
		Code:    code,
		Details: details,
	})
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, code, errMsg string) {
	RespondError(w, http.StatusBadRequest, code, errMsg, "")
}

// RespondNotFound writes a not found error response
func RespondNotFound(w http.ResponseWriter, code, errMsg string) {
	RespondError(w, http.StatusNotFound, code, errMsg, "")
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, code, errMsg string) {
	RespondError(w, http.StatusUnauthorized, code, errMsg, "")
}

// RespondForbidden writes a forbidden error response
func RespondForbidden(w http.ResponseWriter, code, errMsg, message string) {
	RespondError(w, http.StatusForbidden, code, errMsg, message)
}

// RespondMethodNotAllowed writes a 405 and advertises the accepted method.
func RespondMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	RespondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", "")
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", message)
}

// RespondServiceUnavailable writes a service unavailable error response
func RespondServiceUnavailable(w http.ResponseWriter, code, errMsg string) {
	RespondError(w, http.StatusServiceUnavailable, code, errMsg, "")
}

// RespondJSON writes any payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
