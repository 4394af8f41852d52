package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/auth"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeFieldNotAllowed   = "FIELD_NOT_ALLOWED"
	CodeInvalidFieldValue = "INVALID_FIELD_VALUE"
	CodeInvalidStat       = "INVALID_STAT"
	CodeInvalidMode       = "INVALID_MODE"
	CodeTimeout           = "TIMEOUT"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with a code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: he.message, Code: he.code})
}

// Describe returns the public code and message for err. The websocket
// channel uses it to build error replies.
func Describe(err error) (code, message string) {
	he := toHTTPError(err)
	return he.code, he.message
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	if errors.Is(err, model.ErrInvalidMode) {
		return &httpError{http.StatusBadRequest, CodeInvalidMode, "Mode must be RP or OOC"}
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, CodeValidation, ve.Error()}
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, CodePlayerNotFound, "Player not found"}
	case errors.Is(err, model.ErrFieldNotAllowed):
		return &httpError{http.StatusBadRequest, CodeFieldNotAllowed, "Field cannot be updated"}
	case errors.Is(err, model.ErrInvalidFieldValue):
		return &httpError{http.StatusBadRequest, CodeInvalidFieldValue, "Invalid value for field"}
	case errors.Is(err, model.ErrInvalidStat):
		return &httpError{http.StatusBadRequest, CodeInvalidStat, "Stat type must be hp or stam"}
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, CodeValidation, "Validation failed"}

	case errors.Is(err, auth.ErrUnauthorized):
		return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Host credential required"}

	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, CodeTimeout, "Storage did not respond in time"}

	default:
		return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest, message}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}
