package session

import (
	"context"
	"errors"

	"github.com/mcoot/tablesync/internal/model"
	"github.com/mcoot/tablesync/internal/services/auth"
)

// Errors raised before an event reaches the store
var (
	ErrMalformedEvent = errors.New("malformed event payload")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Drop reasons reported in logs and metrics
const (
	ReasonPlayerNotFound  = "player_not_found"
	ReasonFieldNotAllowed = "field_not_allowed"
	ReasonInvalidValue    = "invalid_value"
	ReasonInvalidStat     = "invalid_stat"
	ReasonValidation      = "validation"
	ReasonUnauthorized    = "unauthorized"
	ReasonTimeout         = "timeout"
	ReasonStoreError      = "store_error"
	ReasonMalformed       = "malformed"
	ReasonUnknownEvent    = "unknown_event"
)

// DropReason classifies why an event was rejected
func DropReason(err error) string {
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return ReasonPlayerNotFound
	case errors.Is(err, model.ErrFieldNotAllowed):
		return ReasonFieldNotAllowed
	case errors.Is(err, model.ErrInvalidFieldValue):
		return ReasonInvalidValue
	case errors.Is(err, model.ErrInvalidStat):
		return ReasonInvalidStat
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidMode):
		return ReasonValidation
	case errors.Is(err, auth.ErrUnauthorized):
		return ReasonUnauthorized
	case errors.Is(err, ErrMalformedEvent):
		return ReasonMalformed
	case errors.Is(err, ErrUnknownEvent):
		return ReasonUnknownEvent
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonStoreError
	}
}

// IsSilentDrop reports whether a persistent-channel sender should hear
// nothing back about err. Only authorization failures are answered.
func IsSilentDrop(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, auth.ErrUnauthorized)
}
