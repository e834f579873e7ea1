package booking

import (
	"errors"
	"fmt"

	"github.com/slotline/slotline/services/scheduling-service/internal/store"
)

// Kind classifies every failure the engine can return, so the HTTP layer maps
// responses without inspecting message text.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation_error"
	KindSlotUnavailable    Kind = "slot_unavailable"
	KindOutsideHours       Kind = "outside_business_hours"
	KindPastStartTime      Kind = "past_start_time"
	KindInvalidState       Kind = "invalid_state"
	KindServiceNotAssigned Kind = "service_not_assigned_to_staff"
	KindStoreUnavailable   Kind = "store_unavailable"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the engine error kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WrapStore gives raw store errors the engine's kind taxonomy, for callers
// that read the store or availability engine directly.
func WrapStore(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, "record not found")
	}
	return newError(KindStoreUnavailable, "store error: %v", err)
}
