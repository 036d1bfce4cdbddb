package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a domain failure.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindInvalidTransition   Kind = "invalid_transition"
	KindInvalidBookingState Kind = "invalid_booking_state"
	KindCancelWindowClosed  Kind = "cancel_window_closed"
	KindEligibilityExpired  Kind = "eligibility_expired"
	KindDuplicateClaim      Kind = "duplicate_claim"
	KindDuplicateReview     Kind = "duplicate_review"
	KindNothingToConfirm    Kind = "nothing_to_confirm"
)

// Error is a typed domain failure. Context carries the offending state/role details
// so callers can render precise guidance.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is a domain error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// With returns a copy of the error with an extra context entry.
func (e *Error) With(key, value string) *Error {
	ctx := make(map[string]string, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Context: ctx}
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrInvalidBookingState = &Error{Kind: KindInvalidBookingState}
	ErrCancelWindowClosed  = &Error{Kind: KindCancelWindowClosed}
	ErrEligibilityExpired  = &Error{Kind: KindEligibilityExpired}
	ErrDuplicateClaim      = &Error{Kind: KindDuplicateClaim}
	ErrDuplicateReview     = &Error{Kind: KindDuplicateReview}
	ErrNothingToConfirm    = &Error{Kind: KindNothingToConfirm}
)

// KindOf extracts the kind of a (possibly wrapped) domain error. ok is false for
// infrastructure errors.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Context: map[string]string{"entity": entity, "id": id},
	}
}

func NewForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NewConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NewInvalidTransitionError names the current state and the attempted event.
func NewInvalidTransitionError(state, event string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot %s from state %s", event, state),
		Context: map[string]string{"state": state, "event": event},
	}
}

func NewInvalidBookingStateError(state, msg string) *Error {
	return &Error{
		Kind:    KindInvalidBookingState,
		Message: msg,
		Context: map[string]string{"state": state},
	}
}

func NewCancelWindowClosedError(state string) *Error {
	return &Error{
		Kind:    KindCancelWindowClosed,
		Message: fmt.Sprintf("cannot cancel: booking is %s", state),
		Context: map[string]string{"state": state, "event": "cancel"},
	}
}

func NewEligibilityExpiredError(msg string) *Error {
	return &Error{Kind: KindEligibilityExpired, Message: msg}
}

func NewDuplicateClaimError(bookingID string) *Error {
	return &Error{
		Kind:    KindDuplicateClaim,
		Message: "a warranty claim already exists for this booking",
		Context: map[string]string{"booking_id": bookingID},
	}
}

func NewDuplicateReviewError(bookingID string) *Error {
	return &Error{
		Kind:    KindDuplicateReview,
		Message: "booking has already been reviewed",
		Context: map[string]string{"booking_id": bookingID},
	}
}

func NewNothingToConfirmError(bookingID string) *Error {
	return &Error{
		Kind:    KindNothingToConfirm,
		Message: "no pending extra services to confirm",
		Context: map[string]string{"booking_id": bookingID},
	}
}
