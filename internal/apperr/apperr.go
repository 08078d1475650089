// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Every failure a client can act on carries a Kind; the HTTP layer maps
// kinds to status codes and copies Details into the response body.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error. Its string value doubles as the wire error code.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindUnauthorized        Kind = "unauthorized"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindIncompleteProfile   Kind = "incomplete_profile"
	KindInsufficientHistory Kind = "insufficient_history"
	KindNoActivePlan        Kind = "no_active_plan"
	KindActivePlanConflict  Kind = "active_plan_exists"
	KindExternalGeneration  Kind = "external_generation_failure"
	KindInternal            Kind = "internal_error"
)

// Error is an application error with a kind, a client-facing message and
// optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Details map[string]interface{}
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrIncompleteProfile   = &Error{Kind: KindIncompleteProfile}
	ErrInsufficientHistory = &Error{Kind: KindInsufficientHistory}
	ErrNoActivePlan        = &Error{Kind: KindNoActivePlan}
	ErrActivePlanConflict  = &Error{Kind: KindActivePlanConflict}
	ErrExternalGeneration  = &Error{Kind: KindExternalGeneration}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithDetail attaches a key/value pair that is rendered next to the error
// code in API responses.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// LogFields returns key/value pairs for structured logging.
func (e *Error) LogFields() []interface{} {
	fields := []interface{}{"error_kind", string(e.Kind), "error_message", e.Message}
	if e.Err != nil {
		fields = append(fields, "cause", e.Err.Error())
	}
	for k, v := range e.Details {
		fields = append(fields, k, v)
	}
	return fields
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

func IncompleteProfile(missing []string) *Error {
	return New(KindIncompleteProfile, "profile is missing "+strings.Join(missing, ", ")).
		WithDetail("missing_fields", missing)
}

func InsufficientHistory(what string) *Error {
	return New(KindInsufficientHistory, "no tracked "+what+" in the history window")
}

func NoActivePlan(kind string) *Error {
	return New(KindNoActivePlan, "no active "+kind+" plan")
}

// ActivePlanConflict reports that a plan is already active and regenerating
// it needs explicit confirmation.
func ActivePlanConflict(kind string, activeUnits int64) *Error {
	return New(KindActivePlanConflict,
		fmt.Sprintf("an active %s plan already exists; resend with forceNew to replace it", kind)).
		WithDetail("active_units", activeUnits)
}

func ExternalGenerationFailure(err error) *Error {
	return Wrap(err, KindExternalGeneration, "plan generation service failed")
}

func Internal(err error) *Error {
	return Wrap(err, KindInternal, "internal error")
}
