package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrValueIsInvalid    = errors.New("value is invalid")
	ErrValueIsOutOfRange = errors.New("value is out of range")
	ErrValueIsRequired   = errors.New("value is required")
	ErrVersionConflict   = errors.New("version conflict")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRouteUnavailable  = errors.New("route unavailable")
	ErrChannelClosed     = errors.New("channel closed")
	ErrStaleObject       = errors.New("stale object")
)

func sanitize(v any) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(fmt.Sprintf("%v", v))
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (cause: %v)", msg, cause)
}

// ObjectNotFoundError reports that an entity with the given ID does not exist.
type ObjectNotFoundError struct {
	ParamName string
	ID        any
	Cause     error
}

func NewObjectNotFoundError(paramName string, id any) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id}
}

func NewObjectNotFoundErrorWithCause(paramName string, id any, cause error) *ObjectNotFoundError {
	return &ObjectNotFoundError{ParamName: paramName, ID: id, Cause: cause}
}

func (e *ObjectNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %v)", ErrObjectNotFound, e.ParamName, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrObjectNotFound, e.ID)
}

func (e *ObjectNotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// ValueIsInvalidError reports a value that failed validation.
type ValueIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewValueIsInvalidError(paramName string) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName}
}

func NewValueIsInvalidErrorWithCause(paramName string, cause error) *ValueIsInvalidError {
	return &ValueIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsInvalidError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrValueIsInvalid, e.ParamName), e.Cause)
}

func (e *ValueIsInvalidError) Unwrap() error {
	return ErrValueIsInvalid
}

// ValueIsOutOfRangeError reports a value outside of [Min, Max].
type ValueIsOutOfRangeError struct {
	ParamName string
	Value     any
	Min       any
	Max       any
	Cause     error
}

func NewValueIsOutOfRangeError(paramName string, value, minValue, maxValue any) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue}
}

func NewValueIsOutOfRangeErrorWithCause(
	paramName string,
	value, minValue, maxValue any,
	cause error,
) *ValueIsOutOfRangeError {
	return &ValueIsOutOfRangeError{ParamName: paramName, Value: value, Min: minValue, Max: maxValue, Cause: cause}
}

func (e *ValueIsOutOfRangeError) Error() string {
	msg := fmt.Sprintf("%s: %s is %s, min value is %s, max value is %s",
		ErrValueIsInvalid, sanitize(e.Value), sanitize(e.ParamName), sanitize(e.Min), sanitize(e.Max))
	return withCause(msg, e.Cause)
}

func (e *ValueIsOutOfRangeError) Unwrap() error {
	return ErrValueIsOutOfRange
}

// ValueIsRequiredError reports a missing mandatory value.
type ValueIsRequiredError struct {
	ParamName string
	Cause     error
}

func NewValueIsRequiredError(paramName string) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName}
}

func NewValueIsRequiredErrorWithCause(paramName string, cause error) *ValueIsRequiredError {
	return &ValueIsRequiredError{ParamName: paramName, Cause: cause}
}

func (e *ValueIsRequiredError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrValueIsRequired, e.ParamName), e.Cause)
}

func (e *ValueIsRequiredError) Unwrap() error {
	return ErrValueIsRequired
}

// VersionConflictError reports an optimistic concurrency mismatch: the caller
// observed Expected but the object is at Actual.
type VersionConflictError struct {
	ParamName string
	Expected  uint64
	Actual    uint64
	Cause     error
}

func NewVersionConflictError(paramName string, expected, actual uint64) *VersionConflictError {
	return &VersionConflictError{ParamName: paramName, Expected: expected, Actual: actual}
}

func NewVersionConflictErrorWithCause(paramName string, expected, actual uint64, cause error) *VersionConflictError {
	return &VersionConflictError{ParamName: paramName, Expected: expected, Actual: actual, Cause: cause}
}

func (e *VersionConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s observed %d, current is %d", ErrVersionConflict, e.ParamName, e.Expected, e.Actual)
	return withCause(msg, e.Cause)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// AlreadyClaimedError reports a claim against a job that left the unclaimed state.
type AlreadyClaimedError struct {
	ID     any
	Status string
}

func NewAlreadyClaimedError(id any, status string) *AlreadyClaimedError {
	return &AlreadyClaimedError{ID: id, Status: status}
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("%s: %s is %s", ErrAlreadyClaimed, e.ID, e.Status)
}

func (e *AlreadyClaimedError) Unwrap() error {
	return ErrAlreadyClaimed
}

// ForbiddenError reports that the caller may not perform Action. Reason is
// for logs only and is never sent to clients.
type ForbiddenError struct {
	Action string
	Reason string
}

func NewForbiddenError(action, reason string) *ForbiddenError {
	return &ForbiddenError{Action: action, Reason: reason}
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrForbidden, e.Action)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrForbidden, e.Action, e.Reason)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// InvalidTransitionError reports a status change that is not in the transition table.
type InvalidTransitionError struct {
	From string
	To   string
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// RouteUnavailableError reports that no route could be computed for a job.
type RouteUnavailableError struct {
	ID    any
	Cause error
}

func NewRouteUnavailableError(id any) *RouteUnavailableError {
	return &RouteUnavailableError{ID: id}
}

func NewRouteUnavailableErrorWithCause(id any, cause error) *RouteUnavailableError {
	return &RouteUnavailableError{ID: id, Cause: cause}
}

func (e *RouteUnavailableError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrRouteUnavailable, e.ID), e.Cause)
}

func (e *RouteUnavailableError) Unwrap() error {
	return ErrRouteUnavailable
}

// ChannelClosedError reports an interaction with a closed live channel.
type ChannelClosedError struct {
	ID any
}

func NewChannelClosedError(id any) *ChannelClosedError {
	return &ChannelClosedError{ID: id}
}

func (e *ChannelClosedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrChannelClosed, e.ID)
}

func (e *ChannelClosedError) Unwrap() error {
	return ErrChannelClosed
}

// StaleObjectError reports a conditional write that matched no row because
// another writer committed first.
type StaleObjectError struct {
	ParamName string
	ID        any
}

func NewStaleObjectError(paramName string, id any) *StaleObjectError {
	return &StaleObjectError{ParamName: paramName, ID: id}
}

func (e *StaleObjectError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrStaleObject, e.ParamName, e.ID)
}

func (e *StaleObjectError) Unwrap() error {
	return ErrStaleObject
}
