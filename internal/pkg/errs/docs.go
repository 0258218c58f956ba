// Package errs provides standardized error types for the partner dispatch service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes validation errors and the dispatch error taxonomy:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: input validation
//   - ObjectNotFoundError: unknown job or partner (NotFound)
//   - VersionConflictError: claim version mismatch (Conflict)
//   - AlreadyClaimedError: job is no longer unclaimed
//   - ForbiddenError: caller is not authorized for the action
//   - InvalidTransitionError: requested status is unreachable from the current one
//   - RouteUnavailableError: the route provider failed
//   - ChannelClosedError: late interaction with a terminated job's live channel
//   - StaleObjectError: a conditional write lost against a concurrent writer
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method so errors.Is matches the sentinel
package errs
