package http

import (
	"errors"
	"log/slog"
	"net/http"

	"partnerdispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// classify maps the error taxonomy onto HTTP. AlreadyClaimed is tested first
// so a claim loser is told to stop retrying rather than to refresh.
func classify(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, errs.ErrAlreadyClaimed):
		return http.StatusConflict, "already_claimed"
	case errors.Is(err, errs.ErrVersionConflict), errors.Is(err, errs.ErrStaleObject):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, errs.ErrRouteUnavailable):
		return http.StatusServiceUnavailable, "route_unavailable"
	case errors.Is(err, errs.ErrChannelClosed):
		return http.StatusGone, "channel_closed"
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &httpErr):
		return httpErr.Code, ""
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	code, reason := classify(err)

	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if code >= http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "Request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		if code == http.StatusInternalServerError {
			message = http.StatusText(code)
		}
	}

	return c.JSON(code, Error{Code: code, Message: message, Reason: reason})
}

// ErrorHandler renders errors escaping the handlers, e.g. unknown routes.
func (s *Server) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if writeErr := s.fail(c, err); writeErr != nil {
		s.logger.Error("Error response not written", slog.Any("error", writeErr))
	}
}
