package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"partnerdispatch/internal/pkg/errs"
	"partnerdispatch/internal/session"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionKey         = "session"
	dispatcherKeyField = "X-API-Key"
)

// requirePartner resolves the bearer token to a live session.
func (s *Server) requirePartner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request())
		if !ok {
			return s.fail(c, errs.NewForbiddenError(c.Path(), "missing bearer token"))
		}

		sess, err := s.sessions.Authenticate(c.Request().Context(), token)
		if err != nil {
			return s.fail(c, err)
		}

		c.Set(sessionKey, sess)
		return next(c)
	}
}

// requireDispatcher compares the API key in constant time. An empty
// configured key disables the dispatcher endpoints.
func (s *Server) requireDispatcher(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		given := c.Request().Header.Get(dispatcherKeyField)
		if s.opts.DispatcherAPIKey == "" ||
			subtle.ConstantTimeCompare([]byte(given), []byte(s.opts.DispatcherAPIKey)) != 1 {
			return s.fail(c, errs.NewForbiddenError(c.Path(), "invalid dispatcher key"))
		}
		return next(c)
	}
}

func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionKey).(*session.Session)
	return sess
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequestLogger writes one slog line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.ErrorContext(c.Request().Context(), "Request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

// OpenAPIValidator rejects requests under basePath that do not match doc.
// Paths unknown to doc are passed on so echo answers them.
func (s *Server) OpenAPIValidator(doc *openapi3.T, basePath string) (echo.MiddlewareFunc, error) {
	routed := *doc
	routed.Servers = nil
	router, err := legacy.NewRouter(&routed)
	if err != nil {
		return nil, err
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path, ok := strings.CutPrefix(req.URL.Path, basePath)
			if !ok {
				return next(c)
			}

			routedReq := req.Clone(req.Context())
			routedReq.URL.Path = path
			route, params, err := router.FindRoute(routedReq)
			if err != nil {
				return next(c)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    routedReq,
				PathParams: params,
				Route:      route,
				Options:    options,
			}
			err = openapi3filter.ValidateRequest(req.Context(), input)
			req.Body = routedReq.Body
			if err != nil {
				return s.fail(c, errs.NewValueIsInvalidErrorWithCause("request", err))
			}
			return next(c)
		}
	}, nil
}
