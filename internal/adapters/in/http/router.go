package http

import (
	"net/http"

	"partnerdispatch/api"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// NewEcho builds the echo instance serving s. With validate set, request
// bodies and parameters under BasePath are checked against doc before they
// reach a handler.
func NewEcho(s *Server, doc *openapi3.T, validate bool) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(s.logger))

	if validate {
		validator, err := s.OpenAPIValidator(doc, BasePath)
		if err != nil {
			return nil, err
		}
		e.Use(validator)
	}

	if err := api.RegisterSwagger(doc); err != nil {
		return nil, err
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/swagger", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	s.Register(e)
	return e, nil
}
