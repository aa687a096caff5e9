// Package httpx wraps echo for serving and resty for calling HTTP endpoints.
package httpx

import (
	"github.com/labstack/echo/v4"
)

// Context aliases echo.Context so callers can stay within httpx imports.
type Context = echo.Context

type HandlerFunc = echo.HandlerFunc

type MiddlewareFunc = echo.MiddlewareFunc

// Echo is handed to route registrars.
type Echo struct{ *echo.Echo }

func NewEcho() *Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &Echo{e}
}

// HTTPError returns an error the server answers with code and message.
func HTTPError(code int, message any) error { return echo.NewHTTPError(code, message) }
