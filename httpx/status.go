package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adeilh/go-keyed/cache"
	"github.com/adeilh/go-keyed/config"
)

const (
	StatusOK            = http.StatusOK
	StatusCreated       = http.StatusCreated
	StatusBadRequest    = http.StatusBadRequest // Validation or malformed input
	StatusForbidden     = http.StatusForbidden
	StatusConflict      = http.StatusConflict // Precondition on stored state
	StatusInternalError = http.StatusInternalServerError
)

// StatusFor maps an error returned by a handler to a response status and a
// message safe to show the caller.
func StatusFor(err error) (int, string) {
	var (
		he  *echo.HTTPError
		ve  *config.ValidationError
		ioe *cache.InvalidOperationError
	)
	switch {
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
		return he.Code, msg
	case errors.As(err, &ve):
		return StatusBadRequest, ve.Error()
	case errors.As(err, &ioe):
		return StatusConflict, ioe.Error()
	default:
		return StatusInternalError, http.StatusText(StatusInternalError)
	}
}
