// Package captcha verifies challenge tokens submitted by clients.
package captcha

import (
	"context"
	"errors"

	"github.com/adeilh/go-keyed/config"
	"github.com/adeilh/go-keyed/httpx"
)

// ErrEmptyResponse is wrapped by the error returned for an input without a
// challenge token.
var ErrEmptyResponse = errors.New("captcha: empty challenge response")

// Validator checks one captcha submission. Rejections are
// *config.ValidationError; transport failures are returned as they are.
type Validator[T any] interface {
	Validate(ctx context.Context, input T) error
}

// RequestValidator adapts v to an httpx.Validator. extract pulls the input out
// of each request; rejected submissions become 400 responses through the
// server's error handler.
func RequestValidator[T any](v Validator[T], extract func(httpx.Context) (T, error)) httpx.Validator {
	return func(c httpx.Context) error {
		input, err := extract(c)
		if err != nil {
			return httpx.HTTPError(httpx.StatusBadRequest, err.Error())
		}
		return v.Validate(c.Request().Context(), input)
	}
}

func reject(rule, reason string, err error) error {
	return &config.ValidationError{
		Name:       "hcaptcha",
		Violations: []config.Violation{{Rule: rule, Reason: reason, Err: err}},
	}
}
