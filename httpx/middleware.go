package httpx

import (
	"time"

	"cdr.dev/slog/v3"
)

// RequestLogger logs one line per request at debug level, or at warn level
// when the handler fails.
func RequestLogger(logger slog.Logger) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			fields := []slog.Field{
				slog.F("method", req.Method),
				slog.F("path", req.URL.Path),
				slog.F("status", c.Response().Status),
				slog.F("took", time.Since(start)),
			}
			if err != nil {
				logger.Warn(req.Context(), "request failed", append(fields, slog.Error(err))...)
				return err
			}
			logger.Debug(req.Context(), "request", fields...)
			return nil
		}
	}
}
