package ratelimit

import (
	"github.com/labstack/echo/v4"

	xhttp "FraudDash/pkg/http"
)

// Middleware rejects requests from a client IP that exceeds its budget.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
			}
			return next(c)
		}
	}
}
