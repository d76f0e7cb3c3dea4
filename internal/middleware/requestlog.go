package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iliyamo/event-ticketing-admin/internal/metrics"
)

// CtxRequestID is the echo context key of the request id.
const CtxRequestID = "request_id"

// RequestID reuses an incoming X-Request-ID or assigns a new one, and
// echoes it on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(CtxRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// RequestIDOf returns the id assigned by RequestID, or "".
func RequestIDOf(c echo.Context) string {
	id, _ := c.Get(CtxRequestID).(string)
	return id
}

// AccessLog logs one line per request at a level chosen by status class
// and records the HTTP metrics.
func AccessLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the response so the status is final
				c.Error(err)
			}
			elapsed := time.Since(start)

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPLatencySeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())

			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			}
			if ce := log.Check(level, "http request"); ce != nil {
				ce.Write(
					zap.String("request_id", RequestIDOf(c)),
					zap.String("method", method),
					zap.String("path", c.Request().URL.Path),
					zap.String("route", route),
					zap.Int("status", status),
					zap.Duration("latency", elapsed),
					zap.String("ip", c.RealIP()),
					zap.Int64("bytes", c.Response().Size),
				)
			}
			return nil
		}
	}
}
