package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestRecorder registra la latencia de cada request (lo implementa metrics.Metrics).
type RequestRecorder interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

// MetricsMiddleware mide cada request usando la ruta registrada (no la URL) como etiqueta.
func MetricsMiddleware(rec RequestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = errorResponse(err)
		}
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		rec.RecordHTTPRequest(c.Method(), path, status, time.Since(start))
		return err
	}
}
