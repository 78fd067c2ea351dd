package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/marketplace/internal/metrics"
)

// Metrics records request count and latency by route pattern. Errors are
// rendered here so the recorded status matches what the client receives.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		done := metrics.TrackInFlight()
		defer done()
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				var fiberErr *fiber.Error
				code := fiber.StatusInternalServerError
				if errors.As(herr, &fiberErr) {
					code = fiberErr.Code
				}
				_ = c.SendStatus(code)
			}
		}

		metrics.RecordRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), time.Since(start))
		return nil
	}
}
