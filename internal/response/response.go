// Package response writes the uniform {error, message, data} envelope.
package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/apperr"
)

const failureStatusKey = "failureStatus"

// Envelope is the body of every API response.
type Envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK writes a successful envelope with HTTP 200.
func OK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Envelope{Error: false, Message: message, Data: data})
}

// FailureStatus makes logical failures on the route use status instead of 200.
func FailureStatus(status int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(failureStatusKey, status)
		return c.Next()
	}
}

// ErrorHandler serializes any returned error as a failed envelope. Framework
// errors keep their status; application errors use 200 unless the route set
// a FailureStatus.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusOK
		if s, ok := c.Locals(failureStatusKey).(int); ok {
			status = s
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(Envelope{Error: true, Message: fiberErr.Message})
		}

		appErr := apperr.From(err)
		entry := log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"kind":   appErr.Kind.String(),
		})
		switch appErr.Kind {
		case apperr.KindPersistence:
			entry.WithError(appErr.Err).Error("request failed")
		case apperr.KindGateway:
			entry.WithError(appErr.Err).Warn("payment gateway rejected request")
		default:
			entry.Debug(appErr.Message)
		}

		return c.Status(status).JSON(Envelope{Error: true, Message: appErr.Message})
	}
}
