package common

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Envelope is the body of every response. Failures carry Msg only.
type Envelope struct {
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// RespondWithJSON writes the envelope with the given status.
func RespondWithJSON(c *fiber.Ctx, status int, msg string, data interface{}) error {
	return c.Status(status).JSON(Envelope{Msg: msg, Data: data})
}

// RespondWithError writes a failure envelope.
func RespondWithError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Msg: msg})
}

// ErrorHandler is the fiber boundary: every error returned by a handler or middleware is
// turned into an envelope here.
func ErrorHandler(l *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return RespondWithError(c, fe.Code, fe.Message)
		}

		status := HTTPStatusFromError(err)
		if status >= fiber.StatusInternalServerError {
			l.Error("unexpected error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return RespondWithError(c, status, PublicMessage(err))
	}
}
