// handlers/errors.go
package handlers

import (
	"grudge-match-system/services"
	"grudge-match-system/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindForbidden:    fiber.StatusForbidden,
	services.KindConflict:     fiber.StatusConflict,
	services.KindInvalidInput: fiber.StatusBadRequest,
}

// respondError maps a service error onto its HTTP status. Anything untyped is a
// 500 and gets logged; the cause is not echoed to the client.
func respondError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	if status, ok := kindStatus[kind]; ok {
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"kind":  kind,
		})
	}

	utils.L().Error("[HTTP] request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"kind":  services.KindInvalidInput,
	})
}
