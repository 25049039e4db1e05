package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
	"go.uber.org/zap"
)

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidInput:
		return fiber.StatusBadRequest
	case service.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case service.KindQuotaExceeded:
		return fiber.StatusPaymentRequired
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindVendorUnavailable:
		return fiber.StatusServiceUnavailable
	case service.KindBusy:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err in the error envelope. Internal failures are
// logged and never leak their message.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) && svcErr.Kind != service.KindInternal {
		return c.Status(statusFor(svcErr.Kind)).JSON(models.ErrorResponse(svcErr.Reason))
	}
	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error"))
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
}

// userEmail returns the email stored by the auth middleware.
func userEmail(c *fiber.Ctx) (string, bool) {
	email, ok := c.Locals("userEmail").(string)
	return email, ok && email != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authentication token required"))
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
