package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/designstudio-backend/internal/models"
	"github.com/sefazor/designstudio-backend/internal/service"
)

// TokenAuthenticator resolves a bearer token into an email.
type TokenAuthenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// email under the "userEmail" local.
func AuthMiddleware(auth TokenAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Authentication token required"))
		}

		email, err := auth.Authenticate(token)
		if err != nil {
			reason := "Invalid token"
			var svcErr *service.Error
			if errors.As(err, &svcErr) {
				reason = svcErr.Reason
			}
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse(reason))
		}

		c.Locals("userEmail", email)
		return c.Next()
	}
}
