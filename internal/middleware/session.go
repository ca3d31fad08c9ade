package middleware

import (
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/StudioOnboardBack/pkg/utils"
)

// SessionRequired validates the onboarding session token and exposes the
// session id and plan as locals. Websocket upgrades may pass the token in the
// "token" query parameter since browsers cannot set headers on them.
func SessionRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, errMessage := extractToken(c)
		if errMessage != "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": errMessage,
			})
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals("session_id", claims.SessionID)
		c.Locals("plan", claims.Plan)

		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) (string, string) {
	authHeader := strings.TrimSpace(c.Get("Authorization"))
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c) {
			if token := strings.TrimSpace(c.Query("token")); token != "" {
				return token, ""
			}
		}
		return "", "Missing authorization header"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}
