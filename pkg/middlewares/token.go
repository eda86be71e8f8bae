package middlewares

import (
	t_token "chat_sync_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// QueryToken token in query name
	QueryToken = "auth"

	// CookieToken token in cookie name
	CookieToken = "auth_token"

	// TokenExternalID get identity subject from token, set c.locals name
	TokenExternalID = "ExternalID"
	// TokenDisplayName get display name from token, set c.locals name
	TokenDisplayName = "DisplayName"
	// TokenEmail get email from token, set c.locals name
	TokenEmail = "Email"
	// TokenAvatarURL get avatar url from token, set c.locals name
	TokenAvatarURL = "AvatarURL"
)

// JWTMiddleware validates the identity-provider JWT
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)

		// 如果查詢參數中沒有 token，則嘗試從 Cookie 中獲取
		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		token, err := jwt.ParseWithClaims(tokenStr, &t_token.Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Unexpected signing method")
			}
			return t_token.JWTSecret, nil
		})

		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if claims, ok := token.Claims.(*t_token.Claims); ok && token.Valid {
			c.Locals(TokenExternalID, claims.ExternalID)
			c.Locals(TokenDisplayName, claims.DisplayName)
			c.Locals(TokenEmail, claims.Email)
			c.Locals(TokenAvatarURL, claims.AvatarURL)
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		return c.Next()
	}
}
