package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	// TokenCookie is the cookie login sets and logout clears.
	TokenCookie = "token"
	identityKey = "identity"
)

// JWTAuthMiddleware verifies the session token from the Authorization header,
// falling back to the token cookie, and stores the identity on the context.
func JWTAuthMiddleware(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := extractToken(c)
			if err != nil {
				return err
			}

			identity, err := tokens.Verify(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
}

// CurrentIdentity returns the identity attached by JWTAuthMiddleware.
func CurrentIdentity(c echo.Context) (models.Identity, bool) {
	identity, ok := c.Get(identityKey).(models.Identity)
	return identity, ok
}

// WithIdentity attaches identity to c as JWTAuthMiddleware would.
func WithIdentity(c echo.Context, identity models.Identity) {
	c.Set(identityKey, identity)
}
