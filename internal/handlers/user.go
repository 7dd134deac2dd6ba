package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct{}

// NewUserHandler creates a new UserHandler
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/users/me", h.Me, requireAuth)
}

// Me returns the identity carried by the caller's token. It reflects the
// user as of login; later profile edits show up after logging in again.
func (h *UserHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}
