package handlers

import (
	"net/http"

	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	postService *services.PostService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(postService *services.PostService) *LikeHandler {
	return &LikeHandler{postService: postService}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/posts/:id/like", h.ToggleLike, requireAuth)
}

// ToggleLike likes or unlikes a post for the caller
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	result, err := h.postService.ToggleLike(c.Request().Context(), identity, postID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
