package handlers

import (
	"net/http"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the ranked post listings
type FeedHandler struct {
	postService *services.PostService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postService *services.PostService) *FeedHandler {
	return &FeedHandler{postService: postService}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/posts/latest", h.GetLatestPosts, requireAuth)
	g.GET("/posts/newest", h.GetLatestPosts, requireAuth)
	g.GET("/posts/recommendation", h.GetRecommendedPosts, requireAuth)
	g.GET("/posts/popular", h.GetPopularPosts, requireAuth)
}

// GetLatestPosts returns the five newest posts
func (h *FeedHandler) GetLatestPosts(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	posts, err := h.postService.Latest(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, enrichAll(posts, identity.ID))
}

// GetRecommendedPosts returns up to five distinct random posts
func (h *FeedHandler) GetRecommendedPosts(c echo.Context) error {
	posts, err := h.postService.Recommend(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}

	data := make([]models.RecommendedPost, len(posts))
	for i, p := range posts {
		data[i] = p.ToRecommended()
	}
	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// GetPopularPosts returns every post ranked by visits, then likes
func (h *FeedHandler) GetPopularPosts(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	posts, err := h.postService.Popular(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, enrichAll(posts, identity.ID))
}

func enrichAll(posts []models.Post, viewerID uint) []models.EnrichedPost {
	out := make([]models.EnrichedPost, len(posts))
	for i, p := range posts {
		out[i] = p.Enrich(viewerID)
	}
	return out
}
