package handlers

import (
	"net/http"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// RegisterPostRoutes registers post-related routes. Every post route requires
// an authenticated caller.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/posts", h.CreatePost, requireAuth)
	g.GET("/posts", h.SearchPosts, requireAuth)
	g.GET("/posts/me", h.GetMyPosts, requireAuth)
	g.GET("/posts/:id", h.GetPost, requireAuth)
	g.PUT("/posts/:id", h.UpdatePost, requireAuth)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Create(c.Request().Context(), identity, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, post.Enrich(identity.ID))
}

// SearchPosts matches ?search= against name, location and description
func (h *PostHandler) SearchPosts(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	posts, err := h.postService.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, enrichAll(posts, identity.ID))
}

// GetMyPosts lists the caller's posts, optionally filtered by ?search=
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	posts, err := h.postService.Mine(c.Request().Context(), identity, c.QueryParam("search"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, enrichAll(posts, identity.ID))
}

// GetPost retrieves a post by ID and counts the visit
func (h *PostHandler) GetPost(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	post, err := h.postService.View(c.Request().Context(), postID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, post.Enrich(identity.ID))
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Update(c.Request().Context(), identity, postID, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, post.Enrich(identity.ID))
}

// DeletePost deletes a post
func (h *PostHandler) DeletePost(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	if err := h.postService.Delete(c.Request().Context(), identity, postID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}
