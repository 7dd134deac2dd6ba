package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/anonto42/pinpost/backend/pkg/blob"
	"github.com/labstack/echo/v4"
)

// ImageSource reads stored images back. The GridFS store implements it;
// S3 images are served by the bucket itself.
type ImageSource interface {
	Open(ctx context.Context, ref string) (io.Reader, string, error)
}

// ImageHandler streams images kept in the database-backed blob store.
type ImageHandler struct {
	source ImageSource
}

func NewImageHandler(source ImageSource) *ImageHandler {
	return &ImageHandler{source: source}
}

func (h *ImageHandler) RegisterImageRoutes(g *echo.Group) {
	g.GET("/images/:id", h.GetImage)
}

// GetImage serves one stored image with its original content type.
func (h *ImageHandler) GetImage(c echo.Context) error {
	r, contentType, err := h.source.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, contentType, r)
}
