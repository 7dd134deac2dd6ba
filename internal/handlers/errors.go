package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/pinpost/backend/internal/middleware"
	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/anonto42/pinpost/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// statusFor maps every service error kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindConflict, services.KindInvalidCredentials:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// serviceError converts a service failure into an echo HTTP error.
func serviceError(c echo.Context, err error) error {
	var se *services.Error
	if !errors.As(err, &se) {
		se = &services.Error{Kind: services.KindInternal, Message: err.Error(), Err: err}
	}
	status := statusFor(se.Kind)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("Request failed")
		return echo.NewHTTPError(status, se.Error())
	}
	return echo.NewHTTPError(status, se.Message)
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		var verr *validators.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
				"message": "Validation error",
				"errors":  verr.Fields,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// currentIdentity returns the authenticated caller or a 401.
func currentIdentity(c echo.Context) (models.Identity, error) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return models.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return identity, nil
}

// postIDParam parses :id. Ids must fit a signed bigint column.
func postIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	return uint(id), nil
}
