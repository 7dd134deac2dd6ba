package handlers

import (
	"net/http"

	"github.com/anonto42/pinpost/backend/internal/middleware"
	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  *services.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure, which production deployments behind TLS should enable.
func NewAuthHandler(authService *services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
	g.POST("/auth/firebase-login", h.FirebaseLogin)
	g.PUT("/auth/profile", h.UpdateProfile, requireAuth)
}

// Register handles local user registration with email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Identity{ID: user.ID, Name: user.Name, Email: user.Email})
}

// Login checks credentials, sets the token cookie and returns claims plus token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	c.SetCookie(h.tokenCookie(result.Token))
	return c.JSON(http.StatusOK, result)
}

// FirebaseLogin exchanges a Firebase ID token for a local session.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return serviceError(c, err)
	}

	c.SetCookie(h.tokenCookie(result.Token))
	return c.JSON(http.StatusOK, result)
}

// Logout clears the token cookie. It answers 401 when the cookie held no
// valid token, but the cookie is cleared either way.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(middleware.TokenCookie); err == nil {
		token = cookie.Value
	}

	cleared := h.tokenCookie("")
	cleared.MaxAge = -1
	c.SetCookie(cleared)

	if err := h.authService.Logout(token); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// UpdateProfile updates the authenticated user's profile
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), identity, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) tokenCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookie,
	}
}
