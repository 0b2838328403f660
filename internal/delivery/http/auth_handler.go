package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/FilipeAphrody/sentinel-authcore/internal/usecase"
)

// JWTCookieName is the cookie carrying the session token.
const JWTCookieName = "jwt"

// AuthHandler represents the HTTP delivery layer for authentication.
type AuthHandler struct {
	usecase      *usecase.AuthUsecase
	logger       zerolog.Logger
	secureCookie bool
}

// NewAuthHandler registers the authentication routes to the provided echo group.
func NewAuthHandler(g *echo.Group, u *usecase.AuthUsecase, logger zerolog.Logger, secureCookie bool) {
	handler := &AuthHandler{usecase: u, logger: logger, secureCookie: secureCookie}

	g.POST("/signup", handler.Signup)
	g.POST("/login", handler.Login)
	g.POST("/verify-2fa", handler.Verify2FA)
	g.POST("/logout", handler.Logout)
	g.POST("/verify-token", handler.VerifyToken)
	g.GET("/session", handler.Session, JWTMiddleware(u))
}

// signupRequest defines the expected JSON payload for the signup endpoint.
type signupRequest struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Requires2FA bool   `json:"requires2FA"`
}

// loginRequest defines the expected JSON payload for the login endpoint.
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// verify2FARequest defines the expected JSON payload for the 2FA verification endpoint.
type verify2FARequest struct {
	Email          string `json:"email" validate:"required"`
	LoginAttemptID string `json:"loginAttemptId" validate:"required"`
	Code           string `json:"2FACode" validate:"required"`
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Signup creates a new account.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	err := h.usecase.Signup(c.Request().Context(), req.Email, req.Password, req.Requires2FA)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully!"})
}

// Login handles the initial authentication request.
// 200 sets the session cookie; 206 means a 2FA code was emailed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	result, err := h.usecase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	if result.Requires2FA {
		return c.JSON(http.StatusPartialContent, echo.Map{
			"message":        "2FA required",
			"loginAttemptId": result.LoginAttemptID.String(),
		})
	}

	c.SetCookie(h.sessionCookie(result.Token))
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful", "token": result.Token})
}

// Verify2FA handles the second step of authentication for accounts with 2FA enabled.
func (h *AuthHandler) Verify2FA(c echo.Context) error {
	var req verify2FARequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	token, err := h.usecase.Verify2FA(c.Request().Context(), req.Email, req.LoginAttemptID, req.Code)
	if err != nil {
		return h.respondError(c, err)
	}

	c.SetCookie(h.sessionCookie(token))
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful", "token": token})
}

// Logout revokes the presented token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := extractToken(c)
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing token"})
	}

	if err := h.usecase.Logout(c.Request().Context(), token); err != nil {
		return h.respondError(c, err)
	}

	c.SetCookie(h.expiredCookie())
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// VerifyToken reports whether a token is still valid.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	var req verifyTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if _, err := h.usecase.VerifyToken(c.Request().Context(), req.Token); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "token is valid"})
}

// Session describes the authenticated caller. It runs behind JWTMiddleware.
func (h *AuthHandler) Session(c echo.Context) error {
	claims := ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	resp := echo.Map{"email": claims.Email()}
	if claims.ExpiresAt != nil {
		resp["expiresAt"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}

	return c.JSON(http.StatusOK, resp)
}

// respondError maps usecase outcomes to status codes. Unexpected errors are
// logged and never shown to the client.
func (h *AuthHandler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
	case errors.Is(err, usecase.ErrAuthenticationFailure):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect credentials"})
	case errors.Is(err, usecase.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unexpected error"})
	}
}

func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     JWTCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.usecase.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     JWTCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

var (
	errInvalidBody   = errors.New("invalid request body")
	errMissingFields = errors.New("missing required fields")
)

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(req); err != nil {
		return errMissingFields
	}
	return nil
}

// extractToken reads the session cookie, falling back to "Authorization: Bearer <token>".
func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(JWTCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}

	return ""
}
