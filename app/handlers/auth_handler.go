package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	businessflow "github.com/sentinalgrid/sentinalgrid/business_flow"
)

const oauthStateCookie = "oauth_state"

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	Callback(c fiber.Ctx) error
}

// AuthHandler handles Google OAuth login
type AuthHandler struct {
	authFlow    businessflow.AuthFlow
	frontendURL string
	validator   *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authFlow businessflow.AuthFlow, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authFlow:    authFlow,
		frontendURL: frontendURL,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// Login redirects the browser to the Google consent page
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		log.Println("OAuth state generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(h.authFlow.LoginURL(createRequestContext(c, "/api/v1/auth/login"), state))
}

// Callback exchanges the Google authorization code for a session token
// and redirects back to the frontend with the token attached.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	req := dto.OAuthCallbackRequest{
		Code:  c.Query("code"),
		State: c.Query("state"),
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Authorization code is required", "MISSING_CODE", nil)
	}

	if req.State == "" || req.State != c.Cookies(oauthStateCookie) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "OAuth state mismatch", "INVALID_STATE", nil)
	}
	c.ClearCookie(oauthStateCookie)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.authFlow.HandleCallback(createRequestContext(c, "/api/v1/auth/callback"), &req, metadata)
	if err != nil {
		log.Println("OAuth callback failed", err)
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Login failed", "LOGIN_FAILED", nil)
	}

	redirect := h.frontendURL + "/auth/complete?token=" + url.QueryEscape(result.Token)
	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(redirect)
}

func generateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
