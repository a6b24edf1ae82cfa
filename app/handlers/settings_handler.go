package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	businessflow "github.com/sentinalgrid/sentinalgrid/business_flow"
)

// SettingsHandlerInterface defines the contract for platform settings handlers
type SettingsHandlerInterface interface {
	GetModels(c fiber.Ctx) error
	SetModel(c fiber.Ctx) error
}

// SettingsHandler handles model selection requests
type SettingsHandler struct {
	settingsFlow businessflow.SettingsFlow
	validator    *validator.Validate
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsFlow businessflow.SettingsFlow) *SettingsHandler {
	return &SettingsHandler{
		settingsFlow: settingsFlow,
		validator:    validator.New(),
	}
}

func (h *SettingsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SettingsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetModels returns the active model and the allow-list
func (h *SettingsHandler) GetModels(c fiber.Ctx) error {
	result, err := h.settingsFlow.GetModels(createRequestContext(c, "/api/v1/settings/models"))
	if err != nil {
		log.Println("Get models failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get models", "GET_MODELS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Models retrieved successfully", result)
}

// SetModel switches the platform-wide active model
func (h *SettingsHandler) SetModel(c fiber.Ctx) error {
	actorEmail, ok := c.Locals("user_email").(string)
	if !ok || actorEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	var req dto.SetModelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.ActorEmail = actorEmail

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.settingsFlow.SetModel(createRequestContext(c, "/api/v1/settings/models"), &req, metadata)
	if err != nil {
		if businessflow.IsModelNotAllowed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Model is not in the allow-list", "MODEL_NOT_ALLOWED", nil)
		}

		log.Println("Set model failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to set model", "SET_MODEL_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Active model updated successfully", result)
}
