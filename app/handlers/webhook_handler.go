package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	businessflow "github.com/sentinalgrid/sentinalgrid/business_flow"
)

// WebhookHandlerInterface defines the contract for inbound reply webhooks
type WebhookHandlerInterface interface {
	InboundReply(c fiber.Ctx) error
	WhatsAppWebhook(c fiber.Ctx) error
	EmailWebhook(c fiber.Ctx) error
}

// WebhookHandler handles inbound reply delivery from messaging providers
type WebhookHandler struct {
	replyFlow businessflow.ReplyFlow
	validator *validator.Validate
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(replyFlow businessflow.ReplyFlow) *WebhookHandler {
	return &WebhookHandler{
		replyFlow: replyFlow,
		validator: validator.New(),
	}
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *WebhookHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// InboundReply accepts a reply addressed to a specific row, used by the
// email webhook bridge which resolves the row from the reply address.
func (h *WebhookHandler) InboundReply(c fiber.Ctx) error {
	var req dto.InboundReplyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.replyFlow.Reconcile(createRequestContext(c, "/api/v1/webhooks/reply"), &req, metadata)
	if err != nil {
		return h.replyErrorResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Reply reconciled successfully", result)
}

// WhatsAppWebhook receives WAHA message events and routes them to the
// latest awaiting row for the sender's phone number.
func (h *WebhookHandler) WhatsAppWebhook(c fiber.Ctx) error {
	var req dto.WhatsAppWebhookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if req.Event != "message" {
		return h.SuccessResponse(c, fiber.StatusOK, "Event ignored", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.replyFlow.ReconcileByPhone(createRequestContext(c, "/api/v1/webhooks/whatsapp"), req.Payload.From, req.Payload.Body, metadata)
	if err != nil {
		// Providers retry on non-2xx, so unmatched senders are acknowledged.
		if businessflow.IsRowNotFound(err) || businessflow.IsEmptyReply(err) {
			return h.SuccessResponse(c, fiber.StatusOK, "No awaiting row for sender", nil)
		}
		return h.replyErrorResponse(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Reply reconciled successfully", result)
}

// EmailWebhook is the inbound-parse endpoint for email providers. Delivery
// replies arrive through InboundReply until a parse integration is configured.
func (h *WebhookHandler) EmailWebhook(c fiber.Ctx) error {
	return h.SuccessResponse(c, fiber.StatusOK, "Email webhook endpoint ready", nil)
}

func (h *WebhookHandler) replyErrorResponse(c fiber.Ctx, err error) error {
	if businessflow.IsRowNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Data row not found", "ROW_NOT_FOUND", nil)
	}
	if businessflow.IsRowNotSent(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Row is not awaiting a reply", "ROW_NOT_AWAITING_REPLY", nil)
	}
	if businessflow.IsEmptyReply(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Reply text is empty", "EMPTY_REPLY", nil)
	}

	log.Println("Reply reconciliation failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Reply reconciliation failed", "RECONCILE_FAILED", nil)
}
