package handlers

import (
	"io"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	businessflow "github.com/sentinalgrid/sentinalgrid/business_flow"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaign(c fiber.Ctx) error
	LaunchCampaign(c fiber.Ctx) error
	ListReviewQueue(c fiber.Ctx) error
	ResolveReview(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	reviewFlow   businessflow.ReviewFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow, reviewFlow businessflow.ReviewFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		reviewFlow:   reviewFlow,
		validator:    validator.New(),
	}
}

func (h *CampaignHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CampaignHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateCampaign handles the multipart campaign creation request
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Spreadsheet file is required", "MISSING_FILE", nil)
	}
	if fileHeader.Size > utils.MaxUploadSizeBytes {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Spreadsheet file is too large", "FILE_TOO_LARGE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to open uploaded file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "INVALID_FILE", err.Error())
	}

	req := dto.CreateCampaignRequest{
		OwnerEmail:   ownerEmail,
		Name:         c.FormValue("name"),
		MasterPrompt: c.FormValue("master_prompt"),
		FileName:     fileHeader.Filename,
		FileContent:  content,
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.CreateCampaign(createRequestContext(c, "/api/v1/campaigns"), &req, metadata)
	if err != nil {
		if businessflow.IsUnsupportedFileType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Only CSV and XLSX files are supported", "UNSUPPORTED_FILE_TYPE", nil)
		}
		if businessflow.IsEmptySpreadsheet(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Spreadsheet contains no data rows", "EMPTY_SPREADSHEET", nil)
		}

		log.Println("Campaign creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// ListCampaigns returns the authenticated user's campaigns
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))

	req := &dto.ListCampaignsRequest{
		OwnerEmail: ownerEmail,
		Page:       page,
		PageSize:   pageSize,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.ListCampaigns(createRequestContext(c, "/api/v1/campaigns"), req, metadata)
	if err != nil {
		log.Println("List campaigns failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list campaigns", "LIST_CAMPAIGNS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", result)
}

// GetCampaign returns a campaign with its rows
func (h *CampaignHandler) GetCampaign(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	req := &dto.GetCampaignRequest{
		UUID:       campaignUUID,
		OwnerEmail: ownerEmail,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.GetCampaign(createRequestContext(c, "/api/v1/campaigns/:uuid"), req, metadata)
	if err != nil {
		return h.campaignErrorResponse(c, err, "Failed to get campaign", "GET_CAMPAIGN_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign retrieved successfully", result)
}

// LaunchCampaign starts the background run of a draft campaign
func (h *CampaignHandler) LaunchCampaign(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	req := &dto.LaunchCampaignRequest{
		UUID:       campaignUUID,
		OwnerEmail: ownerEmail,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.LaunchCampaign(createRequestContext(c, "/api/v1/campaigns/:uuid/launch"), req, metadata)
	if err != nil {
		if businessflow.IsCampaignAlreadyRunning(err) || businessflow.IsCampaignLocked(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Campaign is not in a launchable state", "CAMPAIGN_NOT_LAUNCHABLE", nil)
		}
		return h.campaignErrorResponse(c, err, "Campaign launch failed", "CAMPAIGN_LAUNCH_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign launched successfully", result)
}

// ListReviewQueue returns the rows of a campaign awaiting human review
func (h *CampaignHandler) ListReviewQueue(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	campaignUUID := c.Params("uuid")
	if campaignUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign UUID is required", "MISSING_CAMPAIGN_UUID", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))

	req := &dto.ListReviewQueueRequest{
		UUID:       campaignUUID,
		OwnerEmail: ownerEmail,
		Page:       page,
		PageSize:   pageSize,
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.campaignFlow.ListReviewQueue(createRequestContext(c, "/api/v1/campaigns/:uuid/review"), req, metadata)
	if err != nil {
		return h.campaignErrorResponse(c, err, "Failed to list review queue", "REVIEW_QUEUE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Review queue retrieved successfully", result)
}

// ResolveReview applies a human decision to a row awaiting review
func (h *CampaignHandler) ResolveReview(c fiber.Ctx) error {
	ownerEmail, ok := c.Locals("user_email").(string)
	if !ok || ownerEmail == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	campaignUUID := c.Params("uuid")
	rowUUID := c.Params("rowUuid")
	if campaignUUID == "" || rowUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Campaign and row UUIDs are required", "MISSING_UUID", nil)
	}

	var req dto.ResolveReviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	req.CampaignUUID = campaignUUID
	req.RowUUID = rowUUID
	req.OwnerEmail = ownerEmail

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.reviewFlow.Resolve(createRequestContext(c, "/api/v1/campaigns/:uuid/rows/:rowUuid/review"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidReviewAction(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Review action must be approve or reject", "INVALID_REVIEW_ACTION", nil)
		}
		if businessflow.IsRowNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Data row not found", "ROW_NOT_FOUND", nil)
		}
		if businessflow.IsRowNotInReview(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Row is not in the review queue", "ROW_NOT_IN_REVIEW", nil)
		}
		if businessflow.IsNoSuggestedUpdate(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Row has no suggested update to approve", "NO_SUGGESTED_UPDATE", nil)
		}
		return h.campaignErrorResponse(c, err, "Failed to resolve review", "REVIEW_RESOLVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Review resolved successfully", result)
}

// campaignErrorResponse maps shared campaign lookup errors, falling back to 500
func (h *CampaignHandler) campaignErrorResponse(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsCampaignNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
	}
	if businessflow.IsCampaignAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign access denied", "CAMPAIGN_ACCESS_DENIED", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}
