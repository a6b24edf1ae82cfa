package businessflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

// SettingsFlow manages the platform-wide drafting model selection
type SettingsFlow interface {
	ModelProvider
	GetModels(ctx context.Context) (*dto.GetModelsResponse, error)
	SetModel(ctx context.Context, req *dto.SetModelRequest, metadata *ClientMetadata) (*dto.SetModelResponse, error)
}

// SettingsFlowImpl implements the settings business flow
type SettingsFlowImpl struct {
	settingsRepo  repository.PlatformSettingRepository
	auditRepo     repository.AuditLogRepository
	rc            *redis.Client
	allowedModels []string
	defaultModel  string
}

// NewSettingsFlow creates a new settings flow instance
func NewSettingsFlow(
	settingsRepo repository.PlatformSettingRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	allowedModels []string,
	defaultModel string,
) SettingsFlow {
	return &SettingsFlowImpl{
		settingsRepo:  settingsRepo,
		auditRepo:     auditRepo,
		rc:            rc,
		allowedModels: allowedModels,
		defaultModel:  defaultModel,
	}
}

// ActiveModel resolves the current drafting model: cache, then store, then default
func (s *SettingsFlowImpl) ActiveModel(ctx context.Context) string {
	if s.rc != nil {
		if cached, err := s.rc.Get(ctx, utils.RedisActiveModelKey).Result(); err == nil && cached != "" {
			return cached
		}
	}

	if setting, err := s.settingsRepo.ByKey(ctx, models.SettingKeyActiveModel); err == nil && setting != nil && setting.Value != "" {
		return setting.Value
	}

	return s.defaultModel
}

// GetModels returns the active model and the configured allow-list
func (s *SettingsFlowImpl) GetModels(ctx context.Context) (*dto.GetModelsResponse, error) {
	return &dto.GetModelsResponse{
		ActiveModel:   s.ActiveModel(ctx),
		AllowedModels: s.allowedModels,
	}, nil
}

// SetModel changes the active drafting model, rejecting names outside the allow-list
func (s *SettingsFlowImpl) SetModel(ctx context.Context, req *dto.SetModelRequest, metadata *ClientMetadata) (*dto.SetModelResponse, error) {
	if !slices.Contains(s.allowedModels, req.Model) {
		return nil, NewBusinessErrorf("MODEL_NOT_ALLOWED", "Model %q is not in the allowed list", ErrModelNotAllowed, req.Model)
	}

	var updatedBy *string
	if req.ActorEmail != "" {
		updatedBy = &req.ActorEmail
	}

	if err := s.settingsRepo.Upsert(ctx, models.SettingKeyActiveModel, req.Model, updatedBy); err != nil {
		return nil, NewBusinessError("MODEL_PERSIST_FAILED", "Failed to persist model setting", err)
	}

	if s.rc != nil {
		_ = s.rc.Set(ctx, utils.RedisActiveModelKey, req.Model, 0).Err()
	}

	msg := fmt.Sprintf("Active model changed to %s", req.Model)
	_ = s.createAuditLog(ctx, req.ActorEmail, models.AuditActionModelChanged, msg, metadata)

	return &dto.SetModelResponse{ActiveModel: req.Model}, nil
}

func (s *SettingsFlowImpl) createAuditLog(ctx context.Context, actorEmail, action, description string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(true),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}
	if actorEmail != "" {
		audit.ActorEmail = &actorEmail
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
