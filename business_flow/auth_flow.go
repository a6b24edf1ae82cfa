package businessflow

import (
	"context"
	"fmt"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
)

// AuthFlow handles the OAuth login workflow
type AuthFlow interface {
	LoginURL(ctx context.Context, state string) string
	HandleCallback(ctx context.Context, req *dto.OAuthCallbackRequest, metadata *ClientMetadata) (*dto.OAuthCallbackResponse, error)
}

// AuthFlowImpl implements the OAuth login flow
type AuthFlowImpl struct {
	oauth     services.OAuthService
	tokens    services.TokenService
	auditRepo repository.AuditLogRepository
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	oauth services.OAuthService,
	tokens services.TokenService,
	auditRepo repository.AuditLogRepository,
) AuthFlow {
	return &AuthFlowImpl{
		oauth:     oauth,
		tokens:    tokens,
		auditRepo: auditRepo,
	}
}

// LoginURL returns the provider consent URL to redirect the user to
func (s *AuthFlowImpl) LoginURL(ctx context.Context, state string) string {
	return s.oauth.AuthURL(state)
}

// HandleCallback exchanges the authorization code and issues a session token
func (s *AuthFlowImpl) HandleCallback(ctx context.Context, req *dto.OAuthCallbackRequest, metadata *ClientMetadata) (*dto.OAuthCallbackResponse, error) {
	info, err := s.oauth.Exchange(ctx, req.Code)
	if err != nil {
		errMsg := fmt.Sprintf("OAuth exchange failed: %s", err.Error())
		_ = s.createAuditLog(ctx, "", models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("OAUTH_EXCHANGE_FAILED", "OAuth exchange failed", err)
	}

	token, err := s.tokens.GenerateSessionToken(info.Email, info.Name, info.Picture)
	if err != nil {
		errMsg := fmt.Sprintf("Session token generation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, info.Email, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to issue session token", err)
	}

	msg := fmt.Sprintf("User logged in: %s", info.Email)
	_ = s.createAuditLog(ctx, info.Email, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return &dto.OAuthCallbackResponse{
		Token: token,
		User: dto.SessionUserDTO{
			Email:   info.Email,
			Name:    info.Name,
			Picture: info.Picture,
		},
	}, nil
}

func (s *AuthFlowImpl) createAuditLog(ctx context.Context, actorEmail, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
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
