package businessflow

import (
	"context"
	"fmt"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
	"gorm.io/gorm"
)

// ReviewFlow applies human decisions to rows awaiting review
type ReviewFlow interface {
	Resolve(ctx context.Context, req *dto.ResolveReviewRequest, metadata *ClientMetadata) (*dto.ResolveReviewResponse, error)
}

// ReviewFlowImpl implements the review resolution flow
type ReviewFlowImpl struct {
	campaignRepo repository.CampaignRepository
	rowRepo      repository.DataRowRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewReviewFlow creates a new review flow instance
func NewReviewFlow(
	campaignRepo repository.CampaignRepository,
	rowRepo repository.DataRowRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) ReviewFlow {
	return &ReviewFlowImpl{
		campaignRepo: campaignRepo,
		rowRepo:      rowRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

// Resolve terminates a row's review state with an approve or reject decision
func (s *ReviewFlowImpl) Resolve(ctx context.Context, req *dto.ResolveReviewRequest, metadata *ClientMetadata) (*dto.ResolveReviewResponse, error) {
	if req.Action != dto.ReviewActionApprove && req.Action != dto.ReviewActionReject {
		return nil, NewBusinessError("INVALID_REVIEW_ACTION", "Review action must be approve or reject", ErrInvalidReviewAction)
	}

	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}
	if campaign.OwnerEmail != req.OwnerEmail {
		return nil, NewBusinessError("CAMPAIGN_ACCESS_DENIED", "Access denied: campaign belongs to another user", ErrCampaignAccessDenied)
	}

	row, err := s.rowRepo.ByUUID(ctx, req.RowUUID)
	if err != nil {
		return nil, NewBusinessError("ROW_LOOKUP_FAILED", "Failed to lookup row", err)
	}
	if row == nil || row.CampaignID != campaign.ID {
		return nil, NewBusinessError("ROW_NOT_FOUND", "Data row not found", ErrRowNotFound)
	}

	var resolved *models.DataRow
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		current, err := s.rowRepo.ByID(txCtx, row.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrRowNotFound
		}
		if !current.InReview() {
			return ErrRowNotInReview
		}

		switch req.Action {
		case dto.ReviewActionApprove:
			if len(current.SuggestedUpdate) == 0 {
				return ErrNoSuggestedUpdate
			}
			current.Data = current.Data.Merge(current.SuggestedUpdate)
			current.SuggestedUpdate = nil
		case dto.ReviewActionReject:
			if len(req.ManualUpdate) > 0 {
				current.Data = current.Data.Merge(models.RowData(req.ManualUpdate))
			}
		}

		current.MessageStatus = models.MessageStatusReplied
		current.NeedsReview = false

		if err := s.rowRepo.Update(txCtx, *current); err != nil {
			return err
		}

		resolved = current
		return nil
	})
	if err != nil {
		switch {
		case IsRowNotFound(err):
			return nil, NewBusinessError("ROW_NOT_FOUND", "Data row not found", ErrRowNotFound)
		case IsRowNotInReview(err):
			return nil, NewBusinessError("ROW_NOT_IN_REVIEW", "Row is not in the review queue", ErrRowNotInReview)
		case IsNoSuggestedUpdate(err):
			return nil, NewBusinessError("NO_SUGGESTED_UPDATE", "Row has no suggested update to approve", ErrNoSuggestedUpdate)
		default:
			return nil, NewBusinessError("REVIEW_RESOLVE_FAILED", "Failed to resolve review", err)
		}
	}

	action := models.AuditActionReviewApproved
	if req.Action == dto.ReviewActionReject {
		action = models.AuditActionReviewRejected
	}
	msg := fmt.Sprintf("Review resolved for row %s: action=%s", resolved.UUID.String(), req.Action)
	_ = s.createAuditLog(ctx, req.OwnerEmail, action, msg, metadata)

	return &dto.ResolveReviewResponse{
		Row: ToDataRowDTO(*resolved),
	}, nil
}

func (s *ReviewFlowImpl) createAuditLog(ctx context.Context, actorEmail, action, description string, metadata *ClientMetadata) error {
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
