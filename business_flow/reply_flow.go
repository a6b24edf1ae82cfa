package businessflow

import (
	"context"
	"fmt"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
	"github.com/sentinalgrid/sentinalgrid/repository"
	"github.com/sentinalgrid/sentinalgrid/utils"
	"gorm.io/gorm"
)

// ModelProvider resolves the drafting model to use for a call
type ModelProvider interface {
	ActiveModel(ctx context.Context) string
}

// ReplyFlow reconciles inbound free-text replies into structured row updates
type ReplyFlow interface {
	Reconcile(ctx context.Context, req *dto.InboundReplyRequest, metadata *ClientMetadata) (*dto.InboundReplyResponse, error)
	ReconcileByPhone(ctx context.Context, phone, replyText string, metadata *ClientMetadata) (*dto.InboundReplyResponse, error)
}

// ReplyFlowImpl implements the reply reconciliation flow
type ReplyFlowImpl struct {
	rowRepo   repository.DataRowRepository
	auditRepo repository.AuditLogRepository
	agent     services.AgentService
	modelProv ModelProvider
	threshold float64
	db        *gorm.DB
}

// NewReplyFlow creates a new reply flow instance
func NewReplyFlow(
	rowRepo repository.DataRowRepository,
	auditRepo repository.AuditLogRepository,
	agent services.AgentService,
	modelProv ModelProvider,
	threshold float64,
	db *gorm.DB,
) ReplyFlow {
	if threshold <= 0 {
		threshold = utils.DefaultConfidenceThreshold
	}
	return &ReplyFlowImpl{
		rowRepo:   rowRepo,
		auditRepo: auditRepo,
		agent:     agent,
		modelProv: modelProv,
		threshold: threshold,
		db:        db,
	}
}

// Reconcile processes a reply addressed to a specific row
func (s *ReplyFlowImpl) Reconcile(ctx context.Context, req *dto.InboundReplyRequest, metadata *ClientMetadata) (*dto.InboundReplyResponse, error) {
	if req.ReplyText == "" {
		return nil, NewBusinessError("REPLY_EMPTY", "Reply text is empty", ErrEmptyReply)
	}

	row, err := s.rowRepo.ByUUID(ctx, req.RowUUID)
	if err != nil {
		return nil, NewBusinessError("ROW_LOOKUP_FAILED", "Failed to lookup row", err)
	}
	if row == nil {
		return nil, NewBusinessError("ROW_NOT_FOUND", "Data row not found", ErrRowNotFound)
	}

	return s.reconcileRow(ctx, row, req.ReplyText, metadata)
}

// ReconcileByPhone routes an inbound WhatsApp message to the most recently
// sent row matching the sender's number
func (s *ReplyFlowImpl) ReconcileByPhone(ctx context.Context, phone, replyText string, metadata *ClientMetadata) (*dto.InboundReplyResponse, error) {
	if replyText == "" {
		return nil, NewBusinessError("REPLY_EMPTY", "Reply text is empty", ErrEmptyReply)
	}

	row, err := s.rowRepo.LatestAwaitingReplyByPhone(ctx, services.NormalizePhone(phone))
	if err != nil {
		return nil, NewBusinessError("ROW_LOOKUP_FAILED", "Failed to lookup row by phone", err)
	}
	if row == nil {
		return nil, NewBusinessError("ROW_NOT_FOUND", "No sent row matches the sender", ErrRowNotFound)
	}

	return s.reconcileRow(ctx, row, replyText, metadata)
}

func (s *ReplyFlowImpl) reconcileRow(ctx context.Context, row *models.DataRow, replyText string, metadata *ClientMetadata) (*dto.InboundReplyResponse, error) {
	if row.OutboundMessage == nil || !row.AwaitingReply() {
		return nil, NewBusinessError("ROW_NOT_SENT", "Row is not awaiting a reply", ErrRowNotSent)
	}

	outbound := *row.OutboundMessage
	extraction := s.agent.ExtractReply(ctx, row.Data, outbound, replyText, s.modelProv.ActiveModel(ctx))
	extraction.Confidence = clamp01(extraction.Confidence)
	accepted := extraction.Confidence >= s.threshold

	var updated *models.DataRow
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		current, err := s.rowRepo.ByID(txCtx, row.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrRowNotFound
		}
		if current.OutboundMessage == nil || !current.AwaitingReply() {
			return ErrRowNotSent
		}

		now := utils.UTCNow()
		current.ReplyText = &replyText
		current.ReplyIntent = utils.ToPtr(extraction.Intent)
		current.Confidence = utils.ToPtr(extraction.Confidence)
		current.RepliedAt = &now

		if accepted {
			current.Data = current.Data.Merge(models.RowData(extraction.Updates))
			current.MessageStatus = models.MessageStatusReplied
			current.NeedsReview = false
			current.SuggestedUpdate = nil
		} else {
			current.SuggestedUpdate = models.RowData(extraction.Updates)
			current.MessageStatus = models.MessageStatusReview
			current.NeedsReview = true
		}

		if err := s.rowRepo.Update(txCtx, *current); err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		switch {
		case IsRowNotFound(err):
			return nil, NewBusinessError("ROW_NOT_FOUND", "Data row not found", ErrRowNotFound)
		case IsRowNotSent(err):
			return nil, NewBusinessError("ROW_NOT_SENT", "Row is not awaiting a reply", ErrRowNotSent)
		default:
			return nil, NewBusinessError("REPLY_RECONCILE_FAILED", "Failed to reconcile reply", err)
		}
	}

	action := models.AuditActionReplyApplied
	if !accepted {
		action = models.AuditActionReplyQueued
	}
	msg := fmt.Sprintf("Reply reconciled for row %s: intent=%s confidence=%.2f", updated.UUID.String(), extraction.Intent, extraction.Confidence)
	_ = s.createAuditLog(ctx, action, msg, metadata)

	resp := &dto.InboundReplyResponse{
		RowUUID:       updated.UUID.String(),
		MessageStatus: updated.MessageStatus.String(),
		Intent:        extraction.Intent,
		Confidence:    extraction.Confidence,
		NeedsReview:   updated.NeedsReview,
	}
	if accepted {
		resp.AppliedUpdates = extraction.Updates
	} else {
		resp.SuggestedUpdates = extraction.Updates
	}

	return resp, nil
}

func (s *ReplyFlowImpl) createAuditLog(ctx context.Context, action, description string, metadata *ClientMetadata) error {
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

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
