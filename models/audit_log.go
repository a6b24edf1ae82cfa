// Package models contains domain entities for the outreach platform
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ActorEmail   *string         `gorm:"type:varchar(320);index:idx_audit_actor_email" json:"actor_email,omitempty"`
	Action       string          `gorm:"type:varchar(64);not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionLoginSuccess      = "login_success"
	AuditActionLoginFailed       = "login_failed"
	AuditActionCampaignCreated   = "campaign_created"
	AuditActionCampaignLaunched  = "campaign_launched"
	AuditActionCampaignCompleted = "campaign_completed"
	AuditActionReplyReceived     = "reply_received"
	AuditActionReplyApplied      = "reply_applied"
	AuditActionReplyQueued       = "reply_queued_for_review"
	AuditActionReviewApproved    = "review_approved"
	AuditActionReviewRejected    = "review_rejected"
	AuditActionModelChanged      = "model_changed"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	ActorEmail    *string
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
