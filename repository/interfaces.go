// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/sentinalgrid/sentinalgrid/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ListByOwner(ctx context.Context, ownerEmail string, limit, offset int) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
}

// DataRowRepository defines operations for campaign data rows
type DataRowRepository interface {
	Repository[models.DataRow, models.DataRowFilter]
	ByUUID(ctx context.Context, uuid string) (*models.DataRow, error)
	ByCampaignID(ctx context.Context, campaignID uint) ([]*models.DataRow, error)
	LatestAwaitingReplyByPhone(ctx context.Context, normalizedPhone string) (*models.DataRow, error)
	ListByStatus(ctx context.Context, campaignID uint, status models.MessageStatus, limit, offset int) ([]*models.DataRow, error)
	Update(ctx context.Context, row models.DataRow) error
	CountByStatus(ctx context.Context, campaignID uint, status models.MessageStatus) (int64, error)
}

// PlatformSettingRepository defines operations for platform settings
type PlatformSettingRepository interface {
	Repository[models.PlatformSetting, models.PlatformSettingFilter]
	ByKey(ctx context.Context, key string) (*models.PlatformSetting, error)
	Upsert(ctx context.Context, key, value string, updatedBy *string) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
}
