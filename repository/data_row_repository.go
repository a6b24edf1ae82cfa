package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentinalgrid/sentinalgrid/models"
	"gorm.io/gorm"
)

// DataRowRepositoryImpl implements the DataRowRepository interface
type DataRowRepositoryImpl struct {
	*BaseRepository[models.DataRow, models.DataRowFilter]
}

// NewDataRowRepository creates a new data row repository
func NewDataRowRepository(db *gorm.DB) DataRowRepository {
	return &DataRowRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DataRow, models.DataRowFilter](db),
	}
}

// ByUUID retrieves a data row by UUID
func (r *DataRowRepositoryImpl) ByUUID(ctx context.Context, rawUUID string) (*models.DataRow, error) {
	parsedUUID, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID format: %w", err)
	}

	filter := models.DataRowFilter{UUID: &parsedUUID}
	rows, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find data row by UUID: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// ByCampaignID retrieves all rows of a campaign in spreadsheet order
func (r *DataRowRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uint) ([]*models.DataRow, error) {
	filter := models.DataRowFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "row_index ASC", 0, 0)
}

// LatestAwaitingReplyByPhone finds the most recently sent row whose contact
// phone matches the normalized number. Used to route inbound WhatsApp
// messages that carry no row reference.
func (r *DataRowRepositoryImpl) LatestAwaitingReplyByPhone(ctx context.Context, normalizedPhone string) (*models.DataRow, error) {
	db := r.getDB(ctx)

	var rows []*models.DataRow
	err := db.Where("message_status = ?", models.MessageStatusSent).
		Where("REPLACE(REPLACE(REPLACE(COALESCE(contact_phone, ''), '+', ''), ' ', ''), '-', '') = ?", normalizedPhone).
		Order("sent_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find row by phone: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// ListByStatus retrieves rows of a campaign in the given status with pagination
func (r *DataRowRepositoryImpl) ListByStatus(ctx context.Context, campaignID uint, status models.MessageStatus, limit, offset int) ([]*models.DataRow, error) {
	filter := models.DataRowFilter{CampaignID: &campaignID, MessageStatus: &status}
	return r.ByFilter(ctx, filter, "row_index ASC", limit, offset)
}

// Update updates a data row
func (r *DataRowRepositoryImpl) Update(ctx context.Context, row models.DataRow) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := time.Now().UTC()
	row.UpdatedAt = &now

	err = db.Save(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update data row: %w", err)
	}

	return nil
}

// CountByStatus counts rows of a campaign in the given status
func (r *DataRowRepositoryImpl) CountByStatus(ctx context.Context, campaignID uint, status models.MessageStatus) (int64, error) {
	filter := models.DataRowFilter{CampaignID: &campaignID, MessageStatus: &status}
	return r.Count(ctx, filter)
}

// ByFilter retrieves data rows based on filter criteria
func (r *DataRowRepositoryImpl) ByFilter(ctx context.Context, filter models.DataRowFilter, orderBy string, limit, offset int) ([]*models.DataRow, error) {
	db := r.getDB(ctx)

	var rows []*models.DataRow
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find data rows by filter: %w", err)
	}

	return rows, nil
}

// Count returns the number of data rows matching the filter
func (r *DataRowRepositoryImpl) Count(ctx context.Context, filter models.DataRowFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.DataRow{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count data rows: %w", err)
	}

	return count, nil
}

func (r *DataRowRepositoryImpl) applyFilter(db *gorm.DB, filter models.DataRowFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.MessageStatus != nil {
		db = db.Where("message_status = ?", *filter.MessageStatus)
	}
	if filter.NeedsReview != nil {
		db = db.Where("needs_review = ?", *filter.NeedsReview)
	}
	if filter.RepliedAfter != nil {
		db = db.Where("replied_at >= ?", *filter.RepliedAfter)
	}
	if filter.RepliedBefore != nil {
		db = db.Where("replied_at <= ?", *filter.RepliedBefore)
	}
	return db
}
