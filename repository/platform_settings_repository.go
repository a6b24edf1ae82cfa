package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinalgrid/sentinalgrid/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlatformSettingRepositoryImpl implements the PlatformSettingRepository interface
type PlatformSettingRepositoryImpl struct {
	*BaseRepository[models.PlatformSetting, models.PlatformSettingFilter]
}

// NewPlatformSettingRepository creates a new platform setting repository
func NewPlatformSettingRepository(db *gorm.DB) PlatformSettingRepository {
	return &PlatformSettingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PlatformSetting, models.PlatformSettingFilter](db),
	}
}

// ByKey retrieves a platform setting by its key
func (r *PlatformSettingRepositoryImpl) ByKey(ctx context.Context, key string) (*models.PlatformSetting, error) {
	filter := models.PlatformSettingFilter{Key: &key}
	settings, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find platform setting by key: %w", err)
	}

	if len(settings) == 0 {
		return nil, nil
	}

	return settings[0], nil
}

// Upsert inserts or updates a platform setting by key
func (r *PlatformSettingRepositoryImpl) Upsert(ctx context.Context, key, value string, updatedBy *string) error {
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
	setting := models.PlatformSetting{
		Key:       key,
		Value:     value,
		UpdatedBy: updatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to upsert platform setting: %w", err)
	}

	return nil
}

// ByFilter retrieves platform settings based on filter criteria
func (r *PlatformSettingRepositoryImpl) ByFilter(ctx context.Context, filter models.PlatformSettingFilter, orderBy string, limit, offset int) ([]*models.PlatformSetting, error) {
	db := r.getDB(ctx)

	var settings []*models.PlatformSetting
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

	err := query.Find(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find platform settings by filter: %w", err)
	}

	return settings, nil
}

// Count returns the number of platform settings matching the filter
func (r *PlatformSettingRepositoryImpl) Count(ctx context.Context, filter models.PlatformSettingFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PlatformSetting{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count platform settings: %w", err)
	}

	return count, nil
}

func (r *PlatformSettingRepositoryImpl) applyFilter(db *gorm.DB, filter models.PlatformSettingFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.Key != nil {
		db = db.Where("key = ?", *filter.Key)
	}
	return db
}
