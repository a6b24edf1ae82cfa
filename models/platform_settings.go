package models

import (
	"time"
)

// PlatformSetting represents a key/value platform configuration entry.
type PlatformSetting struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string    `gorm:"type:varchar(128);not null;uniqueIndex:uk_platform_settings_key" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedBy *string   `gorm:"type:varchar(320)" json:"updated_by,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PlatformSetting) TableName() string { return "platform_settings" }

// Setting keys
const (
	SettingKeyActiveModel = "active_model"
)

// PlatformSettingFilter represents filter criteria for platform settings
type PlatformSettingFilter struct {
	ID  *uint
	Key *string
}
