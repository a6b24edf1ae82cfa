package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusRunning,
		CampaignStatusCompleted, CampaignStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// Campaign represents an outreach campaign in the database
type Campaign struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	OwnerEmail   string         `gorm:"type:varchar(320);not null;index:idx_campaigns_owner_email" json:"owner_email"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	MasterPrompt string         `gorm:"type:text;not null" json:"master_prompt"`
	Status       CampaignStatus `gorm:"type:campaign_status;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	SourceFile   string         `gorm:"type:varchar(255)" json:"source_file"`
	Columns      pq.StringArray `gorm:"type:text[]" json:"columns"`
	CreatedAt    time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Rows []DataRow `gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE" json:"rows,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate() error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate() error {
	now := time.Now().UTC()
	c.UpdatedAt = &now
	return nil
}

// IsLaunchable checks if the campaign can be launched. Only a running
// campaign is excluded: a finished run can be launched again to retry
// rows still pending.
func (c *Campaign) IsLaunchable() bool {
	return c.Status != CampaignStatusRunning
}

// IsTerminal checks if the campaign has finished its run
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusFailed
}

// CanTransitionTo checks if the campaign can transition to the given status
func (c *Campaign) CanTransitionTo(newStatus CampaignStatus) bool {
	switch c.Status {
	case CampaignStatusDraft, CampaignStatusCompleted, CampaignStatusFailed:
		return newStatus == CampaignStatusRunning
	case CampaignStatusRunning:
		return newStatus == CampaignStatusCompleted ||
			newStatus == CampaignStatusFailed
	default:
		return false
	}
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	OwnerEmail    *string         `json:"owner_email,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}

// GetStatusDisplayName returns a human-readable status name
func (c *Campaign) GetStatusDisplayName() string {
	switch c.Status {
	case CampaignStatusDraft:
		return "Draft"
	case CampaignStatusRunning:
		return "Running"
	case CampaignStatusCompleted:
		return "Completed"
	case CampaignStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
