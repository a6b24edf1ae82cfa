package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStatus represents the delivery and reconciliation status of a data row
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusReplied MessageStatus = "replied"
	MessageStatusReview  MessageStatus = "review"
	MessageStatusFailed  MessageStatus = "failed"
)

// String returns the string representation of the status
func (s MessageStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusPending, MessageStatusSent, MessageStatusReplied,
		MessageStatusReview, MessageStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MessageStatus
func (s *MessageStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = MessageStatus(v)
	case []byte:
		*s = MessageStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MessageStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MessageStatus
func (s MessageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MessageStatus: %s", s)
	}
	return string(s), nil
}

// RowData holds the spreadsheet columns of a single row as a JSON object
type RowData map[string]any

// Value implements the driver.Valuer interface for RowData
func (d RowData) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(RowData{})
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for RowData
func (d *RowData) Scan(value any) error {
	if value == nil {
		*d = RowData{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RowData", value)
	}

	return json.Unmarshal(bytes, d)
}

// Merge returns a new map combining d with updates. Keys present in
// updates win; nested values are replaced wholesale, not merged.
func (d RowData) Merge(updates RowData) RowData {
	merged := make(RowData, len(d)+len(updates))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}

// Clone returns a shallow copy of the row data
func (d RowData) Clone() RowData {
	if d == nil {
		return RowData{}
	}
	cloned := make(RowData, len(d))
	for k, v := range d {
		cloned[k] = v
	}
	return cloned
}

// DataRow represents one spreadsheet row of a campaign in the database
type DataRow struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_data_rows_uuid" json:"uuid"`
	CampaignID      uint          `gorm:"not null;index:idx_data_rows_campaign_id" json:"campaign_id"`
	RowIndex        int           `gorm:"not null" json:"row_index"`
	Data            RowData       `gorm:"type:jsonb;not null" json:"data"`
	ContactEmail    *string       `gorm:"type:varchar(320)" json:"contact_email,omitempty"`
	ContactPhone    *string       `gorm:"type:varchar(32)" json:"contact_phone,omitempty"`
	Channel         string        `gorm:"type:varchar(16);not null;default:'email'" json:"channel"`
	MessageStatus   MessageStatus `gorm:"type:message_status;not null;default:'pending';index:idx_data_rows_message_status" json:"message_status"`
	OutboundMessage *string       `gorm:"type:text" json:"outbound_message,omitempty"`
	ReplyText       *string       `gorm:"type:text" json:"reply_text,omitempty"`
	ReplyIntent     *string       `gorm:"type:varchar(64)" json:"reply_intent,omitempty"`
	NeedsReview     bool          `gorm:"not null;default:false;index:idx_data_rows_needs_review" json:"needs_review"`
	SuggestedUpdate RowData       `gorm:"type:jsonb" json:"suggested_update,omitempty"`
	Confidence      *float64      `json:"confidence,omitempty"`
	SentAt          *time.Time    `json:"sent_at,omitempty"`
	RepliedAt       *time.Time    `json:"replied_at,omitempty"`
	CreatedAt       time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time    `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (DataRow) TableName() string {
	return "data_rows"
}

// BeforeCreate is called before creating a new record
func (r *DataRow) BeforeCreate() error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.MessageStatus == "" {
		r.MessageStatus = MessageStatusPending
	}
	if r.Data == nil {
		r.Data = RowData{}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *DataRow) BeforeUpdate() error {
	now := time.Now().UTC()
	r.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the row can transition to the given status
func (r *DataRow) CanTransitionTo(newStatus MessageStatus) bool {
	switch r.MessageStatus {
	case MessageStatusPending:
		return newStatus == MessageStatusSent || newStatus == MessageStatusFailed
	case MessageStatusSent:
		return newStatus == MessageStatusReplied || newStatus == MessageStatusReview
	case MessageStatusReview:
		return newStatus == MessageStatusReplied
	default:
		return false
	}
}

// AwaitingReply checks if the row can still accept an inbound reply
func (r *DataRow) AwaitingReply() bool {
	return r.MessageStatus == MessageStatusSent
}

// InReview checks if the row is parked in the human review queue
func (r *DataRow) InReview() bool {
	return r.MessageStatus == MessageStatusReview
}

// DeliveryTarget resolves the destination string for the row's channel.
// Returns an empty string when no usable contact exists.
func (r *DataRow) DeliveryTarget() string {
	if r.Channel == "whatsapp" && r.ContactPhone != nil {
		return *r.ContactPhone
	}
	if r.ContactEmail != nil {
		return *r.ContactEmail
	}
	return ""
}

// DataRowFilter represents filter criteria for data rows
type DataRowFilter struct {
	ID            *uint          `json:"id,omitempty"`
	UUID          *uuid.UUID     `json:"uuid,omitempty"`
	CampaignID    *uint          `json:"campaign_id,omitempty"`
	MessageStatus *MessageStatus `json:"message_status,omitempty"`
	NeedsReview   *bool          `json:"needs_review,omitempty"`
	RepliedAfter  *time.Time     `json:"replied_after,omitempty"`
	RepliedBefore *time.Time     `json:"replied_before,omitempty"`
}
