// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/models"
)

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToCampaignDTO converts a campaign model to its API representation
func ToCampaignDTO(campaign models.Campaign) dto.CampaignDTO {
	d := dto.CampaignDTO{
		UUID:         campaign.UUID.String(),
		Name:         campaign.Name,
		MasterPrompt: campaign.MasterPrompt,
		Status:       campaign.Status.String(),
		SourceFile:   campaign.SourceFile,
		Columns:      []string(campaign.Columns),
		CreatedAt:    campaign.CreatedAt.Format(time.RFC3339),
	}
	if campaign.UpdatedAt != nil {
		updatedAt := campaign.UpdatedAt.Format(time.RFC3339)
		d.UpdatedAt = &updatedAt
	}
	return d
}

// ToDataRowDTO converts a data row model to its API representation
func ToDataRowDTO(row models.DataRow) dto.DataRowDTO {
	d := dto.DataRowDTO{
		UUID:            row.UUID.String(),
		RowIndex:        row.RowIndex,
		Data:            row.Data,
		ContactEmail:    row.ContactEmail,
		ContactPhone:    row.ContactPhone,
		Channel:         row.Channel,
		MessageStatus:   row.MessageStatus.String(),
		OutboundMessage: row.OutboundMessage,
		ReplyText:       row.ReplyText,
		ReplyIntent:     row.ReplyIntent,
		NeedsReview:     row.NeedsReview,
		SuggestedUpdate: row.SuggestedUpdate,
		Confidence:      row.Confidence,
	}
	if row.SentAt != nil {
		sentAt := row.SentAt.Format(time.RFC3339)
		d.SentAt = &sentAt
	}
	if row.RepliedAt != nil {
		repliedAt := row.RepliedAt.Format(time.RFC3339)
		d.RepliedAt = &repliedAt
	}
	return d
}
