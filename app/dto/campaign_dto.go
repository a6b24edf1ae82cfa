package dto

// CampaignDTO represents a campaign in API responses
type CampaignDTO struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	MasterPrompt string   `json:"master_prompt"`
	Status       string   `json:"status"`
	SourceFile   string   `json:"source_file,omitempty"`
	Columns      []string `json:"columns,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    *string  `json:"updated_at,omitempty"`

	TotalRows   int64 `json:"total_rows"`
	SentRows    int64 `json:"sent_rows"`
	RepliedRows int64 `json:"replied_rows"`
	ReviewRows  int64 `json:"review_rows"`
	FailedRows  int64 `json:"failed_rows"`
}

// DataRowDTO represents a campaign data row in API responses
type DataRowDTO struct {
	UUID            string         `json:"uuid"`
	RowIndex        int            `json:"row_index"`
	Data            map[string]any `json:"data"`
	ContactEmail    *string        `json:"contact_email,omitempty"`
	ContactPhone    *string        `json:"contact_phone,omitempty"`
	Channel         string         `json:"channel"`
	MessageStatus   string         `json:"message_status"`
	OutboundMessage *string        `json:"outbound_message,omitempty"`
	ReplyText       *string        `json:"reply_text,omitempty"`
	ReplyIntent     *string        `json:"reply_intent,omitempty"`
	NeedsReview     bool           `json:"needs_review"`
	SuggestedUpdate map[string]any `json:"suggested_update,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	SentAt          *string        `json:"sent_at,omitempty"`
	RepliedAt       *string        `json:"replied_at,omitempty"`
}

// CreateCampaignRequest represents the request to create a new campaign.
// The spreadsheet arrives as a multipart file alongside these form fields.
type CreateCampaignRequest struct {
	OwnerEmail   string `json:"-"`
	Name         string `form:"name" json:"name" validate:"required,min=1,max=255"`
	MasterPrompt string `form:"master_prompt" json:"master_prompt" validate:"required,min=1"`
	FileName     string `json:"-"`
	FileContent  []byte `json:"-"`
}

// CreateCampaignResponse represents the response to create a new campaign
type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
	RowCount int         `json:"row_count"`
}

// GetCampaignRequest represents the request to get an existing campaign
type GetCampaignRequest struct {
	UUID       string `json:"-"`
	OwnerEmail string `json:"-"`
}

// GetCampaignResponse represents a campaign with its rows
type GetCampaignResponse struct {
	Campaign CampaignDTO  `json:"campaign"`
	Rows     []DataRowDTO `json:"rows"`
}

// ListCampaignsRequest represents the request to list campaigns
type ListCampaignsRequest struct {
	OwnerEmail string `json:"-"`
	Page       int    `query:"page" json:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListCampaignsResponse represents the response to list campaigns
type ListCampaignsResponse struct {
	Campaigns []CampaignDTO `json:"campaigns"`
	Total     int64         `json:"total"`
}

// LaunchCampaignRequest represents the request to launch a campaign
type LaunchCampaignRequest struct {
	UUID       string `json:"-"`
	OwnerEmail string `json:"-"`
}

// LaunchCampaignResponse represents the response to launch a campaign
type LaunchCampaignResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// ListReviewQueueRequest represents the request to list rows awaiting review
type ListReviewQueueRequest struct {
	UUID       string `json:"-"`
	OwnerEmail string `json:"-"`
	Page       int    `query:"page" json:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListReviewQueueResponse represents the response listing the review queue
type ListReviewQueueResponse struct {
	Rows  []DataRowDTO `json:"rows"`
	Total int64        `json:"total"`
}
