package dto

// Review actions
const (
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

// ResolveReviewRequest represents a human decision on a row awaiting review
type ResolveReviewRequest struct {
	CampaignUUID string         `json:"-"`
	RowUUID      string         `json:"-"`
	OwnerEmail   string         `json:"-"`
	Action       string         `json:"action" validate:"required,oneof=approve reject"`
	ManualUpdate map[string]any `json:"manual_update,omitempty"`
}

// ResolveReviewResponse represents the outcome of resolving a review
type ResolveReviewResponse struct {
	Row DataRowDTO `json:"row"`
}
