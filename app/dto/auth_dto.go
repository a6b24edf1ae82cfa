package dto

// SessionUserDTO represents the authenticated user in API responses
type SessionUserDTO struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// OAuthCallbackRequest represents the Google OAuth callback parameters
type OAuthCallbackRequest struct {
	Code  string `query:"code" json:"code" validate:"required"`
	State string `query:"state" json:"state"`
}

// OAuthCallbackResponse carries the issued session token
type OAuthCallbackResponse struct {
	Token string         `json:"token"`
	User  SessionUserDTO `json:"user"`
}
