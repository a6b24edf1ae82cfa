package dto

// GetModelsResponse lists the active drafting model and the allowed choices
type GetModelsResponse struct {
	ActiveModel   string   `json:"active_model"`
	AllowedModels []string `json:"allowed_models"`
}

// SetModelRequest represents the request to change the active drafting model
type SetModelRequest struct {
	ActorEmail string `json:"-"`
	Model      string `json:"model" validate:"required,min=1"`
}

// SetModelResponse confirms the active drafting model
type SetModelResponse struct {
	ActiveModel string `json:"active_model"`
}
