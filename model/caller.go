package model

// Caller identifies the authenticated user an operation acts for.
type Caller struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}
