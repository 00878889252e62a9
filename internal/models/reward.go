package models

// Reward is an award that users apply for.
type Reward struct {
	BaseModel
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`

	Applications []Application `json:"applications,omitempty"`
}
