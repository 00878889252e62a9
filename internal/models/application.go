package models

import (
	"github.com/google/uuid"
)

// Application review pipeline. In-process stages run in order; awarded and
// rejected are terminal.
const (
	StatusSubmitted    = "submitted"
	StatusNeighborhood = "neighborhood"
	StatusDistrict     = "district"
	StatusRegion       = "region"
	StatusFinalReview  = "final_review"
	StatusAwarded      = "awarded"
	StatusRejected     = "rejected"
)

// StatusLabels maps status codes to display text.
var StatusLabels = map[string]string{
	StatusSubmitted:    "Submitted",
	StatusNeighborhood: "Neighborhood review",
	StatusDistrict:     "District review",
	StatusRegion:       "Region review",
	StatusFinalReview:  "Final review",
	StatusAwarded:      "Awarded",
	StatusRejected:     "Rejected",
}

// IsValidStatus reports whether code names a pipeline stage.
func IsValidStatus(code string) bool {
	_, ok := StatusLabels[code]
	return ok
}

// Areas an applicant can belong to.
var Areas = []string{
	"Andijon",
	"Buxoro",
	"Fargona",
	"Jizzax",
	"Namangan",
	"Navoiy",
	"Qashqadaryo",
	"Qoraqalpogiston",
	"Samarqand",
	"Sirdaryo",
	"Surxondaryo",
	"Toshkent",
	"Toshkent_shahri",
	"Xorazm",
}

// IsValidArea reports whether area is one of the known regions.
func IsValidArea(area string) bool {
	for _, a := range Areas {
		if a == area {
			return true
		}
	}
	return false
}

// Application is a user's submission for a reward. A user holds at most one
// application per reward.
type Application struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_user_reward" json:"user_id"`
	User     *User     `json:"user,omitempty"`
	RewardID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_user_reward" json:"reward_id"`
	Reward   *Reward   `json:"reward,omitempty"`

	Status              string `gorm:"default:submitted" json:"status"`
	Area                string `json:"area"`
	District            string `json:"district"`
	Neighborhood        string `json:"neighborhood"`
	Activity            string `json:"activity"`
	ActivityDescription string `json:"activity_description"`

	RecommendationLetter string `json:"recommendation_letter"`
	Source               string `json:"source"`

	Certificates []Certificate `json:"certificates,omitempty"`
	Files        []File        `json:"files,omitempty"`
}

// Certificate is a supporting document attached to an application.
type Certificate struct {
	BaseModel
	ApplicationID uuid.UUID `gorm:"type:uuid;index" json:"application_id"`
	Path          string    `json:"path"`
	OriginalName  string    `json:"original_name"`
	Size          int64     `json:"size"`
}

// File is a generic attachment of an application.
type File struct {
	BaseModel
	ApplicationID uuid.UUID `gorm:"type:uuid;index" json:"application_id"`
	Path          string    `json:"path"`
	OriginalName  string    `json:"original_name"`
	Size          int64     `json:"size"`
}
