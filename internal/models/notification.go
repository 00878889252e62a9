package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationApplicationCreated  = "application_created"
	NotificationApplicationUpdated  = "application_updated"
	NotificationApplicationRejected = "application_rejected"
	NotificationRewardWon           = "reward_won"
)

// Notification delivery statuses.
const (
	NotificationStatusPending   = "pending"
	NotificationStatusSent      = "sent"
	NotificationStatusFailed    = "failed"
	NotificationStatusCancelled = "cancelled"
)

// JSONMap stores an arbitrary payload as a jsonb column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, m)
	case string:
		return json.Unmarshal([]byte(raw), m)
	default:
		return errors.New("unsupported jsonb source type")
	}
}

// Notification is a user-facing message synthesized from an application event.
// SourceType/SourceID reference the originating object (an application).
type Notification struct {
	BaseModel
	RecipientID uuid.UUID `gorm:"type:uuid;index:idx_recipient_read" json:"recipient_id"`
	Recipient   *User     `json:"recipient,omitempty"`

	SourceType string    `gorm:"index:idx_source" json:"source_type"`
	SourceID   uuid.UUID `gorm:"type:uuid;index:idx_source" json:"source_id"`

	Type   string `gorm:"index" json:"type"`
	Title  string `json:"title"`
	Status string `gorm:"default:sent" json:"status"`

	SentAt *time.Time `json:"sent_at"`
	ReadAt *time.Time `gorm:"index:idx_recipient_read" json:"read_at"`

	Extra JSONMap `gorm:"type:jsonb" json:"extra"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
