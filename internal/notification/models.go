// Package notification persists recipient-scoped alerts and their read
// state. Rows are created by the event processor and mutated only by
// read-state transitions.
package notification

import "time"

// Notification type names, matching what the processor emits.
const (
	TypeProfileUpdated  = "PROFILE_UPDATED"
	TypePhotoChanged    = "PHOTO_CHANGED"
	TypePhoneUpdated    = "PHONE_UPDATED"
	TypeNewEmployee     = "NEW_EMPLOYEE"
	TypeEmployeeUpdated = "EMPLOYEE_UPDATED"
)

// Notification is one recipient-scoped alert. Metadata is an opaque document
// populated by the processor handler that created it.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipientId"`
	SenderID    string         `json:"senderId"`
	SenderName  string         `json:"senderName"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsRead      bool           `json:"isRead"`
	ReadAt      *time.Time     `json:"readAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Filter narrows List queries for one recipient.
type Filter struct {
	IsRead *bool
	Page   int
	Limit  int
}
