// Package audit is the append-and-query component behind the event
// processor. Entries are written once and never mutated or deleted.
package audit

import "time"

// Canonical audit type names. These are what gets persisted; they differ
// from the raw queue topic for some variants.
const (
	TypeProfileUpdate      = "PROFILE_UPDATE"
	TypePasswordChange     = "PASSWORD_CHANGE"
	TypePhotoUpdate        = "PHOTO_UPDATE"
	TypePhoneUpdate        = "PHONE_UPDATE"
	TypeEmployeeCreated    = "EMPLOYEE_CREATED"
	TypeEmployeeUpdated    = "EMPLOYEE_UPDATED"
	TypeEmployeeDeleted    = "EMPLOYEE_DELETED"
	TypeAttendanceClockIn  = "ATTENDANCE_CLOCK_IN"
	TypeAttendanceClockOut = "ATTENDANCE_CLOCK_OUT"
)

// Entry is one immutable audit record. OldData and NewData are opaque
// documents carried through from the originating event. Client is derived
// from UserAgent at record time for human-readable listings.
type Entry struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	UserName    string         `json:"userName"`
	EventType   string         `json:"eventType"`
	EventAction string         `json:"eventAction"`
	OldData     map[string]any `json:"oldData,omitempty"`
	NewData     map[string]any `json:"newData,omitempty"`
	IPAddress   string         `json:"ipAddress,omitempty"`
	UserAgent   string         `json:"userAgent,omitempty"`
	Client      string         `json:"client,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	UserID    string
	EventType string
	Start     *time.Time
	End       *time.Time
	Page      int
	Limit     int
}

// TypeCount is one row of the by-type aggregation.
type TypeCount struct {
	EventType string `json:"eventType"`
	Count     int64  `json:"count"`
}

// Stats summarizes the trail, optionally scoped to one user.
type Stats struct {
	Total       int64       `json:"total"`
	Today       int64       `json:"today"`
	ByEventType []TypeCount `json:"byEventType"`
}
