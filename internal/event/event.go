// Package event defines the wire contract between producers and the
// processing pipeline. Producers enqueue Events verbatim; only processor
// handlers interpret the opaque payload documents.
package event

import (
	"fmt"
	"time"
)

// Type identifies an event variant. The set is closed: the processor refuses
// to start unless every type has a registered handler.
type Type string

const (
	TypeProfileUpdated     Type = "profile.updated"
	TypePasswordChanged    Type = "password.changed"
	TypePhotoUpdated       Type = "photo.updated"
	TypePhoneUpdated       Type = "phone.updated"
	TypeEmployeeCreated    Type = "employee.created"
	TypeEmployeeUpdated    Type = "employee.updated"
	TypeEmployeeDeleted    Type = "employee.deleted"
	TypeAttendanceClockIn  Type = "attendance.clock_in"
	TypeAttendanceClockOut Type = "attendance.clock_out"
)

// AllTypes lists every known event type. Keep in sync with the constants
// above; the processor checks its dispatch table against this slice.
var AllTypes = []Type{
	TypeProfileUpdated,
	TypePasswordChanged,
	TypePhotoUpdated,
	TypePhoneUpdated,
	TypeEmployeeCreated,
	TypeEmployeeUpdated,
	TypeEmployeeDeleted,
	TypeAttendanceClockIn,
	TypeAttendanceClockOut,
}

// ParseType validates a raw type string from a producer.
func ParseType(s string) (Type, error) {
	t := Type(s)
	for _, known := range AllTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type: %q", s)
}

func (t Type) String() string { return string(t) }

// Action describes what happened to the underlying record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ParseAction validates a raw action string.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return a, nil
	default:
		return "", fmt.Errorf("unknown event action: %q", s)
	}
}

// Event is the immutable payload producers enqueue. OldData and NewData are
// opaque documents passed through to audit and notification records without
// interpretation by the queue.
type Event struct {
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName"`
	Type      Type           `json:"eventType"`
	Action    Action         `json:"eventAction"`
	OldData   map[string]any `json:"oldData,omitempty"`
	NewData   map[string]any `json:"newData,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Validate checks the fields the pipeline itself depends on. Payload
// documents stay opaque and are not validated here.
func (e Event) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("event requires userId")
	}
	if _, err := ParseType(string(e.Type)); err != nil {
		return err
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	return nil
}
