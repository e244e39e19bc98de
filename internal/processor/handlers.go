package processor

import (
	"context"
	"fmt"

	"workpulse/internal/audit"
	"workpulse/internal/event"
	"workpulse/internal/notification"
)

func (p *Processor) handleProfileUpdated(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypeProfileUpdate, evt.OldData, evt.NewData); err != nil {
		return err
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypeProfileUpdated,
		"Profile Updated",
		fmt.Sprintf("%s has updated their profile", evt.UserName),
		map[string]any{
			"changes": evt.NewData,
			"oldData": evt.OldData,
		},
	)
}

// Password changes leave an audit record only. The payload documents are
// dropped so no credential material reaches the trail.
func (p *Processor) handlePasswordChanged(ctx context.Context, evt event.Event) error {
	return p.record(ctx, evt, audit.TypePasswordChange, nil, nil)
}

func (p *Processor) handlePhotoUpdated(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypePhotoUpdate, evt.OldData, evt.NewData); err != nil {
		return err
	}
	var photoURL any
	if evt.NewData != nil {
		photoURL = evt.NewData["photoUrl"]
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypePhotoChanged,
		"Photo Updated",
		fmt.Sprintf("%s has updated their profile photo", evt.UserName),
		map[string]any{"photoUrl": photoURL},
	)
}

func (p *Processor) handlePhoneUpdated(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypePhoneUpdate, evt.OldData, evt.NewData); err != nil {
		return err
	}
	var oldPhone, newPhone any
	if evt.OldData != nil {
		oldPhone = evt.OldData["phone"]
	}
	if evt.NewData != nil {
		newPhone = evt.NewData["phone"]
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypePhoneUpdated,
		"Phone Number Updated",
		fmt.Sprintf("%s has updated their phone number", evt.UserName),
		map[string]any{"oldPhone": oldPhone, "newPhone": newPhone},
	)
}

func (p *Processor) handleEmployeeCreated(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypeEmployeeCreated, nil, evt.NewData); err != nil {
		return err
	}
	displayName := evt.UserName
	if name, ok := evt.NewData["name"].(string); ok && name != "" {
		displayName = name
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypeNewEmployee,
		"New Employee Created",
		fmt.Sprintf("New employee %s has been added", displayName),
		evt.NewData,
	)
}

func (p *Processor) handleEmployeeUpdated(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypeEmployeeUpdated, evt.OldData, evt.NewData); err != nil {
		return err
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypeEmployeeUpdated,
		"Employee Updated",
		fmt.Sprintf("Employee %s has been updated", evt.UserName),
		map[string]any{
			"changes": evt.NewData,
			"oldData": evt.OldData,
		},
	)
}

func (p *Processor) handleEmployeeDeleted(ctx context.Context, evt event.Event) error {
	if err := p.record(ctx, evt, audit.TypeEmployeeDeleted, evt.OldData, nil); err != nil {
		return err
	}
	return p.notifyAdmins(ctx, evt,
		notification.TypeEmployeeUpdated,
		"Employee Deleted",
		fmt.Sprintf("Employee %s has been deleted", evt.UserName),
		evt.OldData,
	)
}

func (p *Processor) handleAttendanceClockIn(ctx context.Context, evt event.Event) error {
	return p.record(ctx, evt, audit.TypeAttendanceClockIn, nil, evt.NewData)
}

func (p *Processor) handleAttendanceClockOut(ctx context.Context, evt event.Event) error {
	return p.record(ctx, evt, audit.TypeAttendanceClockOut, nil, evt.NewData)
}
