package authcore

import (
	"context"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// emitAudit builds and queues an audit event. metadata is only called when
// auditing is enabled so disabled engines pay no allocation.
func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, principalID string, err error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, e.now())
	event.PrincipalID = principalID
	event.DeviceID = deviceIDFromContext(ctx)
	event.IP = clientIPFromContext(ctx)
	event.Success = success
	if err != nil {
		event.Error = err.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

// withDevice records a device taken from a verified token so audit events
// carry it even when the caller did not set one on ctx.
func withDevice(ctx context.Context, deviceID string) context.Context {
	if deviceID == "" || deviceIDFromContext(ctx) != "" {
		return ctx
	}
	return WithDeviceID(ctx, deviceID)
}
