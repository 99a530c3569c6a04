// Package notification dispatches vendor-facing notifications for
// verification and wallet events. Dispatch is best-effort: a failed or
// misconfigured channel is logged and never propagates into the operation
// that raised the event.
package notification

import (
	"context"

	"github.com/google/uuid"

	"kasu/pkg/logger"
)

// EventKind names a notification-worthy event.
type EventKind string

const (
	EventIdentityVerified EventKind = "identity_verified"
	EventBankVerified     EventKind = "bank_verified"
	EventVendorApproved   EventKind = "vendor_approved"
	EventVendorRejected   EventKind = "vendor_rejected"
	EventVendorSuspended  EventKind = "vendor_suspended"
	EventOrderCredited    EventKind = "order_credited"
	EventFundsReleased    EventKind = "funds_released"
	EventPayoutCompleted  EventKind = "payout_completed"
	EventRefundProcessed  EventKind = "refund_processed"
)

// Event is a notification payload addressed to a vendor.
type Event struct {
	Kind     EventKind
	VendorID uuid.UUID
	Title    string
	Message  string
	Data     map[string]interface{}
}

// Dispatcher delivers events to the vendor's channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// Service logs every event as a structured record. It stands in for real
// delivery channels (push, email) and is the terminal dispatcher in tests.
type Service struct {
	logger logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{logger: log}
}

// Dispatch records the event. It never returns an error; notification
// delivery must not affect the outcome of the operation that raised it.
func (s *Service) Dispatch(ctx context.Context, event Event) {
	fields := logger.Fields{
		"event":     string(event.Kind),
		"vendor_id": event.VendorID.String(),
		"title":     event.Title,
	}
	for k, v := range event.Data {
		fields[k] = v
	}
	s.logger.Info("notification dispatched", fields)
}

// Nop discards all events. Used where a dispatcher is required but delivery
// is irrelevant.
type Nop struct{}

func (Nop) Dispatch(ctx context.Context, event Event) {}
