// Package pendingcode stores the in-flight one-time-code reference for each
// vendor and verification purpose. At most one code is pending per
// vendor+purpose; storing a new one replaces the old, and a successful read
// for consumption removes it, so a code reference is used at most once.
package pendingcode

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Purpose names the verification stage a pending code belongs to.
type Purpose string

const (
	PurposeIdentity Purpose = "identity"
	PurposeBank     Purpose = "bank"
)

// PendingCode is the dispatch record kept between sending a code and
// validating it.
type PendingCode struct {
	VendorID    uuid.UUID `json:"vendor_id"`
	Purpose     Purpose   `json:"purpose"`
	Reference   string    `json:"reference"`
	MaskedPhone string    `json:"masked_phone"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the code's validity window has passed.
func (p *PendingCode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Store holds pending codes with expiry. Put replaces any existing entry for
// the same vendor and purpose. Get returns ErrCodeNotFound for a missing or
// expired entry.
type Store interface {
	Put(ctx context.Context, code *PendingCode) error
	Get(ctx context.Context, vendorID uuid.UUID, purpose Purpose) (*PendingCode, error)
	Delete(ctx context.Context, vendorID uuid.UUID, purpose Purpose) error
}
