// Package reservation holds seats in shared storage between selection and
// order submission, so concurrent buyers cannot oversell a zone.
package reservation

import (
	"context"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
)

// HoldStatus is the lifecycle state of a hold
type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "held"
	HoldStatusConfirmed HoldStatus = "confirmed"
)

// DefaultHoldTTL is used when ReserveParams.TTL is zero
const DefaultHoldTTL = 10 * time.Minute

// confirmedRetention is how long a confirmed hold stays readable
const confirmedRetention = 24 * time.Hour

// ReserveParams describes the seats a buyer wants to hold
type ReserveParams struct {
	EventID string
	BuyerID string
	Date    domain.Date
	Items   domain.Selection
	TTL     time.Duration
}

// Hold is a temporary claim on seats in one or more zones
type Hold struct {
	ID        string           `json:"id"`
	EventID   string           `json:"event_id"`
	BuyerID   string           `json:"buyer_id"`
	Date      domain.Date      `json:"date"`
	Items     domain.Selection `json:"items"`
	Status    HoldStatus       `json:"status"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Reserver defines the seat hold contract. Capacity is tracked per zone
// and shared by every date of the event.
type Reserver interface {
	// Reserve deducts every item atomically or none at all
	Reserve(ctx context.Context, params ReserveParams) (*Hold, error)
	// Confirm makes a hold permanent; confirming twice is a no-op
	Confirm(ctx context.Context, holdID string) error
	// Release returns a held reservation's seats
	Release(ctx context.Context, holdID string) error
	// ReleaseExpired releases up to limit holds that expired before now
	ReleaseExpired(ctx context.Context, now time.Time, limit int) (int, error)
	// Availability returns the seats left in a zone
	Availability(ctx context.Context, zoneID string) (int, error)
	// SeedZone sets a zone's capacity unless it is already tracked
	SeedZone(ctx context.Context, zoneID string, seats int) error
}

func validateParams(params ReserveParams) error {
	verr := &domain.ValidationError{}
	if params.EventID == "" {
		verr.Add("event_id", "event is required")
	}
	if params.Items.Total() <= 0 {
		verr.Add("items", "at least one seat is required")
	}
	for zoneID, qty := range params.Items {
		if qty < 0 {
			verr.Add("items", "quantity for zone "+zoneID+" cannot be negative")
		}
	}
	return verr.OrNil()
}

func holdTTL(params ReserveParams) time.Duration {
	if params.TTL <= 0 {
		return DefaultHoldTTL
	}
	return params.TTL
}
