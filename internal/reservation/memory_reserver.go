package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
)

// MemoryReserver implements Reserver in process memory. It is used for
// single-node runs without Redis and in tests.
type MemoryReserver struct {
	mu        sync.Mutex
	available map[string]int
	holds     map[string]*Hold
	now       func() time.Time
	newID     func() string
}

// NewMemoryReserver creates an empty in-memory reserver
func NewMemoryReserver() *MemoryReserver {
	return &MemoryReserver{
		available: make(map[string]int),
		holds:     make(map[string]*Hold),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Reserve implements Reserver
func (m *MemoryReserver) Reserve(ctx context.Context, params ReserveParams) (*Hold, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	zones := sortedZones(params.Items)
	for _, zoneID := range zones {
		left, ok := m.available[zoneID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
		}
		if left < params.Items[zoneID] {
			return nil, fmt.Errorf("%w: zone %s has %d left", domain.ErrInsufficientSeats, zoneID, left)
		}
	}
	for _, zoneID := range zones {
		m.available[zoneID] -= params.Items[zoneID]
	}

	hold := &Hold{
		ID:        m.newID(),
		EventID:   params.EventID,
		BuyerID:   params.BuyerID,
		Date:      params.Date,
		Items:     copySelection(params.Items),
		Status:    HoldStatusHeld,
		ExpiresAt: m.now().Add(holdTTL(params)),
	}
	m.holds[hold.ID] = hold

	out := *hold
	out.Items = copySelection(hold.Items)
	return &out, nil
}

// Confirm implements Reserver
func (m *MemoryReserver) Confirm(ctx context.Context, holdID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hold, ok := m.holds[holdID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrHoldNotFound, holdID)
	}
	if hold.Status == HoldStatusConfirmed {
		return nil
	}
	if !hold.ExpiresAt.After(m.now()) {
		return fmt.Errorf("%w: %s expired", domain.ErrHoldNotFound, holdID)
	}
	hold.Status = HoldStatusConfirmed
	return nil
}

// Release implements Reserver
func (m *MemoryReserver) Release(ctx context.Context, holdID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked(holdID)
}

// ReleaseExpired implements Reserver
func (m *MemoryReserver) ReleaseExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []*Hold
	for _, h := range m.holds {
		if h.Status == HoldStatusHeld && !h.ExpiresAt.After(now) {
			expired = append(expired, h)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	for _, h := range expired {
		if err := m.releaseLocked(h.ID); err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}

// Availability implements Reserver
func (m *MemoryReserver) Availability(ctx context.Context, zoneID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	left, ok := m.available[zoneID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}
	return left, nil
}

// SeedZone implements Reserver
func (m *MemoryReserver) SeedZone(ctx context.Context, zoneID string, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.available[zoneID]; !ok {
		m.available[zoneID] = seats
	}
	return nil
}

func (m *MemoryReserver) releaseLocked(holdID string) error {
	hold, ok := m.holds[holdID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrHoldNotFound, holdID)
	}
	if hold.Status == HoldStatusConfirmed {
		return fmt.Errorf("%w: hold %s is already confirmed", domain.ErrInvalidTransition, holdID)
	}
	for zoneID, qty := range hold.Items {
		m.available[zoneID] += qty
	}
	delete(m.holds, holdID)
	return nil
}

func sortedZones(sel domain.Selection) []string {
	zones := make([]string, 0, len(sel))
	for zoneID, qty := range sel {
		if qty > 0 {
			zones = append(zones, zoneID)
		}
	}
	sort.Strings(zones)
	return zones
}

func copySelection(sel domain.Selection) domain.Selection {
	out := make(domain.Selection, len(sel))
	for zoneID, qty := range sel {
		if qty > 0 {
			out[zoneID] = qty
		}
	}
	return out
}
