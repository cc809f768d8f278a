// Package selection tracks a buyer's desired ticket quantity per seat zone,
// bounded by each zone's capacity.
package selection

import (
	"fmt"

	"github.com/prohmpiriya/ringside/internal/domain"
)

// Engine holds one buyer session's selection. For every zone
// 0 <= Selected(zone) <= zone.NumberOfSeat at all times.
//
// Capacity is per zone, shared by every date of the event.
type Engine struct {
	capacity map[string]int
	order    []string
	selected map[string]int
}

// New creates an engine over the zones of an event
func New(zones []domain.SeatZone) *Engine {
	e := &Engine{
		capacity: make(map[string]int, len(zones)),
		selected: make(map[string]int),
	}
	for _, z := range zones {
		if _, dup := e.capacity[z.ID]; !dup {
			e.order = append(e.order, z.ID)
		}
		e.capacity[z.ID] = z.NumberOfSeat
	}
	return e
}

// Increment adds one ticket for zoneID. At capacity it returns
// ErrCapacityExceeded and leaves the selection unchanged.
func (e *Engine) Increment(zoneID string) error {
	capacity, ok := e.capacity[zoneID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}
	if e.selected[zoneID] >= capacity {
		return fmt.Errorf("%w: zone %s has %d seats", domain.ErrCapacityExceeded, zoneID, capacity)
	}
	e.selected[zoneID]++
	return nil
}

// Decrement removes one ticket for zoneID, flooring at zero. A zone that
// reaches zero leaves the active selection.
func (e *Engine) Decrement(zoneID string) error {
	if _, ok := e.capacity[zoneID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}
	if e.selected[zoneID] <= 1 {
		delete(e.selected, zoneID)
		return nil
	}
	e.selected[zoneID]--
	return nil
}

// Set replaces the quantity for zoneID. Values above capacity return
// ErrCapacityExceeded and leave the selection unchanged.
func (e *Engine) Set(zoneID string, n int) error {
	capacity, ok := e.capacity[zoneID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}
	switch {
	case n < 0:
		return domain.NewValidationError("quantity", "quantity cannot be negative")
	case n > capacity:
		return fmt.Errorf("%w: zone %s has %d seats", domain.ErrCapacityExceeded, zoneID, capacity)
	case n == 0:
		delete(e.selected, zoneID)
	default:
		e.selected[zoneID] = n
	}
	return nil
}

// Selected returns the current quantity for zoneID
func (e *Engine) Selected(zoneID string) int {
	return e.selected[zoneID]
}

// RemainingSeats returns capacity minus the current quantity
func (e *Engine) RemainingSeats(zoneID string) int {
	return e.capacity[zoneID] - e.selected[zoneID]
}

// Selections returns a copy of the active (non-zero) selection
func (e *Engine) Selections() domain.Selection {
	out := make(domain.Selection, len(e.selected))
	for id, n := range e.selected {
		out[id] = n
	}
	return out
}

// Total returns the number of selected tickets across all zones
func (e *Engine) Total() int {
	return e.Selections().Total()
}

// Reset clears the selection
func (e *Engine) Reset() {
	e.selected = make(map[string]int)
}

// Apply loads a whole selection, failing on the first zone that is
// unknown or over capacity. On failure the engine is left unchanged.
func (e *Engine) Apply(sel domain.Selection) error {
	staged := &Engine{capacity: e.capacity, order: e.order, selected: make(map[string]int)}
	for _, id := range e.order {
		if n, ok := sel[id]; ok {
			if err := staged.Set(id, n); err != nil {
				return err
			}
		}
	}
	for id := range sel {
		if _, ok := e.capacity[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
		}
	}
	e.selected = staged.selected
	return nil
}
