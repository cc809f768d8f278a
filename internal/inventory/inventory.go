// Package inventory defines the purchasable seat zones of an event and
// generates their seat pools.
package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
)

// ZoneUpdate is a partial zone edit. Nil fields are left unchanged.
type ZoneUpdate struct {
	ZoneName     *string `json:"zone_name,omitempty"`
	NumberOfSeat *int    `json:"number_of_seat,omitempty"`
	Price        *int64  `json:"price,omitempty"`
}

// Option configures an Inventory
type Option func(*Inventory)

// WithIDGenerator overrides zone ID generation
func WithIDGenerator(gen func() string) Option {
	return func(inv *Inventory) {
		inv.newID = gen
	}
}

// Inventory owns the seat zones of one event. Zones can only be changed
// through its methods so that every zone keeps exactly NumberOfSeat seats.
type Inventory struct {
	zones  []domain.SeatZone
	frozen bool
	newID  func() string
}

// New creates an inventory seeded with copies of zones
func New(zones []domain.SeatZone, opts ...Option) *Inventory {
	inv := &Inventory{newID: uuid.NewString}
	for _, opt := range opts {
		opt(inv)
	}
	for _, z := range zones {
		inv.zones = append(inv.zones, z.Clone())
	}
	return inv
}

// ValidateZone checks the fields of a zone definition
func ValidateZone(zoneName string, numberOfSeat int, price int64) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(zoneName) == "" {
		verr.Add("zone_name", "zone name is required")
	}
	if numberOfSeat <= 0 {
		verr.Add("number_of_seat", "number of seats must be greater than 0")
	}
	if price <= 0 {
		verr.Add("price", "price must be greater than 0")
	}
	return verr
}

// GenerateSeats returns n seats numbered zoneName-1 through zoneName-n
func GenerateSeats(zoneName string, n int) []domain.Seat {
	seats := make([]domain.Seat, n)
	for i := range seats {
		seats[i] = domain.Seat{SeatNumber: domain.SeatNumber(zoneName, i)}
	}
	return seats
}

// AddZone defines a new zone and generates its seats
func (inv *Inventory) AddZone(zoneName string, numberOfSeat int, price int64) (*domain.SeatZone, error) {
	if inv.frozen {
		return nil, domain.ErrDraftSubmitted
	}

	zoneName = strings.TrimSpace(zoneName)
	verr := ValidateZone(zoneName, numberOfSeat, price)
	if inv.nameTaken(zoneName, "") {
		verr.Add("zone_name", fmt.Sprintf("zone %q already exists", zoneName))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	zone := domain.SeatZone{
		ID:           inv.newID(),
		ZoneName:     zoneName,
		Price:        price,
		NumberOfSeat: numberOfSeat,
		Seats:        GenerateSeats(zoneName, numberOfSeat),
	}
	inv.zones = append(inv.zones, zone)

	out := zone.Clone()
	return &out, nil
}

// EditZone applies a partial update. Seats are regenerated when the
// name or the seat count changes.
func (inv *Inventory) EditZone(zoneID string, upd ZoneUpdate) (*domain.SeatZone, error) {
	if inv.frozen {
		return nil, domain.ErrDraftSubmitted
	}

	idx := inv.indexOf(zoneID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}

	next := inv.zones[idx].Clone()
	if upd.ZoneName != nil {
		next.ZoneName = strings.TrimSpace(*upd.ZoneName)
	}
	if upd.NumberOfSeat != nil {
		next.NumberOfSeat = *upd.NumberOfSeat
	}
	if upd.Price != nil {
		next.Price = *upd.Price
	}

	verr := ValidateZone(next.ZoneName, next.NumberOfSeat, next.Price)
	if inv.nameTaken(next.ZoneName, zoneID) {
		verr.Add("zone_name", fmt.Sprintf("zone %q already exists", next.ZoneName))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	cur := inv.zones[idx]
	if next.ZoneName != cur.ZoneName || next.NumberOfSeat != cur.NumberOfSeat {
		next.Seats = GenerateSeats(next.ZoneName, next.NumberOfSeat)
	}
	inv.zones[idx] = next

	out := next.Clone()
	return &out, nil
}

// RemoveZone deletes a zone
func (inv *Inventory) RemoveZone(zoneID string) error {
	if inv.frozen {
		return domain.ErrDraftSubmitted
	}

	idx := inv.indexOf(zoneID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
	}
	inv.zones = append(inv.zones[:idx], inv.zones[idx+1:]...)
	return nil
}

// Zones returns copies of all zones in creation order
func (inv *Inventory) Zones() []domain.SeatZone {
	out := make([]domain.SeatZone, len(inv.zones))
	for i, z := range inv.zones {
		out[i] = z.Clone()
	}
	return out
}

// Zone returns a copy of the zone with the given ID
func (inv *Inventory) Zone(zoneID string) (domain.SeatZone, bool) {
	if idx := inv.indexOf(zoneID); idx >= 0 {
		return inv.zones[idx].Clone(), true
	}
	return domain.SeatZone{}, false
}

// Len returns the number of zones
func (inv *Inventory) Len() int {
	return len(inv.zones)
}

// Freeze rejects all further changes
func (inv *Inventory) Freeze() {
	inv.frozen = true
}

// Frozen reports whether the inventory has been frozen
func (inv *Inventory) Frozen() bool {
	return inv.frozen
}

func (inv *Inventory) indexOf(zoneID string) int {
	for i := range inv.zones {
		if inv.zones[i].ID == zoneID {
			return i
		}
	}
	return -1
}

func (inv *Inventory) nameTaken(name, exceptID string) bool {
	for _, z := range inv.zones {
		if z.ID != exceptID && strings.EqualFold(z.ZoneName, name) {
			return true
		}
	}
	return false
}
