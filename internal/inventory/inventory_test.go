package inventory

import (
	"fmt"
	"testing"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("zone-%d", n)
	})
}

func assertSeatPool(t *testing.T, zone domain.SeatZone) {
	t.Helper()
	require.Len(t, zone.Seats, zone.NumberOfSeat)
	seen := make(map[string]bool, len(zone.Seats))
	for i, seat := range zone.Seats {
		assert.Equal(t, fmt.Sprintf("%s-%d", zone.ZoneName, i+1), seat.SeatNumber)
		assert.False(t, seen[seat.SeatNumber], "duplicate seat %s", seat.SeatNumber)
		seen[seat.SeatNumber] = true
	}
}

func TestInventory_AddZone(t *testing.T) {
	tests := []struct {
		name       string
		zoneName   string
		seats      int
		price      int64
		wantFields []string
	}{
		{name: "valid", zoneName: "VIP", seats: 50, price: 1000},
		{name: "single seat", zoneName: "Ringside", seats: 1, price: 1},
		{name: "empty name", zoneName: "  ", seats: 10, price: 100, wantFields: []string{"zone_name"}},
		{name: "zero seats", zoneName: "GA", seats: 0, price: 100, wantFields: []string{"number_of_seat"}},
		{name: "negative seats", zoneName: "GA", seats: -3, price: 100, wantFields: []string{"number_of_seat"}},
		{name: "zero price", zoneName: "GA", seats: 3, price: 0, wantFields: []string{"price"}},
		{name: "everything wrong", zoneName: "", seats: 0, price: -1, wantFields: []string{"zone_name", "number_of_seat", "price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := New(nil, sequentialIDs())
			zone, err := inv.AddZone(tt.zoneName, tt.seats, tt.price)

			if len(tt.wantFields) > 0 {
				require.ErrorIs(t, err, domain.ErrValidation)
				verr, ok := domain.AsValidationError(err)
				require.True(t, ok)
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				assert.Equal(t, 0, inv.Len())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "zone-1", zone.ID)
			assert.Equal(t, tt.price, zone.Price)
			assertSeatPool(t, *zone)
		})
	}
}

func TestInventory_AddZone_DuplicateName(t *testing.T) {
	inv := New(nil, sequentialIDs())
	_, err := inv.AddZone("VIP", 10, 100)
	require.NoError(t, err)

	_, err = inv.AddZone("vip", 5, 100)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "zone_name")
	assert.Equal(t, 1, inv.Len())
}

func TestInventory_EditZone(t *testing.T) {
	inv := New(nil, sequentialIDs())
	zone, err := inv.AddZone("GA", 3, 500)
	require.NoError(t, err)

	t.Run("price only keeps seats", func(t *testing.T) {
		price := int64(750)
		edited, err := inv.EditZone(zone.ID, ZoneUpdate{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, int64(750), edited.Price)
		assert.Equal(t, zone.Seats, edited.Seats)
	})

	t.Run("seat count regenerates seats", func(t *testing.T) {
		n := 5
		edited, err := inv.EditZone(zone.ID, ZoneUpdate{NumberOfSeat: &n})
		require.NoError(t, err)
		assertSeatPool(t, *edited)
	})

	t.Run("rename regenerates seat numbers", func(t *testing.T) {
		name := "Balcony"
		edited, err := inv.EditZone(zone.ID, ZoneUpdate{ZoneName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Balcony-1", edited.Seats[0].SeatNumber)
		assertSeatPool(t, *edited)
	})

	t.Run("invalid edit leaves zone unchanged", func(t *testing.T) {
		before, _ := inv.Zone(zone.ID)
		n := 0
		_, err := inv.EditZone(zone.ID, ZoneUpdate{NumberOfSeat: &n})
		assert.ErrorIs(t, err, domain.ErrValidation)
		after, _ := inv.Zone(zone.ID)
		assert.Equal(t, before, after)
	})

	t.Run("unknown zone", func(t *testing.T) {
		_, err := inv.EditZone("missing", ZoneUpdate{})
		assert.ErrorIs(t, err, domain.ErrZoneNotFound)
	})
}

func TestInventory_RemoveZone(t *testing.T) {
	inv := New(nil, sequentialIDs())
	a, _ := inv.AddZone("A", 1, 1)
	b, _ := inv.AddZone("B", 1, 1)

	require.NoError(t, inv.RemoveZone(a.ID))
	zones := inv.Zones()
	require.Len(t, zones, 1)
	assert.Equal(t, b.ID, zones[0].ID)

	assert.ErrorIs(t, inv.RemoveZone(a.ID), domain.ErrZoneNotFound)
}

func TestInventory_Frozen(t *testing.T) {
	inv := New(nil, sequentialIDs())
	zone, _ := inv.AddZone("VIP", 10, 100)
	inv.Freeze()

	_, err := inv.AddZone("GA", 10, 100)
	assert.ErrorIs(t, err, domain.ErrDraftSubmitted)

	price := int64(1)
	_, err = inv.EditZone(zone.ID, ZoneUpdate{Price: &price})
	assert.ErrorIs(t, err, domain.ErrDraftSubmitted)

	assert.ErrorIs(t, inv.RemoveZone(zone.ID), domain.ErrDraftSubmitted)
	assert.Equal(t, 1, inv.Len())
}

func TestInventory_ZonesAreCopies(t *testing.T) {
	inv := New(nil, sequentialIDs())
	_, _ = inv.AddZone("VIP", 2, 100)

	zones := inv.Zones()
	zones[0].NumberOfSeat = 99
	zones[0].Seats[0].SeatNumber = "tampered"

	again := inv.Zones()
	assert.Equal(t, 2, again[0].NumberOfSeat)
	assert.Equal(t, "VIP-1", again[0].Seats[0].SeatNumber)
}

func TestGenerateSeats(t *testing.T) {
	seats := GenerateSeats("VIP", 3)
	assert.Equal(t, []domain.Seat{{SeatNumber: "VIP-1"}, {SeatNumber: "VIP-2"}, {SeatNumber: "VIP-3"}}, seats)
	assert.Empty(t, GenerateSeats("VIP", 0))
}
