package selection

import (
	"math/rand"
	"testing"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zones() []domain.SeatZone {
	return []domain.SeatZone{
		{ID: "VIP", ZoneName: "VIP", NumberOfSeat: 50, Price: 1000},
		{ID: "GA", ZoneName: "GA", NumberOfSeat: 3, Price: 500},
	}
}

func TestEngine_IncrementWithinCapacity(t *testing.T) {
	e := New(zones())
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Increment("VIP"))
	}

	assert.Equal(t, 5, e.Selected("VIP"))
	assert.Equal(t, 45, e.RemainingSeats("VIP"))
	assert.Equal(t, domain.Selection{"VIP": 5}, e.Selections())
}

func TestEngine_IncrementAtCapacity(t *testing.T) {
	e := New(zones())
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Increment("GA"))
	}

	err := e.Increment("GA")

	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 3, e.Selected("GA"))
	assert.Equal(t, 0, e.RemainingSeats("GA"))
}

func TestEngine_Decrement(t *testing.T) {
	e := New(zones())
	require.NoError(t, e.Increment("GA"))
	require.NoError(t, e.Increment("GA"))

	require.NoError(t, e.Decrement("GA"))
	assert.Equal(t, 1, e.Selected("GA"))

	require.NoError(t, e.Decrement("GA"))
	assert.Equal(t, 0, e.Selected("GA"))
	assert.NotContains(t, e.Selections(), "GA", "zero removes the zone from the active set")

	require.NoError(t, e.Decrement("GA"))
	assert.Equal(t, 0, e.Selected("GA"), "floors at zero")
}

func TestEngine_UnknownZone(t *testing.T) {
	e := New(zones())
	assert.ErrorIs(t, e.Increment("Balcony"), domain.ErrZoneNotFound)
	assert.ErrorIs(t, e.Decrement("Balcony"), domain.ErrZoneNotFound)
	assert.ErrorIs(t, e.Set("Balcony", 1), domain.ErrZoneNotFound)
}

func TestEngine_Set(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr error
		want    int
	}{
		{name: "within capacity", n: 2, want: 2},
		{name: "exactly capacity", n: 3, want: 3},
		{name: "zero clears", n: 0, want: 0},
		{name: "over capacity", n: 4, wantErr: domain.ErrCapacityExceeded, want: 1},
		{name: "negative", n: -1, wantErr: domain.ErrValidation, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(zones())
			require.NoError(t, e.Increment("GA"))

			err := e.Set("GA", tt.n)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, e.Selected("GA"))
		})
	}
}

func TestEngine_Apply(t *testing.T) {
	e := New(zones())
	require.NoError(t, e.Increment("VIP"))

	err := e.Apply(domain.Selection{"VIP": 2, "GA": 4})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, domain.Selection{"VIP": 1}, e.Selections(), "failed apply leaves state unchanged")

	err = e.Apply(domain.Selection{"VIP": 2, "Nope": 1})
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)

	require.NoError(t, e.Apply(domain.Selection{"VIP": 2, "GA": 0}))
	assert.Equal(t, domain.Selection{"VIP": 2}, e.Selections())
}

func TestEngine_Reset(t *testing.T) {
	e := New(zones())
	require.NoError(t, e.Increment("VIP"))
	e.Reset()
	assert.Empty(t, e.Selections())
	assert.Equal(t, 50, e.RemainingSeats("VIP"))
}

func TestEngine_BoundsHoldUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	zs := zones()
	e := New(zs)

	for i := 0; i < 2000; i++ {
		z := zs[rng.Intn(len(zs))]
		switch rng.Intn(3) {
		case 0, 1:
			_ = e.Increment(z.ID)
		default:
			_ = e.Decrement(z.ID)
		}

		for _, zone := range zs {
			sel := e.Selected(zone.ID)
			require.GreaterOrEqual(t, sel, 0)
			require.LessOrEqual(t, sel, zone.NumberOfSeat)
			require.Equal(t, zone.NumberOfSeat, e.RemainingSeats(zone.ID)+sel)
		}
	}
}
