package repository

import (
	"context"
	"testing"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEvent() *domain.Event {
	return &domain.Event{
		OrganizerID: "organizer-1",
		LocationID:  "lumpinee",
		Name:        "Friday Night Fights",
		Level:       "professional",
		StartDate:   "2025-03-01",
		EndDate:     "2025-03-02",
		Posters:     []string{"poster.png"},
		Status:      domain.EventStatusSubmitted,
		Mode:        domain.ModeOpenForTicketSales,
		WeightClasses: []domain.WeightClass{
			{
				WeighName:     "Flyweight",
				MinWeight:     48,
				MaxWeight:     51,
				MaxEnrollment: 8,
				Matches: []domain.Match{
					{ID: "m1", MatchTime: "19:00", MatchDate: "2025-03-01", Boxer1ID: "b1", Boxer2ID: "b2"},
				},
			},
		},
		SeatZones: []domain.SeatZone{
			{ID: "z1", ZoneName: "Ringside", Price: 1500, NumberOfSeat: 2, Seats: []domain.Seat{{SeatNumber: "Ringside-1"}, {SeatNumber: "Ringside-2"}}},
		},
	}
}

func createTestOrder(eventID string) *domain.Order {
	order := &domain.Order{
		EventID:   eventID,
		BuyerID:   "buyer-1",
		OrderType: domain.OrderTypeTicket,
		Status:    domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{RefID: eventID, RefModel: domain.RefModelEvent, SeatZoneID: "z1", ZoneName: "Ringside", Quantity: 2, PriceAtOrder: 3000, Date: "2025-03-01"},
		},
	}
	order.TotalPrice = order.SumItems()
	return order
}

func TestMemoryEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryEventRepository()

	event := createTestEvent()
	id, err := repo.SubmitEvent(ctx, event)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	t.Run("fetch returns a copy", func(t *testing.T) {
		got, err := repo.FetchEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Friday Night Fights", got.Name)

		got.WeightClasses[0].Matches[0].Boxer1ID = "mutated"
		again, err := repo.FetchEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "b1", again.WeightClasses[0].Matches[0].Boxer1ID)
	})

	t.Run("caller mutations do not leak in", func(t *testing.T) {
		event.Name = "changed"
		got, err := repo.FetchEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Friday Night Fights", got.Name)
	})

	t.Run("resubmitting an id keeps the stored event", func(t *testing.T) {
		again := createTestEvent()
		again.ID = id
		again.Name = "Second Attempt"
		gotID, err := repo.SubmitEvent(ctx, again)
		require.NoError(t, err)
		assert.Equal(t, id, gotID)

		got, err := repo.FetchEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Friday Night Fights", got.Name)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := repo.FetchEvent(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("update match result", func(t *testing.T) {
		require.NoError(t, repo.UpdateMatchResult(ctx, id, "m1", "b2"))

		got, err := repo.FetchEvent(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.WeightClasses[0].Matches[0].Result)
		assert.Equal(t, "b2", *got.WeightClasses[0].Matches[0].Result)
	})

	t.Run("update match result errors", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateMatchResult(ctx, "missing", "m1", "b1"), domain.ErrEventNotFound)
		assert.ErrorIs(t, repo.UpdateMatchResult(ctx, id, "m9", "b1"), domain.ErrMatchNotFound)
		assert.ErrorIs(t, repo.UpdateMatchResult(ctx, id, "m1", "b3"), domain.ErrInvalidResult)
	})
}

func TestMemoryOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository()

	order := createTestOrder("event-1")
	id, err := repo.SubmitOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, id, order.ID)
	assert.False(t, order.CreatedAt.IsZero())

	got, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.TotalPrice)
	require.Len(t, got.Items, 1)

	got.Items[0].Quantity = 99
	again, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)

	_, err = repo.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, repo.CancelOrder(ctx, id))
	cancelled, err := repo.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.ErrorIs(t, repo.CancelOrder(ctx, "missing"), domain.ErrOrderNotFound)
}

func TestMemoryDraftStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore()

	_, err := store.LoadDraft(ctx, "organizer-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	d := draft.Draft{State: draft.StateSeatZone, Event: *createTestEvent()}
	require.NoError(t, store.SaveDraft(ctx, "organizer-1", d))

	d.Event.SeatZones[0].ZoneName = "mutated"

	loaded, err := store.LoadDraft(ctx, "organizer-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateSeatZone, loaded.State)
	assert.Equal(t, "Ringside", loaded.Event.SeatZones[0].ZoneName)

	require.NoError(t, store.DeleteDraft(ctx, "organizer-1"))
	_, err = store.LoadDraft(ctx, "organizer-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}
