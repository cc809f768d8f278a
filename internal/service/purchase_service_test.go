package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderPublisher is a mock implementation of publisher.OrderPublisher
type MockOrderPublisher struct {
	mock.Mock
}

func (m *MockOrderPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderPublisher) Close() error {
	return nil
}

type failingOrderRepository struct {
	err   error
	calls int
}

func (f *failingOrderRepository) SubmitOrder(ctx context.Context, order *domain.Order) (string, error) {
	f.calls++
	return "", f.err
}

func (f *failingOrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (f *failingOrderRepository) CancelOrder(ctx context.Context, id string) error {
	return domain.ErrOrderNotFound
}

// unconfirmableReserver holds seats but never confirms them
type unconfirmableReserver struct {
	*reservation.MemoryReserver
	confirmErr error
}

func (u *unconfirmableReserver) Confirm(ctx context.Context, holdID string) error {
	return u.confirmErr
}

// lostConfirmReserver confirms holds but reports a failure to the caller
type lostConfirmReserver struct {
	*reservation.MemoryReserver
}

func (l *lostConfirmReserver) Confirm(ctx context.Context, holdID string) error {
	if err := l.MemoryReserver.Confirm(ctx, holdID); err != nil {
		return err
	}
	return errors.New("i/o timeout")
}

func submittedEvent(t *testing.T, events *repository.MemoryEventRepository) string {
	t.Helper()
	id, err := events.SubmitEvent(context.Background(), &domain.Event{
		OrganizerID: "org-1",
		Name:        "Lumpinee Saturday",
		Level:       "professional",
		StartDate:   "2025-05-01",
		EndDate:     "2025-05-03",
		Status:      domain.EventStatusSubmitted,
		Mode:        domain.ModeOpenForTicketSales,
		WeightClasses: []domain.WeightClass{
			{WeighName: "Flyweight", MinWeight: 48, MaxWeight: 51, Matches: []domain.Match{
				{ID: "m2", MatchTime: "21:00", MatchDate: "2025-05-03", Boxer1ID: "b3", Boxer2ID: "b4"},
				{ID: "m1", MatchTime: "19:00", MatchDate: "2025-05-01", Boxer1ID: "b1", Boxer2ID: "b2"},
			}},
			{WeighName: "Bantamweight", MinWeight: 51, MaxWeight: 54, Matches: []domain.Match{
				{ID: "m3", MatchTime: "18:00", MatchDate: "2025-05-01", Boxer1ID: "b5", Boxer2ID: "b6"},
			}},
		},
		SeatZones: []domain.SeatZone{
			{ID: "z-vip", ZoneName: "VIP", Price: 1000, NumberOfSeat: 2},
			{ID: "z-stand", ZoneName: "Stand", Price: 300, NumberOfSeat: 5},
		},
	})
	require.NoError(t, err)
	return id
}

type purchaseFixture struct {
	svc       PurchaseService
	events    *repository.MemoryEventRepository
	orders    *repository.MemoryOrderRepository
	reserver  *reservation.MemoryReserver
	publisher *MockOrderPublisher
	eventID   string
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	f := &purchaseFixture{
		events:    repository.NewMemoryEventRepository(),
		orders:    repository.NewMemoryOrderRepository(),
		reserver:  reservation.NewMemoryReserver(),
		publisher: &MockOrderPublisher{},
	}
	f.eventID = submittedEvent(t, f.events)
	f.svc = NewPurchaseService(f.events, f.orders, f.reserver, f.publisher, &PurchaseServiceConfig{Retry: fastRetry()})
	return f
}

func TestPurchaseService_Checkout(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	result, err := f.svc.Checkout(ctx, &CheckoutRequest{
		EventID:    f.eventID,
		BuyerID:    "buyer-1",
		Date:       "2025-05-01",
		Selections: domain.Selection{"z-vip": 2, "z-stand": 1},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.HoldID)

	order := result.Order
	assert.Equal(t, int64(2300), order.TotalPrice)
	assert.Equal(t, "buyer-1", order.BuyerID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "VIP", order.Items[0].ZoneName)
	assert.Equal(t, int64(2000), order.Items[0].PriceAtOrder)
	assert.Equal(t, "Stand", order.Items[1].ZoneName)
	assert.Equal(t, domain.Date("2025-05-01"), order.Items[1].Date)

	stored, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalPrice, stored.TotalPrice)

	avail, err := f.svc.Availability(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"z-vip": 0, "z-stand": 4}, avail)

	// The hold is confirmed, so the release worker cannot return the seats
	assert.ErrorIs(t, f.reserver.Release(ctx, result.HoldID), domain.ErrInvalidTransition)

	f.publisher.AssertNumberOfCalls(t, "PublishOrderCreated", 1)
}

func TestPurchaseService_CheckoutRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *CheckoutRequest
		wantErr error
	}{
		{name: "nil request", req: nil, wantErr: domain.ErrSelectionRequired},
		{name: "missing buyer", req: &CheckoutRequest{Date: "2025-05-01", Selections: domain.Selection{"z-vip": 1}}, wantErr: domain.ErrValidation},
		{name: "missing date", req: &CheckoutRequest{BuyerID: "b", Selections: domain.Selection{"z-vip": 1}}, wantErr: domain.ErrSelectionRequired},
		{name: "empty selection", req: &CheckoutRequest{BuyerID: "b", Date: "2025-05-01", Selections: domain.Selection{}}, wantErr: domain.ErrSelectionRequired},
		{name: "date without matches", req: &CheckoutRequest{BuyerID: "b", Date: "2025-05-02", Selections: domain.Selection{"z-vip": 1}}, wantErr: domain.ErrValidation},
		{name: "date outside event", req: &CheckoutRequest{BuyerID: "b", Date: "2025-06-01", Selections: domain.Selection{"z-vip": 1}}, wantErr: domain.ErrValidation},
		{name: "malformed date", req: &CheckoutRequest{BuyerID: "b", Date: "01/05/2025", Selections: domain.Selection{"z-vip": 1}}, wantErr: domain.ErrValidation},
		{name: "over zone capacity", req: &CheckoutRequest{BuyerID: "b", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 3}}, wantErr: domain.ErrCapacityExceeded},
		{name: "unknown zone", req: &CheckoutRequest{BuyerID: "b", Date: "2025-05-01", Selections: domain.Selection{"z-floor": 1}}, wantErr: domain.ErrZoneNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPurchaseFixture(t)
			if tt.req != nil {
				tt.req.EventID = f.eventID
			}

			_, err := f.svc.Checkout(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			f.publisher.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
		})
	}
}

func TestPurchaseService_CheckoutUnknownEvent(t *testing.T) {
	f := newPurchaseFixture(t)

	_, err := f.svc.Checkout(context.Background(), &CheckoutRequest{
		EventID: "missing", BuyerID: "b", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 1},
	})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestPurchaseService_CheckoutDraftEventHidden(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)
	id, err := f.events.SubmitEvent(ctx, &domain.Event{Status: domain.EventStatusDraft, StartDate: "2025-05-01", EndDate: "2025-05-01"})
	require.NoError(t, err)

	_, err = f.svc.GetEvent(ctx, id)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestPurchaseService_CheckoutSoldOut(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Checkout(ctx, &CheckoutRequest{
		EventID: f.eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 2},
	})
	require.NoError(t, err)

	// Capacity is shared across dates
	_, err = f.svc.Checkout(ctx, &CheckoutRequest{
		EventID: f.eventID, BuyerID: "buyer-2", Date: "2025-05-03", Selections: domain.Selection{"z-vip": 1, "z-stand": 1},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

	left, err := f.reserver.Availability(ctx, "z-stand")
	require.NoError(t, err)
	assert.Equal(t, 5, left)
}

func TestPurchaseService_CheckoutReleasesHoldOnSubmitFailure(t *testing.T) {
	ctx := context.Background()
	events := repository.NewMemoryEventRepository()
	eventID := submittedEvent(t, events)
	orders := &failingOrderRepository{err: errors.New("connection refused")}
	reserver := reservation.NewMemoryReserver()
	pub := &MockOrderPublisher{}

	svc := NewPurchaseService(events, orders, reserver, pub, &PurchaseServiceConfig{Retry: fastRetry()})

	_, err := svc.Checkout(ctx, &CheckoutRequest{
		EventID: eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 2},
	})
	require.Error(t, err)
	assert.Equal(t, 3, orders.calls)

	left, err := reserver.Availability(ctx, "z-vip")
	require.NoError(t, err)
	assert.Equal(t, 2, left)
	pub.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)
}

func TestPurchaseService_CheckoutConfirmFailureCancelsOrder(t *testing.T) {
	ctx := context.Background()
	events := repository.NewMemoryEventRepository()
	eventID := submittedEvent(t, events)
	orders := repository.NewMemoryOrderRepository()
	reserver := &unconfirmableReserver{
		MemoryReserver: reservation.NewMemoryReserver(),
		confirmErr:     errors.New("redis: connection pool timeout"),
	}
	pub := &MockOrderPublisher{}
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	var ids []string
	svc := NewPurchaseService(events, orders, reserver, pub, &PurchaseServiceConfig{Retry: fastRetry()})
	svc.(*purchaseService).newID = func() string {
		id := fmt.Sprintf("order-%d", len(ids)+1)
		ids = append(ids, id)
		return id
	}

	req := &CheckoutRequest{EventID: eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 2}}
	_, err := svc.Checkout(ctx, req)
	require.Error(t, err)
	pub.AssertNotCalled(t, "PublishOrderCreated", mock.Anything, mock.Anything)

	// The stored order is cancelled and its seats are back
	require.Len(t, ids, 1)
	stored, err := orders.GetOrder(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)

	left, err := reserver.Availability(ctx, "z-vip")
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	// Nothing is left for the release worker to hand back twice
	released, err := reserver.ReleaseExpired(ctx, time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
	left, err = reserver.Availability(ctx, "z-vip")
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestPurchaseService_CheckoutLostConfirmReplyKeepsOrder(t *testing.T) {
	ctx := context.Background()
	events := repository.NewMemoryEventRepository()
	eventID := submittedEvent(t, events)
	orders := repository.NewMemoryOrderRepository()
	reserver := &lostConfirmReserver{MemoryReserver: reservation.NewMemoryReserver()}
	pub := &MockOrderPublisher{}
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	svc := NewPurchaseService(events, orders, reserver, pub, &PurchaseServiceConfig{Retry: fastRetry()})

	result, err := svc.Checkout(ctx, &CheckoutRequest{
		EventID: eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 2},
	})
	require.NoError(t, err)

	stored, err := orders.GetOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)

	released, err := reserver.ReleaseExpired(ctx, time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	_, err = svc.Checkout(ctx, &CheckoutRequest{
		EventID: eventID, BuyerID: "buyer-2", Date: "2025-05-01", Selections: domain.Selection{"z-vip": 1},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
}

func TestPurchaseService_CheckoutPublishFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	result, err := f.svc.Checkout(ctx, &CheckoutRequest{
		EventID: f.eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-stand": 2},
	})
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, result.Order.ID)
	assert.NoError(t, err)
}

func TestPurchaseService_CheckoutWithoutReserver(t *testing.T) {
	ctx := context.Background()
	events := repository.NewMemoryEventRepository()
	eventID := submittedEvent(t, events)
	svc := NewPurchaseService(events, repository.NewMemoryOrderRepository(), nil, nil, nil)

	result, err := svc.Checkout(ctx, &CheckoutRequest{
		EventID: eventID, BuyerID: "buyer-1", Date: "2025-05-03", Selections: domain.Selection{"z-stand": 5},
	})
	require.NoError(t, err)
	assert.Empty(t, result.HoldID)
	assert.Equal(t, int64(1500), result.Order.TotalPrice)

	avail, err := svc.Availability(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 5, avail["z-stand"])
}

func TestPurchaseService_DatesAndMatches(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)

	dates, err := f.svc.PurchasableDates(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Date{"2025-05-01", "2025-05-03"}, dates)

	matches, err := f.svc.MatchesOnDate(ctx, f.eventID, "2025-05-01")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "m1", matches[0].ID)
	assert.Equal(t, "m3", matches[1].ID)

	matches, err = f.svc.MatchesOnDate(ctx, f.eventID, "2025-05-02")
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = f.svc.MatchesOnDate(ctx, f.eventID, "tomorrow")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPurchaseService_GetOrder(t *testing.T) {
	ctx := context.Background()
	f := newPurchaseFixture(t)
	f.publisher.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Checkout(ctx, &CheckoutRequest{
		EventID: f.eventID, BuyerID: "buyer-1", Date: "2025-05-01", Selections: domain.Selection{"z-stand": 1},
	})
	require.NoError(t, err)

	order, err := f.svc.GetOrder(ctx, result.Order.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, order.ID)

	_, err = f.svc.GetOrder(ctx, result.Order.ID, "buyer-2")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
