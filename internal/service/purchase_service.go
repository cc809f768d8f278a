package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/pricing"
	"github.com/prohmpiriya/ringside/internal/publisher"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/reservation"
	"github.com/prohmpiriya/ringside/internal/schedule"
	"github.com/prohmpiriya/ringside/internal/selection"
	"github.com/prohmpiriya/ringside/pkg/logger"
	"github.com/prohmpiriya/ringside/pkg/retry"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CheckoutRequest is a buyer's ticket selection for one date
type CheckoutRequest struct {
	EventID    string
	BuyerID    string
	Date       domain.Date
	Selections domain.Selection
}

// CheckoutResult is the stored order and the hold backing it, if any
type CheckoutResult struct {
	Order  *domain.Order
	HoldID string
}

// PurchaseService serves the buyer-facing purchase flow
type PurchaseService interface {
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
	// PurchasableDates returns the distinct match dates of the event
	PurchasableDates(ctx context.Context, eventID string) ([]domain.Date, error)
	MatchesOnDate(ctx context.Context, eventID string, date domain.Date) ([]domain.Match, error)
	// Availability returns the seats left per zone
	Availability(ctx context.Context, eventID string) (map[string]int, error)
	Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error)
	// GetOrder returns an order owned by buyerID
	GetOrder(ctx context.Context, orderID, buyerID string) (*domain.Order, error)
}

// PurchaseServiceConfig contains configuration for the purchase service
type PurchaseServiceConfig struct {
	HoldTTL time.Duration
	Retry   *retry.Config
}

type purchaseService struct {
	events    repository.EventRepository
	orders    repository.OrderRepository
	reserver  reservation.Reserver
	publisher publisher.OrderPublisher
	holdTTL   time.Duration
	retrier   *retry.Retrier
	newID     func() string
	log       *logger.Logger
}

// NewPurchaseService creates a new purchase service. A nil reserver skips
// seat holds; a nil publisher drops order events.
func NewPurchaseService(
	events repository.EventRepository,
	orders repository.OrderRepository,
	reserver reservation.Reserver,
	pub publisher.OrderPublisher,
	cfg *PurchaseServiceConfig,
) PurchaseService {
	if cfg == nil {
		cfg = &PurchaseServiceConfig{}
	}
	ttl := cfg.HoldTTL
	if ttl <= 0 {
		ttl = reservation.DefaultHoldTTL
	}
	if pub == nil {
		pub = publisher.NoopPublisher{}
	}
	return &purchaseService{
		events:    events,
		orders:    orders,
		reserver:  reserver,
		publisher: pub,
		holdTTL:   ttl,
		retrier:   newRetrier(cfg.Retry),
		newID:     uuid.NewString,
		log:       logger.Get(),
	}
}

func (s *purchaseService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.purchase.get_event")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.events.FetchEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsSubmitted() {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}
	return event, nil
}

func (s *purchaseService) PurchasableDates(ctx context.Context, eventID string) ([]domain.Date, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return schedule.MatchDates(event.WeightClasses), nil
}

func (s *purchaseService) MatchesOnDate(ctx context.Context, eventID string, date domain.Date) ([]domain.Match, error) {
	if !date.Valid() {
		return nil, domain.NewValidationError("date", "date must be YYYY-MM-DD")
	}
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return schedule.MatchesOnDate(event.WeightClasses, date), nil
}

func (s *purchaseService) Availability(ctx context.Context, eventID string) (map[string]int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.purchase.availability")
	defer span.End()

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(event.SeatZones))
	for _, z := range event.SeatZones {
		if s.reserver == nil {
			out[z.ID] = z.NumberOfSeat
			continue
		}
		if err := s.reserver.SeedZone(ctx, z.ID, z.NumberOfSeat); err != nil {
			telemetry.SetSpanError(ctx, err)
			return nil, err
		}
		left, err := s.reserver.Availability(ctx, z.ID)
		if err != nil {
			telemetry.SetSpanError(ctx, err)
			return nil, err
		}
		out[z.ID] = left
	}
	return out, nil
}

// Checkout prices the selection, holds the seats, stores the order and
// hands it to the order/payment collaborator.
func (s *purchaseService) Checkout(ctx context.Context, req *CheckoutRequest) (_ *CheckoutResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.purchase.checkout")
	defer span.End()

	if req == nil {
		return nil, domain.ErrSelectionRequired
	}
	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("buyer_id", req.BuyerID),
		attribute.String("date", req.Date.String()),
		attribute.Int("tickets", req.Selections.Total()),
	)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if req.BuyerID == "" {
		return nil, domain.NewValidationError("buyer_id", "buyer is required")
	}
	event, err := s.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if err := checkPurchasableDate(event, req.Date); err != nil {
		return nil, err
	}

	engine := selection.New(event.SeatZones)
	if err := engine.Apply(req.Selections); err != nil {
		return nil, err
	}
	order, err := pricing.BuildOrder(event.ID, req.Date, engine.Selections(), event.SeatZones)
	if err != nil {
		return nil, err
	}
	if err := pricing.VerifyAgainst(order, event.SeatZones); err != nil {
		return nil, err
	}
	order.ID = s.newID()
	order.BuyerID = req.BuyerID

	var hold *reservation.Hold
	if s.reserver != nil {
		hold, err = s.reserve(ctx, event, req, engine.Selections())
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil && hold != nil {
				s.releaseHold(ctx, hold.ID)
			}
		}()
	}

	result := s.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		_, err := s.orders.SubmitOrder(ctx, order)
		return err
	}, func(attempt int, err error, _ time.Duration) {
		s.log.Warn("retrying order submission", "order_id", order.ID, "attempt", attempt, "error", err)
	})
	if result.Err != nil {
		telemetry.SetSpanError(ctx, result.Err)
		return nil, fmt.Errorf("failed to submit order: %w", result.Err)
	}

	out := &CheckoutResult{Order: order}
	if hold != nil {
		out.HoldID = hold.ID
		if err = s.confirmHold(ctx, order, hold.ID); err != nil {
			hold = nil
			telemetry.SetSpanError(ctx, err)
			return nil, err
		}
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.log.Error("failed to publish order created", "order_id", order.ID, "error", err)
	}

	s.log.Info("order submitted",
		"order_id", order.ID,
		"event_id", order.EventID,
		"buyer_id", order.BuyerID,
		"date", order.Items[0].Date.String(),
		"total_price", order.TotalPrice,
	)
	return out, nil
}

func (s *purchaseService) GetOrder(ctx context.Context, orderID, buyerID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return order, nil
}

func (s *purchaseService) reserve(ctx context.Context, event *domain.Event, req *CheckoutRequest, items domain.Selection) (*reservation.Hold, error) {
	for zoneID := range items {
		zone, _ := event.Zone(zoneID)
		if err := s.reserver.SeedZone(ctx, zoneID, zone.NumberOfSeat); err != nil {
			return nil, fmt.Errorf("failed to seed zone %s: %w", zoneID, err)
		}
	}
	return s.reserver.Reserve(ctx, reservation.ReserveParams{
		EventID: event.ID,
		BuyerID: req.BuyerID,
		Date:    req.Date,
		Items:   items,
		TTL:     s.holdTTL,
	})
}

func (s *purchaseService) releaseHold(ctx context.Context, holdID string) {
	if err := s.reserver.Release(context.WithoutCancel(ctx), holdID); err != nil {
		s.log.Warn("failed to release hold", "hold_id", holdID, "error", err)
	}
}

// confirmHold makes the hold permanent. When that fails the stored order
// cannot keep seats that the release worker may hand back, so the hold is
// released and the order cancelled.
func (s *purchaseService) confirmHold(ctx context.Context, order *domain.Order, holdID string) error {
	result := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.reserver.Confirm(ctx, holdID)
	})
	if result.Err == nil {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	err := s.reserver.Release(ctx, holdID)
	if errors.Is(err, domain.ErrInvalidTransition) {
		// an earlier attempt confirmed it and only the reply was lost
		return nil
	}
	if err != nil {
		s.log.Warn("failed to release unconfirmed hold", "hold_id", holdID, "error", err)
	}

	s.log.ErrorContext(ctx, "failed to confirm hold, cancelling order", "order_id", order.ID, "hold_id", holdID, "error", result.Err)
	cancel := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.orders.CancelOrder(ctx, order.ID)
	})
	if cancel.Err != nil {
		s.log.ErrorContext(ctx, "failed to cancel order", "order_id", order.ID, "error", cancel.Err)
	} else {
		order.Status = domain.OrderStatusCancelled
	}
	return fmt.Errorf("failed to confirm seat hold: %w", result.Err)
}

// checkPurchasableDate requires a date inside the event window and, when
// matches are scheduled, on one of the match dates.
func checkPurchasableDate(event *domain.Event, date domain.Date) error {
	if date.IsZero() {
		return domain.ErrSelectionRequired
	}
	if !date.Valid() {
		return domain.NewValidationError("date", "date must be YYYY-MM-DD")
	}
	if !date.Within(event.StartDate, event.EndDate) {
		return domain.NewValidationError("date", fmt.Sprintf("date must be between %s and %s", event.StartDate, event.EndDate))
	}
	dates := schedule.MatchDates(event.WeightClasses)
	if len(dates) == 0 {
		return nil
	}
	for _, d := range dates {
		if d == date {
			return nil
		}
	}
	return domain.NewValidationError("date", "no matches are scheduled on "+date.String())
}
