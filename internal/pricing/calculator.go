// Package pricing turns a ticket selection and a chosen date into a priced order.
package pricing

import (
	"fmt"

	"github.com/prohmpiriya/ringside/internal/domain"
)

// BuildOrder prices selections against zones. Items follow the zone order
// of the event; each item snapshots the zone price at this moment.
func BuildOrder(eventID string, date domain.Date, selections domain.Selection, zones []domain.SeatZone) (*domain.Order, error) {
	if date.IsZero() {
		return nil, domain.ErrSelectionRequired
	}

	known := make(map[string]bool, len(zones))
	for _, z := range zones {
		known[z.ID] = true
	}
	for id, qty := range selections {
		if qty < 0 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("quantity for zone %s cannot be negative", id))
		}
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
		}
	}
	if selections.Total() <= 0 {
		return nil, domain.ErrSelectionRequired
	}

	order := &domain.Order{
		EventID:   eventID,
		OrderType: domain.OrderTypeTicket,
		Status:    domain.OrderStatusPending,
		Items:     []domain.OrderItem{},
	}
	for _, z := range zones {
		qty := selections[z.ID]
		if qty == 0 {
			continue
		}
		order.Items = append(order.Items, domain.OrderItem{
			RefID:        eventID,
			RefModel:     domain.RefModelEvent,
			SeatZoneID:   z.ID,
			Quantity:     qty,
			PriceAtOrder: int64(qty) * z.Price,
			Date:         date,
			ZoneName:     z.ZoneName,
		})
	}
	order.TotalPrice = order.SumItems()

	return order, nil
}

// Verify recomputes the order total from its items
func Verify(order *domain.Order) error {
	if got := order.SumItems(); got != order.TotalPrice {
		return domain.NewValidationError("total_price", fmt.Sprintf("total_price %d does not match item sum %d", order.TotalPrice, got))
	}
	return nil
}

// VerifyAgainst checks every item against the zone prices it was built
// from, in addition to the total.
func VerifyAgainst(order *domain.Order, zones []domain.SeatZone) error {
	byID := make(map[string]domain.SeatZone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}
	for _, item := range order.Items {
		z, ok := byID[item.SeatZoneID]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, item.SeatZoneID)
		}
		if want := int64(item.Quantity) * z.Price; item.PriceAtOrder != want {
			return domain.NewValidationError("price_at_order", fmt.Sprintf("item %s priced %d, expected %d", z.ZoneName, item.PriceAtOrder, want))
		}
	}
	return Verify(order)
}
