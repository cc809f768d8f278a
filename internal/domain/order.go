package domain

import "time"

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order type and item reference model values
const (
	OrderTypeTicket = "ticket"
	RefModelEvent   = "Event"
)

// Selection maps seat zone ID to the number of tickets a buyer wants.
type Selection map[string]int

// Total returns the total number of selected tickets
func (s Selection) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Order is a priced ticket order ready for the order/payment collaborator.
type Order struct {
	ID         string      `json:"id"`
	EventID    string      `json:"event_id"`
	BuyerID    string      `json:"buyer_id,omitempty"`
	OrderType  string      `json:"order_type"`
	Items      []OrderItem `json:"items"`
	TotalPrice int64       `json:"total_price"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderItem snapshots quantity, zone, date and price at selection time.
type OrderItem struct {
	RefID        string `json:"ref_id"`
	RefModel     string `json:"refModel"`
	SeatZoneID   string `json:"seat_zone_id"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder int64  `json:"price_at_order"`
	Date         Date   `json:"date"`
	ZoneName     string `json:"zone_name"`
}

// SumItems returns the sum of price_at_order over all items
func (o *Order) SumItems() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.PriceAtOrder
	}
	return total
}
