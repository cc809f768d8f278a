package domain

// ticketSalesTemplate is the fixed set of weight classes used by
// ticket-sales events. Order matters: it is the display and flattening order.
var ticketSalesTemplate = []WeightClass{
	{WeighName: "Flyweight", MinWeight: 48, MaxWeight: 51},
	{WeighName: "Bantamweight", MinWeight: 51, MaxWeight: 54},
	{WeighName: "Lightweight", MinWeight: 58, MaxWeight: 61},
	{WeighName: "Welterweight", MinWeight: 63.5, MaxWeight: 67},
}

// TicketSalesWeightClasses returns a fresh copy of the ticket-sales template
// with empty match lists.
func TicketSalesWeightClasses() []WeightClass {
	out := make([]WeightClass, len(ticketSalesTemplate))
	for i, wc := range ticketSalesTemplate {
		out[i] = wc
		out[i].Matches = []Match{}
	}
	return out
}
