package dto

import (
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
)

// EventResponse is the public view of a submitted event. Individual seats
// are left out; zones report their size instead.
type EventResponse struct {
	ID            string               `json:"id"`
	OrganizerID   string               `json:"organizer_id"`
	LocationID    string               `json:"location_id"`
	Name          string               `json:"name"`
	Level         string               `json:"level"`
	StartDate     domain.Date          `json:"start_date"`
	EndDate       domain.Date          `json:"end_date"`
	Description   string               `json:"description"`
	Posters       []string             `json:"posters"`
	Status        string               `json:"status"`
	Mode          string               `json:"mode"`
	WeightClasses []domain.WeightClass `json:"weight_classes"`
	SeatZones     []SeatZoneResponse   `json:"seat_zones"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SeatZoneResponse summarizes a zone
type SeatZoneResponse struct {
	ID           string `json:"id"`
	ZoneName     string `json:"zone_name"`
	Price        int64  `json:"price"`
	NumberOfSeat int    `json:"number_of_seat"`
}

// NewEventResponse builds an EventResponse from a domain event
func NewEventResponse(e *domain.Event) EventResponse {
	zones := make([]SeatZoneResponse, 0, len(e.SeatZones))
	for _, z := range e.SeatZones {
		zones = append(zones, SeatZoneResponse{
			ID:           z.ID,
			ZoneName:     z.ZoneName,
			Price:        z.Price,
			NumberOfSeat: z.NumberOfSeat,
		})
	}
	return EventResponse{
		ID:            e.ID,
		OrganizerID:   e.OrganizerID,
		LocationID:    e.LocationID,
		Name:          e.Name,
		Level:         e.Level,
		StartDate:     e.StartDate,
		EndDate:       e.EndDate,
		Description:   e.Description,
		Posters:       e.Posters,
		Status:        string(e.Status),
		Mode:          string(e.Mode),
		WeightClasses: e.WeightClasses,
		SeatZones:     zones,
		CreatedAt:     e.CreatedAt,
	}
}

// DatesResponse lists the dates tickets can be bought for
type DatesResponse struct {
	EventID string        `json:"event_id"`
	Dates   []domain.Date `json:"dates"`
}

// MatchesResponse lists the matches on one date
type MatchesResponse struct {
	EventID string         `json:"event_id"`
	Date    domain.Date    `json:"date"`
	Matches []domain.Match `json:"matches"`
}

// ZoneAvailability is the number of seats left in a zone
type ZoneAvailability struct {
	ZoneID    string `json:"zone_id"`
	ZoneName  string `json:"zone_name"`
	Price     int64  `json:"price"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
}

// AvailabilityResponse lists seats left per zone
type AvailabilityResponse struct {
	EventID string             `json:"event_id"`
	Zones   []ZoneAvailability `json:"zones"`
}

// NewAvailabilityResponse joins the remaining counts with the zone details,
// keeping the event's zone order.
func NewAvailabilityResponse(e *domain.Event, left map[string]int) AvailabilityResponse {
	zones := make([]ZoneAvailability, 0, len(e.SeatZones))
	for _, z := range e.SeatZones {
		zones = append(zones, ZoneAvailability{
			ZoneID:    z.ID,
			ZoneName:  z.ZoneName,
			Price:     z.Price,
			Capacity:  z.NumberOfSeat,
			Available: left[z.ID],
		})
	}
	return AvailabilityResponse{EventID: e.ID, Zones: zones}
}

// CheckoutRequest is a buyer's ticket selection for one date
type CheckoutRequest struct {
	Date       domain.Date    `json:"date"`
	Selections map[string]int `json:"selections"`
}

// CheckoutResponse is the created order
type CheckoutResponse struct {
	Order  *domain.Order `json:"order"`
	HoldID string        `json:"hold_id,omitempty"`
}
