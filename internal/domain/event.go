package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventMode selects which wizard path and required fields an event uses.
type EventMode string

const (
	ModeOpenForRegistration EventMode = "OpenForRegistration"
	ModeOpenForTicketSales  EventMode = "OpenForTicketSales"
)

// IsValid checks if the mode is one of the known variants
func (m EventMode) IsValid() bool {
	switch m {
	case ModeOpenForRegistration, ModeOpenForTicketSales:
		return true
	}
	return false
}

// AuthorsWeightClasses reports whether the organizer enters weight classes
// explicitly. Ticket-sales events use the fixed template instead.
func (m EventMode) AuthorsWeightClasses() bool {
	return m == ModeOpenForRegistration
}

// RequiresMatches reports whether at least one match must be scheduled
// before the event can be submitted.
func (m EventMode) RequiresMatches() bool {
	return m == ModeOpenForTicketSales
}

// String returns the string representation of EventMode
func (m EventMode) String() string {
	return string(m)
}

// EventStatus represents the lifecycle status of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusSubmitted EventStatus = "submitted"
	EventStatusCompleted EventStatus = "completed"
)

// Event is a boxing event with its seating inventory and match schedule.
type Event struct {
	ID            string        `json:"id"`
	OrganizerID   string        `json:"organizer_id"`
	LocationID    string        `json:"location_id"`
	Name          string        `json:"name"`
	Level         string        `json:"level"`
	StartDate     Date          `json:"start_date"`
	EndDate       Date          `json:"end_date"`
	Description   string        `json:"description"`
	Posters       []string      `json:"posters"`
	Status        EventStatus   `json:"status"`
	Mode          EventMode     `json:"mode"`
	WeightClasses []WeightClass `json:"weight_classes"`
	SeatZones     []SeatZone    `json:"seat_zones"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Posters = append([]string(nil), e.Posters...)
	c.WeightClasses = make([]WeightClass, len(e.WeightClasses))
	for i, wc := range e.WeightClasses {
		c.WeightClasses[i] = wc.Clone()
	}
	c.SeatZones = make([]SeatZone, len(e.SeatZones))
	for i, z := range e.SeatZones {
		c.SeatZones[i] = z.Clone()
	}
	return &c
}

// Zone finds a seat zone by ID
func (e *Event) Zone(id string) (*SeatZone, bool) {
	for i := range e.SeatZones {
		if e.SeatZones[i].ID == id {
			return &e.SeatZones[i], true
		}
	}
	return nil, false
}

// Match finds a match by ID across all weight classes
func (e *Event) Match(id string) (*Match, bool) {
	for i := range e.WeightClasses {
		for j := range e.WeightClasses[i].Matches {
			if e.WeightClasses[i].Matches[j].ID == id {
				return &e.WeightClasses[i].Matches[j], true
			}
		}
	}
	return nil, false
}

// IsSubmitted reports whether the event left the draft stage.
func (e *Event) IsSubmitted() bool {
	return e.Status == EventStatusSubmitted || e.Status == EventStatusCompleted
}

// WeightClass groups matches by competitor weight range.
type WeightClass struct {
	WeighName     string  `json:"weigh_name"`
	MinWeight     float64 `json:"min_weight"`
	MaxWeight     float64 `json:"max_weight"`
	MaxEnrollment int     `json:"max_enrollment"`
	Matches       []Match `json:"matches"`
}

// Clone returns a deep copy of the weight class.
func (w WeightClass) Clone() WeightClass {
	c := w
	c.Matches = make([]Match, len(w.Matches))
	for i, m := range w.Matches {
		c.Matches[i] = m.Clone()
	}
	return c
}

// Validate checks the fields an organizer must author for a weight class.
func (w WeightClass) Validate() *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(w.WeighName) == "" {
		verr.Add("weigh_name", "weight class name is required")
	}
	if w.MinWeight <= 0 {
		verr.Add("min_weight", "minimum weight must be greater than 0")
	}
	if w.MaxWeight < w.MinWeight {
		verr.Add("max_weight", "maximum weight must not be below minimum weight")
	}
	if w.MaxEnrollment <= 0 {
		verr.Add("max_enrollment", "max enrollment must be greater than 0")
	}
	return verr
}

// Match is a scheduled bout between two boxers.
type Match struct {
	ID        string  `json:"id"`
	MatchTime string  `json:"match_time"`
	MatchDate Date    `json:"match_date"`
	Boxer1ID  string  `json:"boxer1_id"`
	Boxer2ID  string  `json:"boxer2_id"`
	Result    *string `json:"result"`
}

// Clone returns a copy of the match that does not share the result pointer.
func (m Match) Clone() Match {
	c := m
	if m.Result != nil {
		r := *m.Result
		c.Result = &r
	}
	return c
}

// HasBoxer reports whether id is one of the two boxers.
func (m Match) HasBoxer(id string) bool {
	return id != "" && (id == m.Boxer1ID || id == m.Boxer2ID)
}

// SeatZone is a named pool of purchasable capacity at a fixed price.
type SeatZone struct {
	ID           string `json:"id"`
	ZoneName     string `json:"zone_name"`
	Price        int64  `json:"price"`
	NumberOfSeat int    `json:"number_of_seat"`
	Seats        []Seat `json:"seats"`
}

// Clone returns a deep copy of the zone.
func (z SeatZone) Clone() SeatZone {
	c := z
	c.Seats = append([]Seat(nil), z.Seats...)
	return c
}

// Seat is a single seat generated for a zone.
type Seat struct {
	SeatNumber string `json:"seat_number"`
}

// SeatNumber formats the seat number of the index-th seat (0-based) in a zone.
func SeatNumber(zoneName string, index int) string {
	return fmt.Sprintf("%s-%d", zoneName, index+1)
}
