package draft

import (
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/schedule"
)

// StepInput is the form data submitted for one wizard step
type StepInput interface {
	Step() State
}

// BasicInfoInput is the first step: event details and mode
type BasicInfoInput struct {
	Name        string           `json:"name"`
	Level       string           `json:"level"`
	StartDate   domain.Date      `json:"start_date"`
	EndDate     domain.Date      `json:"end_date"`
	LocationID  string           `json:"location_id"`
	Description string           `json:"description"`
	Posters     []string         `json:"posters"`
	Mode        domain.EventMode `json:"mode"`
}

func (BasicInfoInput) Step() State { return StateBasicInfo }

// WeightClassInput replaces the authored weight classes (registration mode)
type WeightClassInput struct {
	WeightClasses []domain.WeightClass `json:"weight_classes"`
}

func (WeightClassInput) Step() State { return StateWeightClass }

// ZoneInput defines one seat zone
type ZoneInput struct {
	ZoneName     string `json:"zone_name"`
	NumberOfSeat int    `json:"number_of_seat"`
	Price        int64  `json:"price"`
}

// SeatZoneInput adds zones to the inventory. It may be empty when zones
// were already added through the inventory directly.
type SeatZoneInput struct {
	Zones []ZoneInput `json:"zones"`
}

func (SeatZoneInput) Step() State { return StateSeatZone }

// MatchEntry is a match together with the weight class it belongs to
type MatchEntry struct {
	WeightClass string `json:"weight_class"`
	schedule.MatchInput
}

// MatchScheduleInput adds matches to the schedule
type MatchScheduleInput struct {
	Matches []MatchEntry `json:"matches"`
}

func (MatchScheduleInput) Step() State { return StateMatchSchedule }
