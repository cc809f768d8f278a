package dto

import (
	"fmt"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/prohmpiriya/ringside/internal/inventory"
	"github.com/prohmpiriya/ringside/internal/schedule"
)

// AdvanceDraftRequest carries the form data of the current wizard step.
// Exactly the block matching Step is read.
type AdvanceDraftRequest struct {
	Step          string                    `json:"step" binding:"required"`
	BasicInfo     *draft.BasicInfoInput     `json:"basic_info,omitempty"`
	WeightClasses *draft.WeightClassInput   `json:"weight_classes,omitempty"`
	SeatZones     *draft.SeatZoneInput      `json:"seat_zones,omitempty"`
	Matches       *draft.MatchScheduleInput `json:"matches,omitempty"`
}

// ToStepInput selects the step payload named by Step
func (r *AdvanceDraftRequest) ToStepInput() (draft.StepInput, error) {
	switch draft.State(r.Step) {
	case draft.StateBasicInfo:
		if r.BasicInfo == nil {
			return nil, domain.NewValidationError("basic_info", "basic_info is required for this step")
		}
		return *r.BasicInfo, nil
	case draft.StateWeightClass:
		if r.WeightClasses == nil {
			return nil, domain.NewValidationError("weight_classes", "weight_classes is required for this step")
		}
		return *r.WeightClasses, nil
	case draft.StateSeatZone:
		if r.SeatZones == nil {
			return draft.SeatZoneInput{}, nil
		}
		return *r.SeatZones, nil
	case draft.StateMatchSchedule:
		if r.Matches == nil {
			return draft.MatchScheduleInput{}, nil
		}
		return *r.Matches, nil
	default:
		return nil, domain.NewValidationError("step", fmt.Sprintf("unknown step %q", r.Step))
	}
}

// DraftResponse is the organizer's wizard state
type DraftResponse struct {
	State    string       `json:"state"`
	NextStep string       `json:"next_step,omitempty"`
	Event    domain.Event `json:"event"`
}

// NewDraftResponse builds a DraftResponse from a draft
func NewDraftResponse(d draft.Draft) DraftResponse {
	resp := DraftResponse{State: d.State.String(), Event: d.Event}
	if next, ok := draft.Next(d.Event.Mode, d.State); ok {
		resp.NextStep = next.String()
	}
	return resp
}

// FinalizeDraftResponse is returned once the event is submitted
type FinalizeDraftResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// AddZoneRequest adds a seat zone to the draft inventory
type AddZoneRequest struct {
	ZoneName     string `json:"zone_name" binding:"required"`
	NumberOfSeat int    `json:"number_of_seat" binding:"required"`
	Price        int64  `json:"price"`
}

// ToInput converts the request to the draft zone input
func (r *AddZoneRequest) ToInput() draft.ZoneInput {
	return draft.ZoneInput{ZoneName: r.ZoneName, NumberOfSeat: r.NumberOfSeat, Price: r.Price}
}

// EditZoneRequest changes the provided fields of a zone
type EditZoneRequest struct {
	ZoneName     *string `json:"zone_name,omitempty"`
	NumberOfSeat *int    `json:"number_of_seat,omitempty"`
	Price        *int64  `json:"price,omitempty"`
}

// ToUpdate converts the request to an inventory update
func (r *EditZoneRequest) ToUpdate() inventory.ZoneUpdate {
	return inventory.ZoneUpdate{ZoneName: r.ZoneName, NumberOfSeat: r.NumberOfSeat, Price: r.Price}
}

// AddMatchRequest schedules a match under a weight class
type AddMatchRequest struct {
	WeightClass string      `json:"weight_class" binding:"required"`
	MatchTime   string      `json:"match_time"`
	MatchDate   domain.Date `json:"match_date"`
	Boxer1ID    string      `json:"boxer1_id"`
	Boxer2ID    string      `json:"boxer2_id"`
}

// ToEntry converts the request to a draft match entry
func (r *AddMatchRequest) ToEntry() draft.MatchEntry {
	return draft.MatchEntry{
		WeightClass: r.WeightClass,
		MatchInput: schedule.MatchInput{
			MatchTime: r.MatchTime,
			MatchDate: r.MatchDate,
			Boxer1ID:  r.Boxer1ID,
			Boxer2ID:  r.Boxer2ID,
		},
	}
}

// EditMatchRequest replaces a match's time, date and boxers
type EditMatchRequest struct {
	MatchTime string      `json:"match_time"`
	MatchDate domain.Date `json:"match_date"`
	Boxer1ID  string      `json:"boxer1_id"`
	Boxer2ID  string      `json:"boxer2_id"`
}

// ToInput converts the request to a schedule match input
func (r *EditMatchRequest) ToInput() schedule.MatchInput {
	return schedule.MatchInput{
		MatchTime: r.MatchTime,
		MatchDate: r.MatchDate,
		Boxer1ID:  r.Boxer1ID,
		Boxer2ID:  r.Boxer2ID,
	}
}

// RecordResultRequest names the winner of a match
type RecordResultRequest struct {
	WinnerID string `json:"winner_id" binding:"required"`
}
