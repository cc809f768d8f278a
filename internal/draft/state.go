package draft

import "github.com/prohmpiriya/ringside/internal/domain"

// State is a step of the event creation wizard
type State string

const (
	StateBasicInfo     State = "BasicInfo"
	StateWeightClass   State = "WeightClass"
	StateSeatZone      State = "SeatZone"
	StateMatchSchedule State = "MatchSchedule"
	StateSubmitted     State = "Submitted"
)

// IsValid checks if the state is known
func (s State) IsValid() bool {
	switch s {
	case StateBasicInfo, StateWeightClass, StateSeatZone, StateMatchSchedule, StateSubmitted:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// forward maps each state to the state Advance moves to. MatchSchedule has
// no entry: only Finalize leaves it.
var forward = map[domain.EventMode]map[State]State{
	domain.ModeOpenForRegistration: {
		StateBasicInfo:   StateWeightClass,
		StateWeightClass: StateSeatZone,
		StateSeatZone:    StateMatchSchedule,
	},
	domain.ModeOpenForTicketSales: {
		StateBasicInfo: StateSeatZone,
		StateSeatZone:  StateMatchSchedule,
	},
}

var backward = map[domain.EventMode]map[State]State{
	domain.ModeOpenForRegistration: {
		StateWeightClass:   StateBasicInfo,
		StateSeatZone:      StateWeightClass,
		StateMatchSchedule: StateSeatZone,
	},
	domain.ModeOpenForTicketSales: {
		StateSeatZone:      StateBasicInfo,
		StateMatchSchedule: StateSeatZone,
	},
}

// Next returns the state that follows from in mode, if any
func Next(mode domain.EventMode, from State) (State, bool) {
	to, ok := forward[mode][from]
	return to, ok
}

// Previous returns the state Back moves to from in mode, if any
func Previous(mode domain.EventMode, from State) (State, bool) {
	to, ok := backward[mode][from]
	return to, ok
}
