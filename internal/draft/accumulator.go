// Package draft builds an Event across the organizer wizard steps through
// an explicit state machine, then hands it to persistence once.
package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/inventory"
	"github.com/prohmpiriya/ringside/internal/schedule"
)

// EventSubmitter persists a finalized event and returns its ID
type EventSubmitter interface {
	SubmitEvent(ctx context.Context, event *domain.Event) (string, error)
}

// Draft is the serializable state of an unfinished event
type Draft struct {
	State State        `json:"state"`
	Event domain.Event `json:"event"`
}

// Option configures an Accumulator
type Option func(*Accumulator)

// WithIDGenerator overrides zone and match ID generation
func WithIDGenerator(gen func() string) Option {
	return func(a *Accumulator) {
		a.newID = gen
	}
}

// Accumulator merges wizard step inputs into one event. A failed step
// leaves the draft exactly as it was.
type Accumulator struct {
	state State
	event domain.Event
	inv   *inventory.Inventory
	sched *schedule.Scheduler
	newID func() string
}

// New starts an empty draft for organizerID at the BasicInfo step
func New(organizerID string, opts ...Option) *Accumulator {
	a := &Accumulator{
		state: StateBasicInfo,
		event: domain.Event{OrganizerID: organizerID, Status: domain.EventStatusDraft},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.inv = inventory.New(nil, inventory.WithIDGenerator(a.newID))
	a.sched = schedule.New("", "", nil, schedule.WithIDGenerator(a.newID))
	return a
}

// Restore rebuilds an accumulator from a saved draft
func Restore(d Draft, opts ...Option) (*Accumulator, error) {
	if !d.State.IsValid() {
		return nil, domain.NewValidationError("state", fmt.Sprintf("unknown draft state %q", d.State))
	}
	if d.State != StateBasicInfo {
		if !d.Event.Mode.IsValid() {
			return nil, domain.NewValidationError("mode", "draft past the first step must have a mode")
		}
		if _, ok := Previous(d.Event.Mode, d.State); !ok && d.State != StateSubmitted {
			return nil, domain.NewValidationError("state", fmt.Sprintf("state %s is not reachable in mode %s", d.State, d.Event.Mode))
		}
	}

	a := New(d.Event.OrganizerID, opts...)
	a.state = d.State
	a.event = basicInfoOf(d.Event)
	a.inv = inventory.New(d.Event.SeatZones, inventory.WithIDGenerator(a.newID))
	a.sched = schedule.New(d.Event.StartDate, d.Event.EndDate, d.Event.WeightClasses, schedule.WithIDGenerator(a.newID))
	if a.state == StateSubmitted {
		a.inv.Freeze()
		a.sched.Freeze()
	}
	return a, nil
}

// State returns the current wizard step
func (a *Accumulator) State() State {
	return a.state
}

// Mode returns the chosen event mode, empty before BasicInfo is accepted
func (a *Accumulator) Mode() domain.EventMode {
	return a.event.Mode
}

// OrganizerID returns the owner of the draft
func (a *Accumulator) OrganizerID() string {
	return a.event.OrganizerID
}

// SubmittedID returns the persisted event ID after Finalize
func (a *Accumulator) SubmittedID() string {
	if a.state != StateSubmitted {
		return ""
	}
	return a.event.ID
}

// AssignEventID fixes the ID the event will be stored under and returns
// it. The ID is kept in snapshots, so every later Finalize attempt
// submits the same record.
func (a *Accumulator) AssignEventID() string {
	if a.event.ID == "" {
		a.event.ID = a.newID()
	}
	return a.event.ID
}

// Inventory exposes the seat zones for fine-grained edits
func (a *Accumulator) Inventory() *inventory.Inventory {
	return a.inv
}

// Scheduler exposes the weight classes and matches for fine-grained edits
func (a *Accumulator) Scheduler() *schedule.Scheduler {
	return a.sched
}

// Event assembles the event as currently drafted
func (a *Accumulator) Event() *domain.Event {
	e := a.event.Clone()
	e.WeightClasses = a.sched.WeightClasses()
	e.SeatZones = a.inv.Zones()
	return e
}

// Snapshot returns the draft as a value that can be stored and restored
func (a *Accumulator) Snapshot() Draft {
	return Draft{State: a.state, Event: *a.Event()}
}

// Advance validates in against the current step, merges it and moves to
// the next step of the mode. In MatchSchedule the input is merged and the
// state is kept; Finalize leaves that step.
func (a *Accumulator) Advance(in StepInput) error {
	if a.state == StateSubmitted {
		return domain.ErrDraftSubmitted
	}
	if in == nil {
		return fmt.Errorf("%w: no input for step %s", domain.ErrInvalidTransition, a.state)
	}
	if in.Step() != a.state {
		return fmt.Errorf("%w: %s input given at step %s", domain.ErrInvalidTransition, in.Step(), a.state)
	}

	var err error
	switch v := in.(type) {
	case BasicInfoInput:
		err = a.applyBasicInfo(v)
	case *BasicInfoInput:
		err = a.applyBasicInfo(*v)
	case WeightClassInput:
		err = a.applyWeightClasses(v)
	case *WeightClassInput:
		err = a.applyWeightClasses(*v)
	case SeatZoneInput:
		err = a.applySeatZones(v)
	case *SeatZoneInput:
		err = a.applySeatZones(*v)
	case MatchScheduleInput:
		err = a.applyMatches(v)
	case *MatchScheduleInput:
		err = a.applyMatches(*v)
	default:
		err = fmt.Errorf("%w: unsupported input %T", domain.ErrInvalidTransition, in)
	}
	if err != nil {
		return err
	}

	if next, ok := Next(a.event.Mode, a.state); ok {
		a.state = next
	}
	return nil
}

// Back returns to the previous step, keeping all entered data
func (a *Accumulator) Back() error {
	prev, ok := Previous(a.event.Mode, a.state)
	if !ok {
		return fmt.Errorf("%w: cannot go back from %s", domain.ErrInvalidTransition, a.state)
	}
	a.state = prev
	return nil
}

// Finalize submits the drafted event. On a submitter error the draft
// stays at MatchSchedule so the call can be retried.
func (a *Accumulator) Finalize(ctx context.Context, submitter EventSubmitter) (string, error) {
	if a.state != StateMatchSchedule {
		return "", fmt.Errorf("%w: finalize is only allowed from %s, draft is at %s", domain.ErrInvalidTransition, StateMatchSchedule, a.state)
	}

	verr := &domain.ValidationError{}
	if a.inv.Len() == 0 {
		verr.Add("seat_zones", "at least one seat zone is required")
	}
	if a.event.Mode.RequiresMatches() && a.sched.MatchCount() == 0 {
		verr.Add("matches", "at least one match is required")
	}
	if err := verr.OrNil(); err != nil {
		return "", err
	}

	event := a.Event()
	event.Status = domain.EventStatusSubmitted
	id, err := submitter.SubmitEvent(ctx, event)
	if err != nil {
		return "", err
	}

	a.state = StateSubmitted
	a.event = domain.Event{ID: id, OrganizerID: a.event.OrganizerID, Mode: a.event.Mode, Status: domain.EventStatusSubmitted}
	a.inv = inventory.New(nil)
	a.inv.Freeze()
	a.sched = schedule.New("", "", nil)
	a.sched.Freeze()
	return id, nil
}

func (a *Accumulator) applyBasicInfo(in BasicInfoInput) error {
	verr := ValidateBasicInfo(in)
	if a.event.Mode != "" && in.Mode != a.event.Mode {
		verr.Add("mode", fmt.Sprintf("mode is fixed to %s", a.event.Mode))
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := a.sched.SetDateRange(in.StartDate, in.EndDate); err != nil {
		return err
	}
	if a.event.Mode == "" && !in.Mode.AuthorsWeightClasses() {
		if err := a.sched.SetWeightClasses(domain.TicketSalesWeightClasses()); err != nil {
			return err
		}
	}

	a.event.Name = strings.TrimSpace(in.Name)
	a.event.Level = strings.TrimSpace(in.Level)
	a.event.StartDate = in.StartDate
	a.event.EndDate = in.EndDate
	a.event.LocationID = strings.TrimSpace(in.LocationID)
	a.event.Description = in.Description
	a.event.Posters = nonBlank(in.Posters)
	a.event.Mode = in.Mode
	return nil
}

// ValidateBasicInfo checks the required fields of the first step
func ValidateBasicInfo(in BasicInfoInput) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "event name is required")
	}
	if strings.TrimSpace(in.Level) == "" {
		verr.Add("level", "level is required")
	}
	if strings.TrimSpace(in.LocationID) == "" {
		verr.Add("location_id", "location is required")
	}

	switch {
	case in.StartDate.IsZero():
		verr.Add("start_date", "start date is required")
	case !in.StartDate.Valid():
		verr.Add("start_date", "start date must be YYYY-MM-DD")
	}
	switch {
	case in.EndDate.IsZero():
		verr.Add("end_date", "end date is required")
	case !in.EndDate.Valid():
		verr.Add("end_date", "end date must be YYYY-MM-DD")
	case in.StartDate.Valid() && in.EndDate.Before(in.StartDate):
		verr.Add("end_date", "end date must not be before start date")
	}

	if len(nonBlank(in.Posters)) == 0 {
		verr.Add("posters", "at least one poster image is required")
	}
	if !in.Mode.IsValid() {
		verr.Add("mode", fmt.Sprintf("mode must be %s or %s", domain.ModeOpenForRegistration, domain.ModeOpenForTicketSales))
	}
	return verr
}

func (a *Accumulator) applyWeightClasses(in WeightClassInput) error {
	verr := &domain.ValidationError{}
	if len(in.WeightClasses) == 0 {
		verr.Add("weight_classes", "at least one weight class is required")
	}

	classes := make([]domain.WeightClass, len(in.WeightClasses))
	seen := make(map[string]bool, len(in.WeightClasses))
	for i, wc := range in.WeightClasses {
		wc.WeighName = strings.TrimSpace(wc.WeighName)
		prefix := fmt.Sprintf("weight_classes[%d].", i)
		verr.Merge(prefix, wc.Validate())

		key := strings.ToLower(wc.WeighName)
		if key != "" && seen[key] {
			verr.Add(prefix+"weigh_name", fmt.Sprintf("weight class %q is listed twice", wc.WeighName))
		}
		seen[key] = true
		classes[i] = wc
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	return a.sched.SetWeightClasses(classes)
}

func (a *Accumulator) applySeatZones(in SeatZoneInput) error {
	staged := inventory.New(a.inv.Zones(), inventory.WithIDGenerator(a.newID))

	verr := &domain.ValidationError{}
	for i, z := range in.Zones {
		if _, err := staged.AddZone(z.ZoneName, z.NumberOfSeat, z.Price); err != nil {
			ve, ok := domain.AsValidationError(err)
			if !ok {
				return err
			}
			verr.Merge(fmt.Sprintf("zones[%d].", i), ve)
		}
	}
	if staged.Len() == 0 {
		verr.Add("seat_zones", "at least one seat zone is required")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	a.inv = staged
	return nil
}

func (a *Accumulator) applyMatches(in MatchScheduleInput) error {
	start, end := a.sched.DateRange()
	staged := schedule.New(start, end, a.sched.WeightClasses(), schedule.WithIDGenerator(a.newID))

	verr := &domain.ValidationError{}
	for i, m := range in.Matches {
		if _, err := staged.AddMatch(m.WeightClass, m.MatchInput); err != nil {
			ve, ok := domain.AsValidationError(err)
			if !ok {
				return err
			}
			verr.Merge(fmt.Sprintf("matches[%d].", i), ve)
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	a.sched = staged
	return nil
}

func basicInfoOf(e domain.Event) domain.Event {
	return domain.Event{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		LocationID:  e.LocationID,
		Name:        e.Name,
		Level:       e.Level,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Description: e.Description,
		Posters:     append([]string(nil), e.Posters...),
		Status:      e.Status,
		Mode:        e.Mode,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
