// Package schedule attaches dated matches to weight classes and answers
// date-indexed queries over them.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
)

const matchTimeLayout = "15:04"

// MatchInput carries the organizer-entered fields of a match
type MatchInput struct {
	MatchTime string      `json:"match_time"`
	MatchDate domain.Date `json:"match_date"`
	Boxer1ID  string      `json:"boxer1_id"`
	Boxer2ID  string      `json:"boxer2_id"`
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithIDGenerator overrides match ID generation
func WithIDGenerator(gen func() string) Option {
	return func(s *Scheduler) {
		s.newID = gen
	}
}

// Scheduler owns the weight classes of one event and their matches.
// Every accepted match falls within [start, end].
type Scheduler struct {
	start   domain.Date
	end     domain.Date
	classes []domain.WeightClass
	frozen  bool
	newID   func() string
}

// New creates a scheduler for an event running from start to end
func New(start, end domain.Date, classes []domain.WeightClass, opts ...Option) *Scheduler {
	s := &Scheduler{start: start, end: end, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	for _, wc := range classes {
		c := wc.Clone()
		if c.Matches == nil {
			c.Matches = []domain.Match{}
		}
		s.classes = append(s.classes, c)
	}
	return s
}

// ValidateMatch checks a match against the event date range
func ValidateMatch(in MatchInput, start, end domain.Date) *domain.ValidationError {
	verr := &domain.ValidationError{}

	if strings.TrimSpace(in.MatchTime) == "" {
		verr.Add("match_time", "match time is required")
	} else if _, err := time.Parse(matchTimeLayout, in.MatchTime); err != nil {
		verr.Add("match_time", "match time must be HH:MM")
	}

	switch {
	case in.MatchDate.IsZero():
		verr.Add("match_date", "match date is required")
	case !in.MatchDate.Valid():
		verr.Add("match_date", "match date must be YYYY-MM-DD")
	case !in.MatchDate.Within(start, end):
		verr.Add("match_date", fmt.Sprintf("match date must be between %s and %s", start, end))
	}

	b1, b2 := strings.TrimSpace(in.Boxer1ID), strings.TrimSpace(in.Boxer2ID)
	if b1 == "" {
		verr.Add("boxer1_id", "boxer 1 is required")
	}
	if b2 == "" {
		verr.Add("boxer2_id", "boxer 2 is required")
	}
	if b1 != "" && b1 == b2 {
		verr.Add("boxer2_id", "a boxer cannot be matched against themselves")
	}

	return verr
}

// AddMatch appends a match to the named weight class
func (s *Scheduler) AddMatch(weightClassKey string, in MatchInput) (*domain.Match, error) {
	if s.frozen {
		return nil, domain.ErrDraftSubmitted
	}
	ci := s.classIndex(weightClassKey)

	verr := ValidateMatch(in, s.start, s.end)
	if ci < 0 {
		verr.Add("weight_class", fmt.Sprintf("%s: %s", domain.ErrWeightClassNotFound, weightClassKey))
		verr.WithCause(domain.ErrWeightClassNotFound)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	m := domain.Match{
		ID:        s.newID(),
		MatchTime: in.MatchTime,
		MatchDate: in.MatchDate,
		Boxer1ID:  strings.TrimSpace(in.Boxer1ID),
		Boxer2ID:  strings.TrimSpace(in.Boxer2ID),
	}
	s.classes[ci].Matches = append(s.classes[ci].Matches, m)

	out := m.Clone()
	return &out, nil
}

// EditMatch replaces a match in place, keeping its ID, weight class and result
func (s *Scheduler) EditMatch(matchID string, in MatchInput) (*domain.Match, error) {
	if s.frozen {
		return nil, domain.ErrDraftSubmitted
	}
	ci, mi := s.matchIndex(matchID)
	if ci < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, matchID)
	}

	if err := ValidateMatch(in, s.start, s.end).OrNil(); err != nil {
		return nil, err
	}

	m := &s.classes[ci].Matches[mi]
	m.MatchTime = in.MatchTime
	m.MatchDate = in.MatchDate
	m.Boxer1ID = strings.TrimSpace(in.Boxer1ID)
	m.Boxer2ID = strings.TrimSpace(in.Boxer2ID)
	if m.Result != nil && !m.HasBoxer(*m.Result) {
		m.Result = nil
	}

	out := m.Clone()
	return &out, nil
}

// RemoveMatch deletes a match
func (s *Scheduler) RemoveMatch(matchID string) error {
	if s.frozen {
		return domain.ErrDraftSubmitted
	}
	ci, mi := s.matchIndex(matchID)
	if ci < 0 {
		return fmt.Errorf("%w: %s", domain.ErrMatchNotFound, matchID)
	}
	matches := s.classes[ci].Matches
	s.classes[ci].Matches = append(matches[:mi], matches[mi+1:]...)
	return nil
}

// MatchesOnDate returns matches on date across all weight classes, in
// weight-class order and then by match time.
func (s *Scheduler) MatchesOnDate(date domain.Date) []domain.Match {
	return MatchesOnDate(s.classes, date)
}

// MatchDates returns the distinct match dates in ascending order
func (s *Scheduler) MatchDates() []domain.Date {
	return MatchDates(s.classes)
}

// WeightClasses returns copies of the weight classes and their matches
func (s *Scheduler) WeightClasses() []domain.WeightClass {
	out := make([]domain.WeightClass, len(s.classes))
	for i, wc := range s.classes {
		out[i] = wc.Clone()
	}
	return out
}

// MatchCount returns the number of scheduled matches
func (s *Scheduler) MatchCount() int {
	n := 0
	for _, wc := range s.classes {
		n += len(wc.Matches)
	}
	return n
}

// SetDateRange moves the event window. It fails when an existing match
// would fall outside the new range.
func (s *Scheduler) SetDateRange(start, end domain.Date) error {
	if s.frozen {
		return domain.ErrDraftSubmitted
	}
	verr := &domain.ValidationError{}
	for _, wc := range s.classes {
		for _, m := range wc.Matches {
			if !m.MatchDate.Within(start, end) {
				verr.Add("start_date", fmt.Sprintf("match on %s falls outside the new date range", m.MatchDate))
			}
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	s.start, s.end = start, end
	return nil
}

// SetWeightClasses replaces the weight class definitions. Matches follow
// their class by name; dropping a class that still has matches fails.
func (s *Scheduler) SetWeightClasses(classes []domain.WeightClass) error {
	if s.frozen {
		return domain.ErrDraftSubmitted
	}
	keep := make(map[string]bool, len(classes))
	for _, wc := range classes {
		keep[wc.WeighName] = true
	}

	verr := &domain.ValidationError{}
	for _, wc := range s.classes {
		if !keep[wc.WeighName] && len(wc.Matches) > 0 {
			verr.Add("weight_classes", fmt.Sprintf("weight class %q still has scheduled matches", wc.WeighName))
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	next := make([]domain.WeightClass, len(classes))
	for i, wc := range classes {
		next[i] = wc.Clone()
		next[i].Matches = []domain.Match{}
		if ci := s.classIndex(wc.WeighName); ci >= 0 {
			next[i].Matches = s.classes[ci].Clone().Matches
		}
	}
	s.classes = next
	return nil
}

// DateRange returns the event window matches must fall in
func (s *Scheduler) DateRange() (domain.Date, domain.Date) {
	return s.start, s.end
}

// Freeze rejects all further changes
func (s *Scheduler) Freeze() {
	s.frozen = true
}

// Frozen reports whether the scheduler has been frozen
func (s *Scheduler) Frozen() bool {
	return s.frozen
}

func (s *Scheduler) classIndex(key string) int {
	for i := range s.classes {
		if s.classes[i].WeighName == key {
			return i
		}
	}
	return -1
}

func (s *Scheduler) matchIndex(matchID string) (int, int) {
	for ci := range s.classes {
		for mi := range s.classes[ci].Matches {
			if s.classes[ci].Matches[mi].ID == matchID {
				return ci, mi
			}
		}
	}
	return -1, -1
}

// MatchesOnDate flattens the matches of classes on date
func MatchesOnDate(classes []domain.WeightClass, date domain.Date) []domain.Match {
	out := []domain.Match{}
	for _, wc := range classes {
		var day []domain.Match
		for _, m := range wc.Matches {
			if m.MatchDate == date {
				day = append(day, m.Clone())
			}
		}
		sort.SliceStable(day, func(i, j int) bool { return day[i].MatchTime < day[j].MatchTime })
		out = append(out, day...)
	}
	return out
}

// MatchDates returns the distinct match dates of classes in ascending order
func MatchDates(classes []domain.WeightClass) []domain.Date {
	seen := make(map[domain.Date]bool)
	dates := []domain.Date{}
	for _, wc := range classes {
		for _, m := range wc.Matches {
			if !seen[m.MatchDate] {
				seen[m.MatchDate] = true
				dates = append(dates, m.MatchDate)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
