package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/prohmpiriya/ringside/internal/inventory"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/schedule"
	"github.com/prohmpiriya/ringside/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *retry.Config {
	return &retry.Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// flakyEventRepository fails the first failures SubmitEvent calls
type flakyEventRepository struct {
	*repository.MemoryEventRepository
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	ids      []string
}

func (f *flakyEventRepository) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	f.mu.Lock()
	f.calls++
	f.ids = append(f.ids, event.ID)
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return "", f.err
	}
	f.mu.Unlock()
	return f.MemoryEventRepository.SubmitEvent(ctx, event)
}

// lostReplyEventRepository stores every event but reports the first
// failures calls as failed
type lostReplyEventRepository struct {
	*repository.MemoryEventRepository
	failures int
	ids      []string
}

func (l *lostReplyEventRepository) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	l.ids = append(l.ids, event.ID)
	id, err := l.MemoryEventRepository.SubmitEvent(ctx, event)
	if err != nil {
		return "", err
	}
	if l.failures > 0 {
		l.failures--
		return "", errors.New("i/o timeout")
	}
	return id, nil
}

func ticketSalesBasicInfo() draft.BasicInfoInput {
	return draft.BasicInfoInput{
		Name:       "Rajadamnern Fight Night",
		Level:      "professional",
		StartDate:  "2025-05-01",
		EndDate:    "2025-05-02",
		LocationID: "rajadamnern",
		Posters:    []string{"poster.jpg"},
		Mode:       domain.ModeOpenForTicketSales,
	}
}

func newTestOrganizerService(events repository.EventRepository) (OrganizerService, *repository.MemoryDraftStore) {
	drafts := repository.NewMemoryDraftStore()
	svc := NewOrganizerService(drafts, events, &OrganizerServiceConfig{Retry: fastRetry(), NewID: sequentialIDs()})
	return svc, drafts
}

func TestOrganizerService_TicketSalesFlow(t *testing.T) {
	ctx := context.Background()
	events := repository.NewMemoryEventRepository()
	svc, drafts := newTestOrganizerService(events)

	d, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateBasicInfo, d.State)

	d, err = svc.Advance(ctx, "org-1", ticketSalesBasicInfo())
	require.NoError(t, err)
	assert.Equal(t, draft.StateSeatZone, d.State)
	assert.Len(t, d.Event.WeightClasses, 4)

	zone, err := svc.AddZone(ctx, "org-1", draft.ZoneInput{ZoneName: "Ringside", NumberOfSeat: 3, Price: 2000})
	require.NoError(t, err)
	assert.Len(t, zone.Seats, 3)

	d, err = svc.Advance(ctx, "org-1", draft.SeatZoneInput{Zones: []draft.ZoneInput{{ZoneName: "Stand", NumberOfSeat: 10, Price: 500}}})
	require.NoError(t, err)
	assert.Equal(t, draft.StateMatchSchedule, d.State)
	assert.Len(t, d.Event.SeatZones, 2)

	match, err := svc.AddMatch(ctx, "org-1", draft.MatchEntry{
		WeightClass: "Flyweight",
		MatchInput:  schedule.MatchInput{MatchTime: "19:00", MatchDate: "2025-05-01", Boxer1ID: "b1", Boxer2ID: "b2"},
	})
	require.NoError(t, err)

	_, err = svc.EditMatch(ctx, "org-1", match.ID, schedule.MatchInput{MatchTime: "20:00", MatchDate: "2025-05-02", Boxer1ID: "b1", Boxer2ID: "b3"})
	require.NoError(t, err)

	id, err := svc.Finalize(ctx, "org-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = drafts.LoadDraft(ctx, "org-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	event, err := events.FetchEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.EventStatusSubmitted, event.Status)
	assert.Equal(t, "org-1", event.OrganizerID)
	assert.Len(t, event.SeatZones, 2)
	got, ok := event.Match(match.ID)
	require.True(t, ok)
	assert.Equal(t, "b3", got.Boxer2ID)
	assert.Equal(t, domain.Date("2025-05-02"), got.MatchDate)
}

func TestOrganizerService_StartDraftResumes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "org-1", ticketSalesBasicInfo())
	require.NoError(t, err)

	d, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateSeatZone, d.State)
	assert.Equal(t, "Rajadamnern Fight Night", d.Event.Name)

	_, err = svc.StartDraft(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOrganizerService_FailedStepLeavesStoredDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)

	in := ticketSalesBasicInfo()
	in.EndDate = "2025-04-01"
	_, err = svc.Advance(ctx, "org-1", in)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "end_date")

	d, err := svc.GetDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateBasicInfo, d.State)
	assert.Empty(t, d.Event.Name)
}

func TestOrganizerService_Back(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	_, err = svc.Back(ctx, "org-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Advance(ctx, "org-1", ticketSalesBasicInfo())
	require.NoError(t, err)

	d, err := svc.Back(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateBasicInfo, d.State)
	assert.Equal(t, "Rajadamnern Fight Night", d.Event.Name)
}

func TestOrganizerService_ZoneEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)

	zone, err := svc.AddZone(ctx, "org-1", draft.ZoneInput{ZoneName: "VIP", NumberOfSeat: 2, Price: 100})
	require.NoError(t, err)

	seats := 4
	edited, err := svc.EditZone(ctx, "org-1", zone.ID, inventory.ZoneUpdate{NumberOfSeat: &seats})
	require.NoError(t, err)
	assert.Len(t, edited.Seats, 4)

	_, err = svc.AddZone(ctx, "org-1", draft.ZoneInput{ZoneName: "", NumberOfSeat: 0, Price: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.RemoveZone(ctx, "org-1", zone.ID))
	assert.ErrorIs(t, svc.RemoveZone(ctx, "org-1", zone.ID), domain.ErrZoneNotFound)

	d, err := svc.GetDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Empty(t, d.Event.SeatZones)
}

func TestOrganizerService_MatchErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "org-1", ticketSalesBasicInfo())
	require.NoError(t, err)

	_, err = svc.AddMatch(ctx, "org-1", draft.MatchEntry{
		WeightClass: "Heavyweight",
		MatchInput:  schedule.MatchInput{MatchTime: "19:00", MatchDate: "2025-05-01", Boxer1ID: "b1", Boxer2ID: "b2"},
	})
	assert.ErrorIs(t, err, domain.ErrWeightClassNotFound)

	_, err = svc.AddMatch(ctx, "org-1", draft.MatchEntry{
		WeightClass: "Flyweight",
		MatchInput:  schedule.MatchInput{MatchTime: "19:00", MatchDate: "2025-06-01", Boxer1ID: "b1", Boxer2ID: "b2"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.ErrorIs(t, svc.RemoveMatch(ctx, "org-1", "missing"), domain.ErrMatchNotFound)
}

func TestOrganizerService_NoDraft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.Advance(ctx, "nobody", ticketSalesBasicInfo())
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	_, err = svc.Finalize(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.ErrorIs(t, svc.DiscardDraft(ctx, "nobody"), domain.ErrDraftNotFound)
}

func TestOrganizerService_Discard(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	require.NoError(t, svc.DiscardDraft(ctx, "org-1"))

	_, err = svc.GetDraft(ctx, "org-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func prepareFinalizableDraft(t *testing.T, svc OrganizerService) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "org-1", ticketSalesBasicInfo())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "org-1", draft.SeatZoneInput{Zones: []draft.ZoneInput{{ZoneName: "VIP", NumberOfSeat: 5, Price: 100}}})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, "org-1", draft.MatchScheduleInput{Matches: []draft.MatchEntry{{
		WeightClass: "Lightweight",
		MatchInput:  schedule.MatchInput{MatchTime: "18:30", MatchDate: "2025-05-01", Boxer1ID: "b1", Boxer2ID: "b2"},
	}}})
	require.NoError(t, err)
}

func TestOrganizerService_FinalizeRetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	events := &flakyEventRepository{
		MemoryEventRepository: repository.NewMemoryEventRepository(),
		failures:              2,
		err:                   errors.New("connection reset"),
	}
	svc, _ := newTestOrganizerService(events)
	prepareFinalizableDraft(t, svc)

	id, err := svc.Finalize(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 3, events.calls)

	// Every attempt carries the same event ID
	assert.Equal(t, id, events.ids[0])
	assert.Equal(t, events.ids[0], events.ids[2])
}

func TestOrganizerService_FinalizeGivesUp(t *testing.T) {
	ctx := context.Background()
	events := &flakyEventRepository{
		MemoryEventRepository: repository.NewMemoryEventRepository(),
		failures:              10,
		err:                   errors.New("connection reset"),
	}
	svc, drafts := newTestOrganizerService(events)
	prepareFinalizableDraft(t, svc)

	_, err := svc.Finalize(ctx, "org-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
	assert.Equal(t, 3, events.calls)

	d, err := drafts.LoadDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateMatchSchedule, d.State)
}

func TestOrganizerService_FinalizeAfterLostReplyStoresOneEvent(t *testing.T) {
	ctx := context.Background()
	events := &lostReplyEventRepository{
		MemoryEventRepository: repository.NewMemoryEventRepository(),
		failures:              3,
	}
	svc, drafts := newTestOrganizerService(events)
	prepareFinalizableDraft(t, svc)

	_, err := svc.Finalize(ctx, "org-1")
	require.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)

	d, err := drafts.LoadDraft(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, draft.StateMatchSchedule, d.State)
	require.NotEmpty(t, d.Event.ID)

	id, err := svc.Finalize(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, d.Event.ID, id)

	require.Len(t, events.ids, 4)
	for _, submitted := range events.ids {
		assert.Equal(t, id, submitted)
	}
	stored, err := events.FetchEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rajadamnern Fight Night", stored.Name)
}

func TestOrganizerService_FinalizeDoesNotRetryDomainErrors(t *testing.T) {
	ctx := context.Background()
	events := &flakyEventRepository{
		MemoryEventRepository: repository.NewMemoryEventRepository(),
		failures:              10,
		err:                   domain.NewValidationError("name", "rejected"),
	}
	svc, _ := newTestOrganizerService(events)
	prepareFinalizableDraft(t, svc)

	_, err := svc.Finalize(ctx, "org-1")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, events.calls)
}

func TestOrganizerService_FinalizeTooEarly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestOrganizerService(repository.NewMemoryEventRepository())

	_, err := svc.StartDraft(ctx, "org-1")
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, "org-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "validation", err: domain.NewValidationError("x", "bad"), expected: true},
		{name: "wrapped sentinel", err: fmt.Errorf("lookup: %w", domain.ErrEventNotFound), expected: true},
		{name: "infrastructure", err: errors.New("connection refused"), expected: false},
		{name: "context", err: context.DeadlineExceeded, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDomainError(tt.err))
		})
	}
}
