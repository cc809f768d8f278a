package schedule

import (
	"fmt"

	"github.com/prohmpiriya/ringside/internal/domain"
)

// RecordResult sets the winner of a match on a submitted event.
// The winner must be one of the two boxers.
func RecordResult(event *domain.Event, matchID, winnerID string) error {
	if !event.IsSubmitted() {
		return fmt.Errorf("%w: results can only be recorded on submitted events", domain.ErrInvalidTransition)
	}

	match, ok := event.Match(matchID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMatchNotFound, matchID)
	}
	if !match.HasBoxer(winnerID) {
		return fmt.Errorf("%w: %q is not in match %s", domain.ErrInvalidResult, winnerID, matchID)
	}

	winner := winnerID
	match.Result = &winner
	return nil
}
