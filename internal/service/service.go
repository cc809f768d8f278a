// Package service coordinates the domain packages with persistence,
// reservations and order hand-off.
package service

import (
	"errors"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/retry"
)

// domainErrors are outcomes of business rules. Retrying them cannot help.
var domainErrors = []error{
	domain.ErrValidation,
	domain.ErrCapacityExceeded,
	domain.ErrSelectionRequired,
	domain.ErrInvalidTransition,
	domain.ErrDraftSubmitted,
	domain.ErrDraftNotFound,
	domain.ErrZoneNotFound,
	domain.ErrWeightClassNotFound,
	domain.ErrMatchNotFound,
	domain.ErrInvalidResult,
	domain.ErrEventNotFound,
	domain.ErrOrderNotFound,
	domain.ErrNotEventOwner,
	domain.ErrInsufficientSeats,
	domain.ErrHoldNotFound,
}

// IsDomainError reports whether err is a business rule outcome rather than
// an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// DefaultRetryConfig is used for collaborator calls when none is given
func DefaultRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
		IsPermanent:     IsDomainError,
	}
}

func newRetrier(cfg *retry.Config) *retry.Retrier {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	if cfg.IsPermanent == nil {
		c := *cfg
		c.IsPermanent = IsDomainError
		cfg = &c
	}
	return retry.New(cfg)
}
