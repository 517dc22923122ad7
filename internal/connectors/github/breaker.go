package github

import (
	"fmt"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/extindex/extindex/internal/core/domain"
)

// breakerThreshold is the consecutive-failure count that opens the circuit.
const breakerThreshold = 5

// newBreaker builds the circuit breaker guarding all API calls. While the
// circuit is open, calls fail fast as transient errors and the scheduler's
// backoff keeps the pressure off the API.
func newBreaker() *circuit.Breaker {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 30 * time.Second
	bo.MaxInterval = 5 * time.Minute
	bo.Multiplier = 2.0
	bo.Reset()

	return circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    bo,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
}

// call runs fn through the breaker. NotFound responses are real answers,
// not API health signals, so they do not count as breaker failures.
func call(cb *circuit.Breaker, fn func() error) error {
	if !cb.Ready() {
		return fmt.Errorf("circuit breaker open: %w", domain.ErrTransient)
	}

	var fnErr error
	err := cb.Call(func() error {
		fnErr = fn()
		if IsNotFound(fnErr) {
			return nil
		}
		return fnErr
	}, 0)
	if err != nil {
		return err
	}
	return fnErr
}
