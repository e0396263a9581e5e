// Package circuitbreaker guards calls to the school API with a breaker whose
// state is shared through redis, so every replica sees the same outage.
package circuitbreaker

import (
	"context"
	"errors"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultFailWindow       = 10
	defaultOpenCooldown     = 30
	defaultHalfOpenLease    = 5
	defaultFailOpen         = true
	defaultPrefix           = "swifty:cb:"
)

type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

var stateName = map[State]string{
	Closed:   "CLOSED",
	HalfOpen: "HALF_OPEN",
	Open:     "OPEN",
}

func (s State) String() string {
	return stateName[s]
}

// Breaker is what the HTTP layer needs from a breaker.
type Breaker interface {
	Allow(ctx context.Context) error
	OnSuccess(ctx context.Context)
	OnFailure(ctx context.Context)
}

type Options struct {
	// Number of failures before entering open state.
	FailureThreshold int
	// Time between failures to count as an outage.
	FailWindow time.Duration
	// How long to stay in open state before triggering half-open state.
	OpenCoolDown time.Duration
	// Lease letting a single caller probe the upstream while half-open.
	HalfOpenLease time.Duration
	// What Allow does when redis cannot be read.
	// TRUE: allows requests to proceed without circuit breaker participating
	// FALSE: blocks requests
	FailOpen bool
	// Key prefix to prevent name clashing.
	Prefix string
}

func DefaultOptions() Options {
	return Options{
		FailureThreshold: defaultFailureThreshold,
		FailWindow:       defaultFailWindow * time.Second,
		OpenCoolDown:     defaultOpenCooldown * time.Second,
		HalfOpenLease:    defaultHalfOpenLease * time.Second,
		FailOpen:         defaultFailOpen,
		Prefix:           defaultPrefix,
	}
}
