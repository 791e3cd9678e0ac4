package domain

import "errors"

// Error taxonomy for the dispatch core. Routine infeasibility is never a panic;
// callers receive one of these sentinels wrapped with context via fmt.Errorf.
var (
	// ErrInfeasibleRoute marks a routing-kernel call over a disconnected pair or
	// a city set beyond the configured ceiling. Callers see +Inf cost and an
	// empty route rather than this error propagating past the routing package.
	ErrInfeasibleRoute = errors.New("infeasible route")

	// ErrCapacityViolation marks a decoded subset that exceeds driver vacancies
	// after contention filtering.
	ErrCapacityViolation = errors.New("capacity violation")

	// ErrStaleRider marks a rider already cancelled, or already matched by a
	// higher-ranked candidate earlier in the same contention-resolution pass.
	ErrStaleRider = errors.New("stale rider")

	// ErrGraphLoadFailure marks a fatal, construction-time-only failure to build
	// the road graph from ingested tuples.
	ErrGraphLoadFailure = errors.New("graph load failure")

	// ErrClockSkew marks a time delta that would violate monotonicity. Callers
	// clamp and log; this is never fatal.
	ErrClockSkew = errors.New("clock skew")
)
