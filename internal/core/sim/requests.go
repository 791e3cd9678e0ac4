package sim

import (
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
)

// Request is the closed sum of external inputs the main loop ingests in
// phase 1, distinct from the public events.Event bus the core emits
// outward: a Request is a command a generator posts; the loop may react to
// it by emitting one or more bus events.
type Request interface{ isRequest() }

// NewDriverRequest asks the loop to spawn a driver with a solo route from
// start to end.
type NewDriverRequest struct {
	Start, End    domain.NodeID
	DepartureTime time.Time
	Seats         int
}

// NewRiderRequest asks the loop to spawn a rider with the given trip.
type NewRiderRequest struct {
	Start, End     domain.NodeID
	DepartureTime  time.Time
	PassengerCount int
}

// TrafficUpdateRequest asks the loop to resample congestion and have every
// active driver re-plan.
type TrafficUpdateRequest struct{}

// QuitRequest asks the loop to shut down gracefully after the current tick.
type QuitRequest struct{}

func (NewDriverRequest) isRequest()     {}
func (NewRiderRequest) isRequest()      {}
func (TrafficUpdateRequest) isRequest() {}
func (QuitRequest) isRequest()          {}
