package domain

import "time"

// NodeID indexes a node in the road graph. It is shared between the domain
// and roadgraph packages so entities can be built without importing the
// graph implementation.
type NodeID int

// RiderState is the rider's lifecycle stage: Idle -> Matched -> Boarded ->
// Completed, or Idle|Matched -> Cancelled.
type RiderState int

const (
	RiderIdle RiderState = iota
	RiderMatched
	RiderBoarded
	RiderCompleted
	RiderCancelled
)

func (s RiderState) String() string {
	switch s {
	case RiderIdle:
		return "Idle"
	case RiderMatched:
		return "Matched"
	case RiderBoarded:
		return "Boarded"
	case RiderCompleted:
		return "Completed"
	case RiderCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// cancelDelay is the interval between a rider's departure time and its
// cancellation deadline.
const cancelDelay = 15 * time.Minute

// Rider is one ride request. BaselineDistance is the rider's solo travel-time
// cost; CurrentCost is what it is actually charged once matched and must
// never exceed BaselineDistance.
type Rider struct {
	ID               ID
	StartNode        NodeID
	EndNode          NodeID
	DepartureTime    time.Time
	CancelTime       time.Time
	PassengerCount   int
	BaselineDistance float64
	CurrentCost      float64

	DriverID    ID
	hasDriver   bool
	MatchedTime time.Time
	hasMatched  bool
	BoardedTime time.Time
	hasBoarded  bool

	CompletedTime time.Time
	hasCompleted  bool
	CancelledTime time.Time
	hasCancelled  bool

	state RiderState
}

// NewRider constructs an Idle rider with its cancellation deadline derived
// from departureTime, and its baseline/current cost seeded to the solo
// shortest-path distance between its endpoints.
func NewRider(id ID, start, end NodeID, departureTime time.Time, passengerCount int, baselineDistance float64) *Rider {
	return &Rider{
		ID:               id,
		StartNode:        start,
		EndNode:          end,
		DepartureTime:    departureTime,
		CancelTime:       departureTime.Add(cancelDelay),
		PassengerCount:   passengerCount,
		BaselineDistance: baselineDistance,
		CurrentCost:      baselineDistance,
		state:            RiderIdle,
	}
}

// State reports the rider's current lifecycle stage.
func (r *Rider) State() RiderState { return r.state }

// IsIdle reports whether the rider is still unmatched and uncancelled.
func (r *Rider) IsIdle() bool { return r.state == RiderIdle }

// ShouldCancel requires BOTH that the rider has never been matched AND
// that its deadline has passed. A matched rider is never cancelled.
func (r *Rider) ShouldCancel(now time.Time) bool {
	return !r.hasMatched && !r.CancelTime.After(now)
}

// MatchDriver transitions Idle -> Matched, pinning the rider's price for this
// match and recording which driver holds it.
func (r *Rider) MatchDriver(driverID ID, cost float64, now time.Time) {
	r.DriverID = driverID
	r.hasDriver = true
	r.MatchedTime = now
	r.hasMatched = true
	r.CurrentCost = cost
	r.state = RiderMatched
}

// Board transitions Matched -> Boarded.
func (r *Rider) Board(now time.Time) {
	r.BoardedTime = now
	r.hasBoarded = true
	r.state = RiderBoarded
}

// Complete transitions Boarded -> Completed.
func (r *Rider) Complete(now time.Time) {
	r.CompletedTime = now
	r.hasCompleted = true
	r.state = RiderCompleted
}

// Cancel transitions Idle|Matched -> Cancelled. Only invoked when
// ShouldCancel held at the start of the tick, or at shutdown.
func (r *Rider) Cancel(now time.Time) {
	r.CancelledTime = now
	r.hasCancelled = true
	r.state = RiderCancelled
}

// Terminal reports whether the rider has reached Completed or Cancelled.
func (r *Rider) Terminal() bool {
	return r.state == RiderCompleted || r.state == RiderCancelled
}
