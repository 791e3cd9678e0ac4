package domain

import (
	"fmt"
	"sort"
	"time"
)

// DriverState is the driver's lifecycle stage:
// Planning -> Driving [-> Picking -> Driving ...] -> Completed.
type DriverState int

const (
	DriverPlanning DriverState = iota
	DriverDriving
	DriverPicking
	DriverCompleted
)

func (s DriverState) String() string {
	switch s {
	case DriverPlanning:
		return "Planning"
	case DriverDriving:
		return "Driving"
	case DriverPicking:
		return "Picking"
	case DriverCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// CurrentEdge is the edge a driver is presently traversing: From is the node
// it most recently departed, To is the node it is advancing toward, and
// Remaining is the distance still to cover on this edge.
type CurrentEdge struct {
	From, To  NodeID
	Remaining float64
}

// RiderCost pairs a rider with the price it is charged by a commit.
type RiderCost struct {
	Rider *Rider
	Cost  float64
}

// CrossingResult reports what happened when a driver's physical position
// crossed a graph node, for the caller to translate into bus events.
type CrossingResult struct {
	PickedUp   []ID
	DroppedOff []ID
	Completed  bool
}

// Driver is one active vehicle. Route holds the node-level walk not yet
// traversed (excluding the node the driver currently occupies); CurrentEdge
// is nil iff the driver has completed.
type Driver struct {
	ID             ID
	StartNode      NodeID
	EndNode        NodeID
	DepartureTime  time.Time
	PassengerSeats int
	Vacancies      int

	Riders          map[ID]*Rider
	CompletedRiders map[ID]*Rider

	Route       []NodeID
	CurrentNode NodeID
	CurrentEdge *CurrentEdge

	TotalDistance    float64
	BaselineDistance float64
	CurrentCost      float64

	CompletedTime time.Time
	hasCompleted  bool

	state DriverState
}

// NewDriver constructs a driver already holding its initial solo route.
// firstHopTo/firstHopRemaining seed the first CurrentEdge; route holds the
// remaining node-level walk after that first hop.
func NewDriver(id ID, start, end NodeID, departureTime time.Time, seats int, firstHopTo NodeID, firstHopRemaining float64, route []NodeID, baselineDistance float64) *Driver {
	return &Driver{
		ID:               id,
		StartNode:        start,
		EndNode:          end,
		DepartureTime:    departureTime,
		PassengerSeats:   seats,
		Vacancies:        seats,
		Riders:           make(map[ID]*Rider),
		CompletedRiders:  make(map[ID]*Rider),
		Route:            route,
		CurrentNode:      start,
		CurrentEdge:      &CurrentEdge{From: start, To: firstHopTo, Remaining: firstHopRemaining},
		BaselineDistance: baselineDistance,
		CurrentCost:      baselineDistance,
		state:            DriverDriving,
	}
}

// State reports the driver's current lifecycle stage.
func (d *Driver) State() DriverState { return d.state }

// Active reports whether the driver still has a current edge to traverse.
func (d *Driver) Active() bool { return d.state != DriverCompleted && d.CurrentEdge != nil }

// MatchRiders commits a PSO/contention-resolution decision: it rejects
// with ErrCapacityViolation if total passenger count would exceed
// vacancies, otherwise installs the new joint price, decrements vacancies,
// activates every rider, and replaces the route.
func (d *Driver) MatchRiders(driverCost float64, riders []RiderCost, route []NodeID, now time.Time) error {
	total := 0
	for _, rc := range riders {
		total += rc.Rider.PassengerCount
	}
	if total > d.Vacancies {
		return fmt.Errorf("%d seats requested with %d vacant: %w", total, d.Vacancies, ErrCapacityViolation)
	}

	d.CurrentCost = driverCost
	for _, rc := range riders {
		d.Vacancies -= rc.Rider.PassengerCount
		rc.Rider.MatchDriver(d.ID, rc.Cost, now)
		d.Riders[rc.Rider.ID] = rc.Rider
	}
	d.Route = route
	return nil
}

// AdvanceEdge consumes up to step from the current edge's Remaining cost. It
// returns the amount actually consumed (capped at Remaining) and whether
// the edge was exhausted (a node crossing occurred).
func (d *Driver) AdvanceEdge(step float64) (consumed float64, crossed bool) {
	if d.CurrentEdge == nil {
		return 0, false
	}
	if step >= d.CurrentEdge.Remaining {
		consumed = d.CurrentEdge.Remaining
		d.CurrentEdge.Remaining = 0
		return consumed, true
	}
	d.CurrentEdge.Remaining -= step
	d.TotalDistance += step
	return step, false
}

// CrossNode is invoked when AdvanceEdge reports a crossing. It books the
// traversed distance, advances CurrentNode/CurrentEdge/Route, runs
// pickup/dropoff bookkeeping at the new node, and detects trip completion.
// nextEdge supplies the next edge's length so the driver need not know
// graph internals.
func (d *Driver) CrossNode(traversedDistance float64, now time.Time, nextEdge func(from, to NodeID) (distance float64, ok bool)) CrossingResult {
	d.TotalDistance += traversedDistance
	d.CurrentNode = d.CurrentEdge.To

	var result CrossingResult
	ids := make([]ID, 0, len(d.Riders))
	for id := range d.Riders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		r := d.Riders[id]
		switch {
		case !r.hasBoarded && r.StartNode == d.CurrentNode:
			r.Board(now)
			result.PickedUp = append(result.PickedUp, id)
		case r.hasBoarded && r.EndNode == d.CurrentNode:
			r.Complete(now)
			d.Vacancies += r.PassengerCount
			delete(d.Riders, id)
			d.CompletedRiders[id] = r
			result.DroppedOff = append(result.DroppedOff, id)
		}
	}

	if len(d.Route) == 0 {
		d.CurrentEdge = nil
		if d.CurrentNode == d.EndNode {
			d.complete(now)
			result.Completed = true
		}
		return result
	}

	next := d.Route[0]
	d.Route = d.Route[1:]
	dist, ok := nextEdge(d.CurrentNode, next)
	if !ok {
		// Disconnected successor: stop motion rather than panic. The caller
		// logs the missing edge.
		d.CurrentEdge = nil
		return result
	}
	d.CurrentEdge = &CurrentEdge{From: d.CurrentNode, To: next, Remaining: dist}
	return result
}

func (d *Driver) complete(now time.Time) {
	d.CompletedTime = now
	d.hasCompleted = true
	d.state = DriverCompleted
}

// ReplaceRoute installs a freshly-replanned route (e.g. after a traffic
// update) without touching vacancies or matched riders.
func (d *Driver) ReplaceRoute(route []NodeID, currentCost float64) {
	d.Route = route
	d.CurrentCost = currentCost
}

// ActiveAndCompletedPaid sums CurrentCost across every rider the driver has
// ever carried (active + completed), the Σ(already paid) term of the cost
// model's C_remaining formula.
func (d *Driver) ActiveAndCompletedPaid() float64 {
	total := 0.0
	for _, r := range d.Riders {
		total += r.CurrentCost
	}
	for _, r := range d.CompletedRiders {
		total += r.CurrentCost
	}
	return total
}
