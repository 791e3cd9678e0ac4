// Package events defines the core's event bus: a closed sum of typed
// variants, each carrying a simulated timestamp plus referenced entity
// ids.
package events

import (
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
)

// Event is the closed sum-of-variants marker. The main loop switches
// exhaustively over concrete types; no other package may introduce a new
// variant.
type Event interface {
	isEvent()
	Time() time.Time
}

type base struct {
	At time.Time
}

func (base) isEvent()          {}
func (b base) Time() time.Time { return b.At }

// NewDriver announces a driver's creation.
type NewDriver struct {
	base
	DriverID domain.ID
}

// NewRider announces a rider's creation.
type NewRider struct {
	base
	RiderID domain.ID
}

// RiderMatch announces a committed assignment of rider to driver.
type RiderMatch struct {
	base
	DriverID domain.ID
	RiderID  domain.ID
}

// RiderPickup announces a boarding at a node crossing.
type RiderPickup struct {
	base
	DriverID domain.ID
	RiderID  domain.ID
}

// RiderDropOff announces a completion at a node crossing.
type RiderDropOff struct {
	base
	DriverID domain.ID
	RiderID  domain.ID
}

// RiderCancelled announces a cancellation sweep hit.
type RiderCancelled struct {
	base
	RiderID domain.ID
}

// DriverComplete announces a driver reaching its terminal node with an
// empty route.
type DriverComplete struct {
	base
	DriverID domain.ID
}

// TrafficUpdate announces a road-graph congestion resample and table
// rebuild; every active driver re-plans in response.
type TrafficUpdate struct {
	base
}

// Quit is the graceful-shutdown signal: generators stop, drain in-flight
// posts, and the main loop exits after the current tick.
type Quit struct {
	base
}

func newBase(at time.Time) base { return base{At: at} }

// Constructors stamp the event with the simulated time it fired at.

func NewDriverEvent(at time.Time, id domain.ID) NewDriver { return NewDriver{base: newBase(at), DriverID: id} }
func NewRiderEvent(at time.Time, id domain.ID) NewRider   { return NewRider{base: newBase(at), RiderID: id} }
func NewRiderMatch(at time.Time, driverID, riderID domain.ID) RiderMatch {
	return RiderMatch{base: newBase(at), DriverID: driverID, RiderID: riderID}
}
func NewRiderPickup(at time.Time, driverID, riderID domain.ID) RiderPickup {
	return RiderPickup{base: newBase(at), DriverID: driverID, RiderID: riderID}
}
func NewRiderDropOff(at time.Time, driverID, riderID domain.ID) RiderDropOff {
	return RiderDropOff{base: newBase(at), DriverID: driverID, RiderID: riderID}
}
func NewRiderCancelled(at time.Time, riderID domain.ID) RiderCancelled {
	return RiderCancelled{base: newBase(at), RiderID: riderID}
}
func NewDriverComplete(at time.Time, driverID domain.ID) DriverComplete {
	return DriverComplete{base: newBase(at), DriverID: driverID}
}
func NewTrafficUpdate(at time.Time) TrafficUpdate { return TrafficUpdate{base: newBase(at)} }
func NewQuit(at time.Time) Quit                   { return Quit{base: newBase(at)} }
