package sim

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/events"
)

// Step advances the simulation by one tick of dt simulated time, executing
// the five phases strictly in order: ingest, cancellation sweep,
// matching, movement, publish. It returns false once a Quit request has
// been ingested and the tick has finished.
func (w *World) Step(ctx context.Context, dt time.Duration) bool {
	if dt < 0 {
		log.Printf("sim: %v: negative tick delta %v clamped to zero", domain.ErrClockSkew, dt)
		dt = 0
	}

	// Phase 1: ingest external events.
	w.ingest()

	// Phase 2: cancellation sweep.
	w.matcher.SweepCancellations(w.allRiders(), w.Now, w.emit)

	// Phase 3: global matching.
	w.matcher.Run(ctx, w.idleRiders(), w.activeDrivers(), w.Now, w.emit)

	// Phase 4: driver movement.
	w.moveDrivers(dt)

	// Phase 5: publish the advanced clock; rendering and stats roll-up are
	// collaborators reading the event bus and Stats().
	w.Now = w.Now.Add(dt)
	w.nowUnixNano.Store(w.Now.UnixNano())

	if w.quitting {
		w.finalize()
		return false
	}
	return true
}

// Run drives Step on a wall-clock ticker until a Quit request arrives or
// ctx is cancelled. Each frame advances simulated time by frameInterval
// times the simulation speed multiplier.
func (w *World) Run(ctx context.Context, frameInterval time.Duration, simulationSpeed int) {
	if simulationSpeed < 1 {
		simulationSpeed = 1
	}
	dt := frameInterval * time.Duration(simulationSpeed)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.quitting = true
			w.finalize()
			return
		case <-ticker.C:
			if !w.Step(ctx, dt) {
				return
			}
		}
	}
}

// ingest drains every request currently queued, in arrival order.
func (w *World) ingest() {
	for {
		select {
		case req := <-w.inbound:
			w.handle(req)
		default:
			return
		}
	}
}

func (w *World) handle(req Request) {
	switch r := req.(type) {
	case NewDriverRequest:
		w.spawnDriver(r)
	case NewRiderRequest:
		w.spawnRider(r)
	case TrafficUpdateRequest:
		w.Graph.UpdateTraffic(w.Now)
		w.replanActiveDrivers()
		w.emit(events.NewTrafficUpdate(w.Now))
	case QuitRequest:
		w.quitting = true
	}
}

// finalize performs the graceful shutdown: riders still Idle are forced
// to Cancelled; drivers in motion are abandoned as-is.
func (w *World) finalize() {
	for _, r := range w.allRiders() {
		if r.IsIdle() {
			r.Cancel(w.Now)
			w.emit(events.NewRiderCancelled(w.Now, r.ID))
		}
	}
}

// moveDrivers advances every active driver along its route by a budget of
// dt seconds of travel time, crossing as many nodes as that budget covers.
// Bookkeeping runs in travel-time units: an edge contributes
// its travel-time cost to the driver's odometer, so D_prior stays in the
// same units as the all-pairs tables the cost model charges against.
func (w *World) moveDrivers(dt time.Duration) {
	for _, d := range w.activeDrivers() {
		w.moveDriver(d, dt)
	}
}

func (w *World) moveDriver(d *domain.Driver, dt time.Duration) {
	budget := dt.Seconds()
	for budget > 0 && d.Active() {
		consumed, crossed := d.AdvanceEdge(budget)
		if !crossed {
			return
		}
		budget -= consumed

		result := d.CrossNode(consumed, w.Now, func(from, to domain.NodeID) (float64, bool) {
			e, ok := w.Graph.EdgeBetween(from, to)
			if !ok {
				log.Printf("sim: driver %d route references missing edge %d->%d", d.ID, from, to)
				return 0, false
			}
			return e.TravelTime(), true
		})

		for _, riderID := range result.PickedUp {
			w.emit(events.NewRiderPickup(w.Now, d.ID, riderID))
		}
		for _, riderID := range result.DroppedOff {
			w.emit(events.NewRiderDropOff(w.Now, d.ID, riderID))
		}
		if result.Completed {
			w.emit(events.NewDriverComplete(w.Now, d.ID))
		}
	}
}

func (w *World) allRiders() []*domain.Rider {
	out := make([]*domain.Rider, 0, len(w.Riders))
	for _, r := range w.Riders {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
