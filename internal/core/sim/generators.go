package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/passbi/ridesim/internal/core/domain"
	"github.com/passbi/ridesim/internal/core/roadgraph"
)

// GeneratorConfig holds the entity spawner's tunables. Interarrival waits
// are drawn uniformly from [Min, Max], then scaled by the rate multipliers:
// rush hour divides the wait (more arrivals), night divides by a sub-unit
// multiplier (fewer arrivals).
type GeneratorConfig struct {
	RiderInterarrivalMin  time.Duration
	RiderInterarrivalMax  time.Duration
	DriverInterarrivalMin time.Duration
	DriverInterarrivalMax time.Duration

	RushHourRateMultiplier float64
	NightRateMultiplier    float64
	RushHourCommuteBias    float64

	TrafficUpdatePeriod time.Duration
}

// Generator runs the cooperative spawner timers: one goroutine per stream
// (riders, drivers, traffic updates), each sleeping its interarrival wait,
// observing the stop flag at every wake, and posting a request into the
// world's inbound queue.
type Generator struct {
	world *World
	cfg   GeneratorConfig

	nodes       []domain.NodeID
	residential []domain.NodeID
	central     []domain.NodeID

	seed            int64
	simulationSpeed int

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewGenerator indexes the spawnable node population up front. Commute bias
// is only applied when the graph actually tags both residential and central
// nodes; otherwise trips are uniform over all nodes.
func NewGenerator(w *World, cfg GeneratorConfig, seed int64, simulationSpeed int) *Generator {
	if simulationSpeed < 1 {
		simulationSpeed = 1
	}
	return &Generator{
		world: w,
		cfg:   cfg,
		nodes: w.Graph.NodesWhere(func(*roadgraph.Node) bool { return true }),
		residential: w.Graph.NodesWhere(func(n *roadgraph.Node) bool {
			return n.IsResidential
		}),
		central: w.Graph.NodesWhere(func(n *roadgraph.Node) bool {
			return n.IsCenter
		}),
		seed:            seed,
		simulationSpeed: simulationSpeed,
	}
}

// Start launches the spawner goroutines. Calling Start on a running
// generator is a no-op.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.running = true
	g.stop = make(chan struct{})

	g.wg.Add(3)
	go g.generateRiders(rand.New(rand.NewSource(g.seed ^ 0x72696465)))
	go g.generateDrivers(rand.New(rand.NewSource(g.seed ^ 0x64726976)))
	go g.generateTraffic()
}

// Stop signals every spawner goroutine and waits for them to drain their
// in-flight posts.
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	close(g.stop)
	g.mu.Unlock()
	g.wg.Wait()
}

func (g *Generator) generateRiders(rng *rand.Rand) {
	defer g.wg.Done()
	for {
		wait := g.interarrival(rng, g.cfg.RiderInterarrivalMin, g.cfg.RiderInterarrivalMax)
		if !g.sleep(wait) {
			return
		}
		start, end := g.tripNodes(rng)
		count := weightedChoice(rng, []int{1, 2, 3}, []float64{0.8, 0.15, 0.05})
		g.world.Post(NewRiderRequest{Start: start, End: end, PassengerCount: count})
	}
}

func (g *Generator) generateDrivers(rng *rand.Rand) {
	defer g.wg.Done()
	for {
		wait := g.interarrival(rng, g.cfg.DriverInterarrivalMin, g.cfg.DriverInterarrivalMax)
		if !g.sleep(wait) {
			return
		}
		start, end := g.tripNodes(rng)
		seats := weightedChoice(rng, []int{1, 2, 3, 4}, []float64{0.15, 0.2, 0.05, 0.6})
		g.world.Post(NewDriverRequest{Start: start, End: end, Seats: seats})
	}
}

func (g *Generator) generateTraffic() {
	defer g.wg.Done()
	if g.cfg.TrafficUpdatePeriod <= 0 {
		return
	}
	wait := g.cfg.TrafficUpdatePeriod / time.Duration(g.simulationSpeed)
	for {
		if !g.sleep(wait) {
			return
		}
		g.world.Post(TrafficUpdateRequest{})
	}
}

// sleep waits for d of wall time, returning false if the generator was
// stopped while waiting.
func (g *Generator) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-g.stop:
		return false
	case <-t.C:
		return true
	}
}

// interarrival draws the next wall-clock wait: uniform over [min, max] in
// simulated time, adjusted by the day-time rate multipliers and divided by
// the simulation speed.
func (g *Generator) interarrival(rng *rand.Rand, min, max time.Duration) time.Duration {
	span := max - min
	wait := min
	if span > 0 {
		wait += time.Duration(rng.Int63n(int64(span)))
	}
	now := g.world.SimNow()
	if domain.IsRushHour(now) && g.cfg.RushHourRateMultiplier > 0 {
		wait = time.Duration(float64(wait) / g.cfg.RushHourRateMultiplier)
	}
	if domain.IsNight(now) && g.cfg.NightRateMultiplier > 0 {
		wait = time.Duration(float64(wait) / g.cfg.NightRateMultiplier)
	}
	return wait / time.Duration(g.simulationSpeed)
}

// tripNodes picks a (start, end) pair. During rush hour a biased share of
// trips commutes residential -> center in the morning and center ->
// residential in the evening.
func (g *Generator) tripNodes(rng *rand.Rand) (domain.NodeID, domain.NodeID) {
	rush := domain.Rush(g.world.SimNow())
	commutable := len(g.residential) > 0 && len(g.central) > 0
	for {
		var start, end domain.NodeID
		if rush == domain.NoRush || !commutable || rng.Float64() >= g.cfg.RushHourCommuteBias {
			start = g.nodes[rng.Intn(len(g.nodes))]
			end = g.nodes[rng.Intn(len(g.nodes))]
		} else if rush == domain.MorningRush {
			start = g.residential[rng.Intn(len(g.residential))]
			end = g.central[rng.Intn(len(g.central))]
		} else {
			start = g.central[rng.Intn(len(g.central))]
			end = g.residential[rng.Intn(len(g.residential))]
		}
		if start != end {
			return start, end
		}
	}
}

func weightedChoice(rng *rand.Rand, values []int, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	draw := rng.Float64() * total
	for i, w := range weights {
		if draw < w {
			return values[i]
		}
		draw -= w
	}
	return values[len(values)-1]
}
