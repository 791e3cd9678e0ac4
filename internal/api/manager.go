package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/passbi/ridesim/internal/cache"
	"github.com/passbi/ridesim/internal/config"
	"github.com/passbi/ridesim/internal/core/events"
	"github.com/passbi/ridesim/internal/core/roadgraph"
	"github.com/passbi/ridesim/internal/core/sim"
	"github.com/passbi/ridesim/internal/models"
)

// EventEnvelope is the serialized form of one bus event, shared by the SSE
// stream and the Redis mirror.
type EventEnvelope struct {
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
	DriverID *uint64   `json:"driver_id,omitempty"`
	RiderID  *uint64   `json:"rider_id,omitempty"`
}

func encodeEvent(e events.Event) ([]byte, error) {
	env := EventEnvelope{Time: e.Time()}
	ref := func(id uint64) *uint64 { return &id }
	switch ev := e.(type) {
	case events.NewDriver:
		env.Type = "NewDriver"
		env.DriverID = ref(uint64(ev.DriverID))
	case events.NewRider:
		env.Type = "NewRider"
		env.RiderID = ref(uint64(ev.RiderID))
	case events.RiderMatch:
		env.Type = "RiderMatch"
		env.DriverID = ref(uint64(ev.DriverID))
		env.RiderID = ref(uint64(ev.RiderID))
	case events.RiderPickup:
		env.Type = "RiderPickup"
		env.DriverID = ref(uint64(ev.DriverID))
		env.RiderID = ref(uint64(ev.RiderID))
	case events.RiderDropOff:
		env.Type = "RiderDropOff"
		env.DriverID = ref(uint64(ev.DriverID))
		env.RiderID = ref(uint64(ev.RiderID))
	case events.RiderCancelled:
		env.Type = "RiderCancelled"
		env.RiderID = ref(uint64(ev.RiderID))
	case events.DriverComplete:
		env.Type = "DriverComplete"
		env.DriverID = ref(uint64(ev.DriverID))
	case events.TrafficUpdate:
		env.Type = "TrafficUpdate"
	case events.Quit:
		env.Type = "Quit"
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}
	return json.Marshal(env)
}

// RunningWorld is one live simulation hosted by the control server.
type RunningWorld struct {
	ID    string
	World *sim.World
	Gen   *sim.Generator

	cancel context.CancelFunc
	done   chan struct{}

	// generation counts traffic updates, keying the Redis distance cache so
	// stale entries die with the tables that produced them.
	generation atomic.Uint64

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// Subscribe attaches a new event-stream consumer. The returned channel is
// closed when the world shuts down; cancel detaches early.
func (rw *RunningWorld) Subscribe() (ch chan []byte, cancel func()) {
	ch = make(chan []byte, 64)
	rw.mu.Lock()
	rw.subscribers[ch] = struct{}{}
	rw.mu.Unlock()
	return ch, func() {
		rw.mu.Lock()
		if _, ok := rw.subscribers[ch]; ok {
			delete(rw.subscribers, ch)
			close(ch)
		}
		rw.mu.Unlock()
	}
}

// broadcast drains the world's event bus, mirroring each event to every SSE
// subscriber and, when Redis is available, onto the world's Pub/Sub channel.
func (rw *RunningWorld) broadcast(useRedis bool) {
	defer func() {
		rw.mu.Lock()
		for ch := range rw.subscribers {
			delete(rw.subscribers, ch)
			close(ch)
		}
		rw.mu.Unlock()
		close(rw.done)
	}()

	for e := range rw.World.Events {
		if _, ok := e.(events.TrafficUpdate); ok {
			rw.generation.Add(1)
		}
		payload, err := encodeEvent(e)
		if err != nil {
			log.Printf("api: failed to encode event: %v", err)
			continue
		}
		rw.mu.Lock()
		for ch := range rw.subscribers {
			select {
			case ch <- payload:
			default: // slow subscriber, drop rather than stall the bus
			}
		}
		rw.mu.Unlock()
		if useRedis {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := cache.PublishEvent(ctx, rw.ID, payload); err != nil {
				log.Printf("api: failed to publish event to Redis: %v", err)
			}
			cancel()
		}
	}
}

// Manager owns every world hosted by this server process.
type Manager struct {
	mu       sync.RWMutex
	worlds   map[string]*RunningWorld
	useRedis bool
}

// NewManager creates an empty world registry. useRedis enables the Pub/Sub
// event mirror, the traffic-update lock, and the distance cache.
func NewManager(useRedis bool) *Manager {
	return &Manager{worlds: make(map[string]*RunningWorld), useRedis: useRedis}
}

// UsesRedis reports whether the Redis surface is enabled.
func (m *Manager) UsesRedis() bool { return m.useRedis }

// CreateWorld builds a world from a graph description plus config, starts
// its main loop (and generators, when requested), and registers it.
func (m *Manager) CreateWorld(cfg config.Config, input models.GraphInput, startGenerators bool, start time.Time) (*RunningWorld, error) {
	nodes, edges := input.Tuples()
	seed := cfg.RandomSeed
	if !cfg.HasRandomSeed {
		seed = time.Now().UnixNano()
	}
	facade, err := roadgraph.NewFacade(nodes, edges, seed)
	if err != nil {
		return nil, err
	}

	world := sim.NewWorld(facade, cfg.PSO, seed, start)
	ctx, cancel := context.WithCancel(context.Background())
	rw := &RunningWorld{
		ID:          uuid.NewString(),
		World:       world,
		cancel:      cancel,
		done:        make(chan struct{}),
		subscribers: make(map[chan []byte]struct{}),
	}
	if startGenerators {
		rw.Gen = sim.NewGenerator(world, cfg.Generator, seed, cfg.SimulationSpeed)
		rw.Gen.Start()
	}

	go rw.broadcast(m.useRedis)
	go func() {
		world.Run(ctx, cfg.FrameInterval(), cfg.SimulationSpeed)
		if rw.Gen != nil {
			rw.Gen.Stop()
		}
		close(world.Events)
	}()

	m.mu.Lock()
	m.worlds[rw.ID] = rw
	m.mu.Unlock()
	return rw, nil
}

// Get looks up a running world by id.
func (m *Manager) Get(id string) (*RunningWorld, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rw, ok := m.worlds[id]
	return rw, ok
}

// StopAll shuts every world down, used at server shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	worlds := make([]*RunningWorld, 0, len(m.worlds))
	for _, rw := range m.worlds {
		worlds = append(worlds, rw)
	}
	m.worlds = make(map[string]*RunningWorld)
	m.mu.Unlock()

	for _, rw := range worlds {
		rw.World.Post(sim.QuitRequest{})
		rw.cancel()
		<-rw.done
	}
}
