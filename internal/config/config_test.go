package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30, cfg.FrameRate)
	assert.Equal(t, 1, cfg.SimulationSpeed)
	assert.False(t, cfg.HasRandomSeed)
	assert.InDelta(t, 0.7298, cfg.PSO.WStart, 1e-9)
	assert.Equal(t, time.Second/30, cfg.FrameInterval())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("RIDESIM_FRAME_RATE", "60")
	t.Setenv("RIDESIM_SIM_SPEED", "4")
	t.Setenv("RIDESIM_RANDOM_SEED", "12345")
	t.Setenv("RIDESIM_PSO_PARTICLES", "50")
	t.Setenv("RIDESIM_RIDER_INTERARRIVAL_MAX", "10s")
	t.Setenv("RIDESIM_TRAFFIC_UPDATE_PERIOD", "1m")

	cfg := LoadFromEnv()
	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, 4, cfg.SimulationSpeed)
	assert.True(t, cfg.HasRandomSeed)
	assert.Equal(t, int64(12345), cfg.RandomSeed)
	assert.Equal(t, 50, cfg.PSO.NumParticles)
	assert.Equal(t, 10*time.Second, cfg.Generator.RiderInterarrivalMax)
	assert.Equal(t, time.Minute, cfg.Generator.TrafficUpdatePeriod)
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RIDESIM_FRAME_RATE", "not-a-number")
	t.Setenv("RIDESIM_RANDOM_SEED", "not-a-number")

	cfg := LoadFromEnv()
	assert.Equal(t, Default().FrameRate, cfg.FrameRate)
	assert.False(t, cfg.HasRandomSeed)
}
