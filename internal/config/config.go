// Package config loads the simulator's configuration knobs from
// environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/passbi/ridesim/internal/core/pso"
	"github.com/passbi/ridesim/internal/core/sim"
)

// Config is the simulation-wide configuration surface.
type Config struct {
	LocationName    string
	ScreenWidth     int
	ScreenHeight    int
	FrameRate       int
	SimulationSpeed int
	RandomSeed      int64
	HasRandomSeed   bool

	PSO       pso.Config
	Generator sim.GeneratorConfig
}

// FrameInterval returns the wall-clock duration of one tick.
func (c Config) FrameInterval() time.Duration {
	rate := c.FrameRate
	if rate < 1 {
		rate = 30
	}
	return time.Second / time.Duration(rate)
}

// Default returns the configuration the simulator uses absent any overrides.
func Default() Config {
	return Config{
		LocationName:    "sample-city",
		ScreenWidth:     1280,
		ScreenHeight:    720,
		FrameRate:       30,
		SimulationSpeed: 1,
		PSO:             pso.DefaultConfig(),
		Generator: sim.GeneratorConfig{
			RiderInterarrivalMin:   2 * time.Second,
			RiderInterarrivalMax:   4 * time.Second,
			DriverInterarrivalMin:  2 * time.Second,
			DriverInterarrivalMax:  4 * time.Second,
			RushHourRateMultiplier: 2,
			NightRateMultiplier:    0.3,
			RushHourCommuteBias:    0.7,
			TrafficUpdatePeriod:    15 * time.Second,
		},
	}
}

// LoadFromEnv overlays environment-variable overrides onto Default().
func LoadFromEnv() Config {
	cfg := Default()

	cfg.LocationName = getEnv("RIDESIM_LOCATION", cfg.LocationName)
	cfg.ScreenWidth = getEnvInt("RIDESIM_SCREEN_WIDTH", cfg.ScreenWidth)
	cfg.ScreenHeight = getEnvInt("RIDESIM_SCREEN_HEIGHT", cfg.ScreenHeight)
	cfg.FrameRate = getEnvInt("RIDESIM_FRAME_RATE", cfg.FrameRate)
	cfg.SimulationSpeed = getEnvInt("RIDESIM_SIM_SPEED", cfg.SimulationSpeed)

	if v := os.Getenv("RIDESIM_RANDOM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RandomSeed = seed
			cfg.HasRandomSeed = true
		}
	}

	cfg.PSO.NumParticles = getEnvInt("RIDESIM_PSO_PARTICLES", cfg.PSO.NumParticles)
	cfg.PSO.Iterations = getEnvInt("RIDESIM_PSO_ITERATIONS", cfg.PSO.Iterations)
	cfg.PSO.WStart = getEnvFloat("RIDESIM_PSO_W_START", cfg.PSO.WStart)
	cfg.PSO.WStep = getEnvFloat("RIDESIM_PSO_W_STEP", cfg.PSO.WStep)
	cfg.PSO.C1Start = getEnvFloat("RIDESIM_PSO_C1_START", cfg.PSO.C1Start)
	cfg.PSO.C1Step = getEnvFloat("RIDESIM_PSO_C1_STEP", cfg.PSO.C1Step)
	cfg.PSO.C2Start = getEnvFloat("RIDESIM_PSO_C2_START", cfg.PSO.C2Start)
	cfg.PSO.C2Step = getEnvFloat("RIDESIM_PSO_C2_STEP", cfg.PSO.C2Step)

	cfg.Generator.RiderInterarrivalMin = getEnvDuration("RIDESIM_RIDER_INTERARRIVAL_MIN", cfg.Generator.RiderInterarrivalMin)
	cfg.Generator.RiderInterarrivalMax = getEnvDuration("RIDESIM_RIDER_INTERARRIVAL_MAX", cfg.Generator.RiderInterarrivalMax)
	cfg.Generator.DriverInterarrivalMin = getEnvDuration("RIDESIM_DRIVER_INTERARRIVAL_MIN", cfg.Generator.DriverInterarrivalMin)
	cfg.Generator.DriverInterarrivalMax = getEnvDuration("RIDESIM_DRIVER_INTERARRIVAL_MAX", cfg.Generator.DriverInterarrivalMax)
	cfg.Generator.RushHourRateMultiplier = getEnvFloat("RIDESIM_RUSH_HOUR_MULTIPLIER", cfg.Generator.RushHourRateMultiplier)
	cfg.Generator.NightRateMultiplier = getEnvFloat("RIDESIM_NIGHT_MULTIPLIER", cfg.Generator.NightRateMultiplier)
	cfg.Generator.RushHourCommuteBias = getEnvFloat("RIDESIM_RUSH_HOUR_BIAS", cfg.Generator.RushHourCommuteBias)
	cfg.Generator.TrafficUpdatePeriod = getEnvDuration("RIDESIM_TRAFFIC_UPDATE_PERIOD", cfg.Generator.TrafficUpdatePeriod)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
