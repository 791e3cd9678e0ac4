package pso

// Config holds the per-driver PSO's tunable parameters.
type Config struct {
	NumParticles int
	Iterations   int

	WStart, WStep   float64
	C1Start, C1Step float64
	C2Start, C2Step float64

	MaxNoImprovIter    int
	MinImprovParticles int
}

// DefaultConfig returns the Clerc-constriction defaults:
// (w, c1, c2) = (0.7298, 1.49618, 1.49618) with zero step.
func DefaultConfig() Config {
	return Config{
		NumParticles:       35,
		Iterations:         200,
		WStart:             0.7298,
		WStep:              0,
		C1Start:            1.49618,
		C1Step:             0,
		C2Start:            1.49618,
		C2Step:             0,
		MaxNoImprovIter:    4,
		MinImprovParticles: 1,
	}
}
