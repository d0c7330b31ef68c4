package gen

import "github.com/ojrac/opensimplex-go"

// NoiseGenerator produces deterministic 2D OpenSimplex noise in [-1, 1] from
// a seed.
type NoiseGenerator struct {
	noise opensimplex.Noise
}

func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return &NoiseGenerator{noise: opensimplex.New(seed)}
}

// Noise2D returns noise at (x, y).
func (ng *NoiseGenerator) Noise2D(x, y float64) float64 {
	return min(max(ng.noise.Eval2(x, y), -1), 1)
}

// OctaveNoise2D sums octaves of Noise2D, each at double the frequency and
// persistence times the amplitude of the previous one, normalised to [-1, 1].
func (ng *NoiseGenerator) OctaveNoise2D(x, y float64, octaves int, persistence float64) float64 {
	var total, norm float64
	freq, amp := 1.0, 1.0
	for range octaves {
		total += ng.Noise2D(x*freq, y*freq) * amp
		norm += amp
		amp *= persistence
		freq *= 2
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}
