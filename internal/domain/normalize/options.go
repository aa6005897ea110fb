package normalize

import (
	"github.com/ericggul/moodscape/internal/domain/env"
)

// Default diversification offsets. Small discrete sets keep perturbed
// values plausible while separating concurrent users.
var (
	defaultTempDeltas     = []float64{-2, -1, 0, 1, 2}
	defaultHumidityDeltas = []float64{-6, -3, 0, 3, 6}
)

const defaultColorJitter = 18

// Normalizer turns raw inference guesses into canonical environment records.
type Normalizer struct {
	defaultEnv     env.Environment
	tempDeltas     []float64
	humidityDeltas []float64
	colorJitter    int
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithDefaultEnvironment sets the fallback record used when validation or
// inference fails.
func WithDefaultEnvironment(e env.Environment) Option {
	return func(n *Normalizer) {
		if e.Valid() {
			n.defaultEnv = e
		}
	}
}

// WithTemperatureDeltas sets the discrete temperature diversification set.
func WithTemperatureDeltas(deltas []float64) Option {
	return func(n *Normalizer) {
		if len(deltas) > 0 {
			n.tempDeltas = deltas
		}
	}
}

// WithHumidityDeltas sets the discrete humidity diversification set.
func WithHumidityDeltas(deltas []float64) Option {
	return func(n *Normalizer) {
		if len(deltas) > 0 {
			n.humidityDeltas = deltas
		}
	}
}

// WithColorJitter bounds the per-channel RGB jitter.
func WithColorJitter(jitter int) Option {
	return func(n *Normalizer) {
		if jitter >= 0 {
			n.colorJitter = jitter
		}
	}
}

// New constructs a Normalizer with default configuration.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		defaultEnv:     env.Default(),
		tempDeltas:     defaultTempDeltas,
		humidityDeltas: defaultHumidityDeltas,
		colorJitter:    defaultColorJitter,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}
