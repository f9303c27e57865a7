package pricing

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// UpliftEstimator estimates a former price for a listing when the retailer
// does not advertise one. Estimates are an approximation, never ground
// truth; listings built from them carry an estimated flag.
type UpliftEstimator interface {
	Estimate(price float64) float64
}

// RandomUplift estimates a former price by applying a multiplicative uplift
// drawn uniformly from [Min, Max]
type RandomUplift struct {
	Min float64
	Max float64

	mu  sync.Mutex
	rnd *mathrand.Rand
}

// NewRandomUplift creates a seeded random uplift estimator
func NewRandomUplift(min, max float64) *RandomUplift {
	if max < min {
		min, max = max, min
	}
	return &RandomUplift{
		Min: min,
		Max: max,
		rnd: mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// Estimate returns price scaled by a random factor within the range
func (u *RandomUplift) Estimate(price float64) float64 {
	u.mu.Lock()
	factor := u.Min + u.rnd.Float64()*(u.Max-u.Min)
	u.mu.Unlock()
	return Round2(price * factor)
}

// FixedUplift applies a constant factor. Used in tests so estimated former
// prices are reproducible.
type FixedUplift struct {
	Factor float64
}

// Estimate returns price scaled by the fixed factor
func (u FixedUplift) Estimate(price float64) float64 {
	return Round2(price * u.Factor)
}
