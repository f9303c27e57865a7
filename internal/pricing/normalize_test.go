package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"129,99 €", 129.99, true},
		{"1 299,99 €", 1299.99, true},
		{"€449", 449, true},
		{"823", 823, true},
		{"54.90", 54.90, true},
		{"  249,00 € ", 249, true},
		{"1 149,50 €", 1149.50, true},
		{"", 0, false},
		{"   ", 0, false},
		{"prix indisponible", 0, false},
		{"€", 0, false},
		{"1.299,99", 0, false}, // both separators present
		{"12..5", 0, false},
	}

	for _, tc := range testCases {
		value, ok := Normalize(tc.input)
		assert.Equal(t, tc.ok, ok, "ok mismatch for %q", tc.input)
		if tc.ok {
			assert.InDelta(t, tc.expected, value, 0.001, "value mismatch for %q", tc.input)
		}
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(100.0/3.0))
	assert.Equal(t, 60.0, Round2(60.000000001))
	assert.Equal(t, 5.26, Round2(5.2631578))
}

func TestRandomUpliftStaysInRange(t *testing.T) {
	estimator := NewRandomUplift(1.2, 1.8)
	for i := 0; i < 100; i++ {
		former := estimator.Estimate(100)
		assert.GreaterOrEqual(t, former, 120.0)
		assert.LessOrEqual(t, former, 180.0)
	}
}

func TestFixedUplift(t *testing.T) {
	estimator := FixedUplift{Factor: 1.5}
	assert.Equal(t, 150.0, estimator.Estimate(100))
	assert.Equal(t, 74.99, estimator.Estimate(49.99333))
}
