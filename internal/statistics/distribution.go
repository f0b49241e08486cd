package statistics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptyDistribution   = errors.New("empty distribution")
	ErrLengthMismatch      = errors.New("values and probabilities differ in length")
	ErrUnsortedValues      = errors.New("values not in strictly ascending order")
	ErrNegativeProbability = errors.New("negative probability")
	ErrZeroMass            = errors.New("probabilities sum to zero")
)

// Distribution is a categorical distribution over ascending numeric values,
// prepared for inverse-CDF sampling. The final cumulative entry is forced to
// 1 so any uniform draw in [0,1) lands on a value; floating-point noise in
// the probabilities is absorbed at construction, never retried per draw.
type Distribution struct {
	values []float64
	probs  []float64
	cum    []float64
}

// NewDistribution builds a Distribution from parallel value/probability
// slices. Values must be strictly ascending. Probabilities must be
// non-negative with a positive sum; they are normalized by their sum.
func NewDistribution(values, probs []float64) (*Distribution, error) {
	if len(values) == 0 {
		return nil, ErrEmptyDistribution
	}
	if len(values) != len(probs) {
		return nil, fmt.Errorf("%w: %d values, %d probabilities", ErrLengthMismatch, len(values), len(probs))
	}

	total := 0.0
	for i, p := range probs {
		if p < 0 {
			return nil, fmt.Errorf("%w: %v for value %v", ErrNegativeProbability, p, values[i])
		}
		if i > 0 && values[i] <= values[i-1] {
			return nil, fmt.Errorf("%w: %v after %v", ErrUnsortedValues, values[i], values[i-1])
		}
		total += p
	}
	if total <= 0 {
		return nil, ErrZeroMass
	}

	d := &Distribution{
		values: make([]float64, len(values)),
		probs:  make([]float64, len(probs)),
		cum:    make([]float64, len(probs)),
	}
	copy(d.values, values)

	acc := 0.0
	for i, p := range probs {
		d.probs[i] = p / total
		acc += d.probs[i]
		d.cum[i] = acc
	}
	d.cum[len(d.cum)-1] = 1.0

	return d, nil
}

// Sample draws one value by inverse-CDF lookup of a uniform variate.
// Zero-probability values are never drawn.
func (d *Distribution) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	i := sort.Search(len(d.cum), func(i int) bool { return u < d.cum[i] })
	if i == len(d.cum) {
		i--
	}
	return d.values[i]
}

// Len returns the number of categories.
func (d *Distribution) Len() int {
	return len(d.values)
}

// Values returns the category values in ascending order.
func (d *Distribution) Values() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// Probs returns the normalized probabilities, aligned with Values.
func (d *Distribution) Probs() []float64 {
	out := make([]float64, len(d.probs))
	copy(out, d.probs)
	return out
}

// Mean returns the expected value of the distribution.
func (d *Distribution) Mean() float64 {
	return stat.Mean(d.values, d.probs)
}

// StdDev returns the population standard deviation of the distribution.
func (d *Distribution) StdDev() float64 {
	mu := d.Mean()
	variance := 0.0
	for i, v := range d.values {
		dev := v - mu
		variance += d.probs[i] * dev * dev
	}
	return math.Sqrt(variance)
}
