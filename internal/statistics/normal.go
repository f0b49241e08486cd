package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalApprox returns the central-limit-theorem reference interval for the
// mean of groupSize independent draws from d: the normal distribution with
// the group mean's expectation and standard error, cut at the confidence
// level's quantiles. It is a diagnostic shown next to bootstrap intervals,
// not a replacement for them.
func NormalApprox(d *Distribution, groupSize int, confidence float64, precision int) (ConfidenceInterval, error) {
	if err := checkConfidence(confidence); err != nil {
		return ConfidenceInterval{}, err
	}
	if groupSize < 1 {
		return ConfidenceInterval{}, fmt.Errorf("%w: %d", ErrInvalidGroupSize, groupSize)
	}
	if precision < 0 {
		precision = DefaultPrecision
	}

	mu := d.Mean()
	se := d.StdDev() / math.Sqrt(float64(groupSize))
	norm := distuv.Normal{Mu: mu, Sigma: se}

	alpha := 1.0 - confidence
	lower := mu
	upper := mu
	if se > 0 {
		lower = norm.Quantile(alpha / 2.0)
		upper = norm.Quantile(1.0 - alpha/2.0)
	}

	return ConfidenceInterval{
		Lower:           roundTo(lower, precision),
		Upper:           roundTo(upper, precision),
		Mean:            mu,
		ConfidenceLevel: confidence,
	}, nil
}
