package subject

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/gradestat/gradestat/internal/statistics"
)

// moments derives the scaled-mark mean and standard deviation under the
// two-stage model: a candidate earns a grade with its published probability,
// then lands uniformly on one of the integer marks inside that grade's band.
// The variance combines the within-band discrete-uniform variance with the
// spread of the band midpoints (law of total variance). Computed once and
// memoized.
func (s *Subject) moments() (mean, sd float64) {
	s.once.Do(func() {
		n := s.scale.Len()
		mids := make([]float64, 0, n)
		vars := make([]float64, 0, n)
		probs := make([]float64, 0, n)
		for _, g := range s.scale.Grades() {
			b := s.bands[g.Label]
			width := float64(b.Width())
			mids = append(mids, float64(b.Low+b.High)/2)
			vars = append(vars, (width*width-1)/12)
			probs = append(probs, s.probs[g.Label])
		}

		mu := stat.Mean(mids, probs)
		variance := 0.0
		for i := range mids {
			dev := mids[i] - mu
			variance += probs[i] * (vars[i] + dev*dev)
		}

		s.mean = mu
		s.sd = math.Sqrt(variance)
	})
	return s.mean, s.sd
}

// ScaledMean returns the expected scaled mark for a random candidate.
func (s *Subject) ScaledMean() float64 {
	mean, _ := s.moments()
	return mean
}

// ScaledStdDev returns the scaled-mark standard deviation.
func (s *Subject) ScaledStdDev() float64 {
	_, sd := s.moments()
	return sd
}

// ZScore converts a scaled mark to standard deviations above the subject
// mean. Returns ErrDegenerateDistribution when the standard deviation is
// zero.
func (s *Subject) ZScore(mark float64) (float64, error) {
	mean, sd := s.moments()
	if sd == 0 {
		return 0, fmt.Errorf("%w: subject %q", ErrDegenerateDistribution, s.id)
	}
	return (mark - mean) / sd, nil
}

// AverageGradeInterval bootstraps a percentile confidence interval for the
// average numeric grade of a group of groupSize candidates, using the
// default bootstrap options.
func (s *Subject) AverageGradeInterval(ctx context.Context, groupSize int, confidence float64) (statistics.ConfidenceInterval, error) {
	return statistics.GroupMeanCIWithOptions(ctx, s.dist, groupSize, confidence, statistics.DefaultOptions())
}

// AverageGradeIntervalWithOptions is AverageGradeInterval with explicit
// bootstrap options for callers that need a fixed seed, replicate count,
// worker count or rounding precision.
func (s *Subject) AverageGradeIntervalWithOptions(ctx context.Context, groupSize int, confidence float64, opts statistics.Options) (statistics.ConfidenceInterval, error) {
	return statistics.GroupMeanCIWithOptions(ctx, s.dist, groupSize, confidence, opts)
}

// NormalApproxInterval returns the closed-form CLT interval for the same
// group average, for cross-checking bootstrap output.
func (s *Subject) NormalApproxInterval(groupSize int, confidence float64, precision int) (statistics.ConfidenceInterval, error) {
	return statistics.NormalApprox(s.dist, groupSize, confidence, precision)
}

// SampleGrades draws n grade labels from the subject's distribution. A
// negative seed selects a fresh crypto-derived seed; any other value makes
// the draw reproducible.
func (s *Subject) SampleGrades(n int, seed int64) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", statistics.ErrInvalidGroupSize, n)
	}
	if seed < 0 {
		var err error
		seed, err = statistics.NewSeed()
		if err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(seed))
	labels := make([]string, n)
	for i := range labels {
		g, ok := s.scale.GradeForValue(s.dist.Sample(rng))
		if !ok {
			return nil, fmt.Errorf("sampled value outside grade scale for subject %q", s.id)
		}
		labels[i] = g.Label
	}
	return labels, nil
}
