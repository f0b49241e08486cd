package statistics

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ConfidenceInterval holds the result of a confidence interval computation.
// Mean is the exact expected value of the sampled distribution, not a Monte
// Carlo estimate.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Replicates      int     `json:"replicates"`
}

const (
	// DefaultReplicates is the number of bootstrap replicates.
	DefaultReplicates = 10000
	// DefaultWorkers is the number of goroutines replicates are spread over.
	DefaultWorkers = 4
	// DefaultPrecision is the number of decimal places reported bounds are
	// rounded to.
	DefaultPrecision = 2
)

// Options configures a bootstrap run. The zero value is not the default
// configuration; use DefaultOptions.
type Options struct {
	// Replicates is the number of bootstrap replicates R. Non-positive
	// selects DefaultReplicates.
	Replicates int
	// Seed seeds the samplers. Negative selects a crypto-derived seed, making
	// the run non-reproducible.
	Seed int64
	// Workers is the number of goroutines. Non-positive selects
	// DefaultWorkers. Replicates are assigned to workers in contiguous
	// chunks, so results are reproducible only for a fixed worker count.
	Workers int
	// Precision is the number of decimal places for reported bounds.
	// Zero rounds to integers; negative selects DefaultPrecision.
	Precision int
}

// DefaultOptions returns the standard sampler configuration: DefaultReplicates
// replicates on DefaultWorkers workers, a nondeterministic seed, and bounds
// rounded to DefaultPrecision decimal places.
func DefaultOptions() Options {
	return Options{
		Replicates: DefaultReplicates,
		Seed:       -1,
		Workers:    DefaultWorkers,
		Precision:  DefaultPrecision,
	}
}

func (o Options) withDefaults() Options {
	if o.Replicates <= 0 {
		o.Replicates = DefaultReplicates
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Precision < 0 {
		o.Precision = DefaultPrecision
	}
	return o
}

var (
	ErrInvalidGroupSize  = errors.New("group size must be at least 1")
	ErrInvalidConfidence = errors.New("confidence level must be in (0, 1)")
	ErrNoReplicates      = errors.New("no replicate means")
)

// NewSeed returns a non-negative seed drawn from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63)), nil
}

// GroupMeanCI computes the bootstrap percentile confidence interval for the
// average value of a group of groupSize independent draws from d, using
// DefaultOptions.
func GroupMeanCI(d *Distribution, groupSize int, confidence float64) (ConfidenceInterval, error) {
	return GroupMeanCIWithOptions(context.Background(), d, groupSize, confidence, DefaultOptions())
}

// GroupMeanCIWithOptions is like GroupMeanCI with explicit sampler options.
// Identical inputs and an identical (seed, replicates, workers) configuration
// produce identical intervals.
func GroupMeanCIWithOptions(ctx context.Context, d *Distribution, groupSize int, confidence float64, opts Options) (ConfidenceInterval, error) {
	if err := checkConfidence(confidence); err != nil {
		return ConfidenceInterval{}, err
	}

	means, err := BootstrapMeans(ctx, d, groupSize, opts)
	if err != nil {
		return ConfidenceInterval{}, err
	}

	opts = opts.withDefaults()
	lower, upper, err := PercentileInterval(means, confidence, opts.Precision)
	if err != nil {
		return ConfidenceInterval{}, err
	}

	return ConfidenceInterval{
		Lower:           lower,
		Upper:           upper,
		Mean:            d.Mean(),
		ConfidenceLevel: confidence,
		Replicates:      len(means),
	}, nil
}

// DifferenceCI bootstraps the difference between the group mean of a and the
// group mean of b (a minus b) and returns its percentile interval. Each
// replicate draws one group of groupSize from each distribution.
func DifferenceCI(ctx context.Context, a, b *Distribution, groupSize int, confidence float64, opts Options) (ConfidenceInterval, error) {
	if err := checkConfidence(confidence); err != nil {
		return ConfidenceInterval{}, err
	}
	if groupSize < 1 {
		return ConfidenceInterval{}, fmt.Errorf("%w: %d", ErrInvalidGroupSize, groupSize)
	}

	diffs, err := runReplicates(ctx, opts, func(rng *rand.Rand) float64 {
		return groupMean(a, groupSize, rng) - groupMean(b, groupSize, rng)
	})
	if err != nil {
		return ConfidenceInterval{}, err
	}

	opts = opts.withDefaults()
	lower, upper, err := PercentileInterval(diffs, confidence, opts.Precision)
	if err != nil {
		return ConfidenceInterval{}, err
	}

	return ConfidenceInterval{
		Lower:           lower,
		Upper:           upper,
		Mean:            a.Mean() - b.Mean(),
		ConfidenceLevel: confidence,
		Replicates:      len(diffs),
	}, nil
}

// BootstrapMeans draws opts.Replicates groups of groupSize values from d and
// returns the sorted replicate means.
func BootstrapMeans(ctx context.Context, d *Distribution, groupSize int, opts Options) ([]float64, error) {
	if groupSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupSize, groupSize)
	}
	return runReplicates(ctx, opts, func(rng *rand.Rand) float64 {
		return groupMean(d, groupSize, rng)
	})
}

// PercentileInterval returns the bounds of the percentile interval over
// sorted replicate means: the 1-based order statistics at ceil(R*alpha/2)
// and floor(R*(1-alpha/2)), clamped to [1, R], rounded to precision decimal
// places.
func PercentileInterval(sortedMeans []float64, confidence float64, precision int) (float64, float64, error) {
	if err := checkConfidence(confidence); err != nil {
		return 0, 0, err
	}
	if len(sortedMeans) == 0 {
		return 0, 0, ErrNoReplicates
	}

	r := float64(len(sortedMeans))
	alpha := 1.0 - confidence
	lo := int(math.Ceil(alpha / 2.0 * r))
	hi := int(math.Floor((1.0 - alpha/2.0) * r))
	if lo < 1 {
		lo = 1
	}
	if hi > len(sortedMeans) {
		hi = len(sortedMeans)
	}
	if hi < lo {
		hi = lo
	}

	return roundTo(sortedMeans[lo-1], precision), roundTo(sortedMeans[hi-1], precision), nil
}

// IsSignificant returns true if the confidence interval does not contain
// zero. Meaningful for difference intervals: a significant DifferenceCI
// means the two distributions' group means differ at the interval's
// confidence level.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.Lower > 0 || ci.Upper < 0
}

// runReplicates evaluates the replicate statistic opts.Replicates times,
// fanned out over opts.Workers goroutines in contiguous chunks. Worker w owns
// an RNG seeded seed+w, so no RNG state is shared and a fixed configuration
// replays the exact draw sequence. Cancellation is honored between
// replicates.
func runReplicates(ctx context.Context, opts Options, replicate func(rng *rand.Rand) float64) ([]float64, error) {
	opts = opts.withDefaults()

	seed := opts.Seed
	if seed < 0 {
		s, err := NewSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}

	workers := opts.Workers
	if workers > opts.Replicates {
		workers = opts.Replicates
	}
	slog.Debug("bootstrap run", "replicates", opts.Replicates, "workers", workers, "seed", seed)

	means := make([]float64, opts.Replicates)
	chunk := (opts.Replicates + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > opts.Replicates {
			end = opts.Replicates
		}
		if start >= end {
			break
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				means[i] = replicate(rng)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Float64s(means)
	return means, nil
}

func groupMean(d *Distribution, groupSize int, rng *rand.Rand) float64 {
	sum := 0.0
	for j := 0; j < groupSize; j++ {
		sum += d.Sample(rng)
	}
	return sum / float64(groupSize)
}

func checkConfidence(confidence float64) error {
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}
	return nil
}

func roundTo(x float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(x*scale) / scale
}
