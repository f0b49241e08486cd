// Package subject models an examined subject's published results: the raw
// scaled-mark band awarded to each grade and the proportion of candidates
// world-wide earning it. From those two tables it derives scaled-mark
// moments, z-scores and bootstrap confidence intervals for group averages.
package subject

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gradestat/gradestat/internal/grade"
	"github.com/gradestat/gradestat/internal/statistics"
)

var (
	// ErrGradeMismatch indicates the boundary and distribution tables do not
	// cover the same set of grades.
	ErrGradeMismatch = errors.New("boundary and distribution grades differ")

	// ErrInvalidBand indicates a mark band with Low > High or Low < 0.
	ErrInvalidBand = errors.New("invalid mark band")

	// ErrNegativeProbability indicates a distribution entry below zero.
	ErrNegativeProbability = errors.New("negative probability")

	// ErrProbabilitySum indicates the distribution is too far from summing
	// to one to be renormalized.
	ErrProbabilitySum = errors.New("probabilities do not sum to 1")

	// ErrDegenerateDistribution indicates all probability mass sits on a
	// single mark, so z-scores are undefined.
	ErrDegenerateDistribution = errors.New("scaled-mark standard deviation is zero")
)

// ProbabilitySumTolerance is how far a published distribution may drift from
// summing to exactly 1 before construction fails. Sums inside the tolerance
// are renormalized so downstream arithmetic sees exact probabilities.
const ProbabilitySumTolerance = 0.01

// Band is the inclusive integer scaled-mark range awarded a single grade.
type Band struct {
	Low  int `yaml:"low" json:"low"`
	High int `yaml:"high" json:"high"`
}

// Width returns the number of distinct integer marks inside the band.
func (b Band) Width() int {
	return b.High - b.Low + 1
}

// Subject is an immutable examined subject. Construct with New; the zero
// value is not usable.
type Subject struct {
	id    string
	name  string
	level string

	scale *grade.Scale
	bands map[string]Band
	probs map[string]float64

	dist *statistics.Distribution

	once sync.Once
	mean float64
	sd   float64
}

// New validates the boundary and distribution tables and builds a Subject.
// Grade labels must be numeric, the two tables must cover the same grades,
// every band needs 0 <= Low <= High, probabilities must be non-negative and
// sum to 1 within ProbabilitySumTolerance. The stored distribution is
// renormalized to sum to exactly 1.
func New(id, name, level string, bands map[string]Band, dist map[string]float64) (*Subject, error) {
	if len(bands) != len(dist) {
		return nil, fmt.Errorf("%w: %d boundary grades, %d distribution grades", ErrGradeMismatch, len(bands), len(dist))
	}
	labels := make([]string, 0, len(bands))
	for label := range bands {
		if _, ok := dist[label]; !ok {
			return nil, fmt.Errorf("%w: grade %q has no distribution entry", ErrGradeMismatch, label)
		}
		labels = append(labels, label)
	}

	scale, err := grade.ParseScale(labels)
	if err != nil {
		return nil, err
	}

	for label, b := range bands {
		if b.Low < 0 || b.Low > b.High {
			return nil, fmt.Errorf("%w: grade %q has range [%d, %d]", ErrInvalidBand, label, b.Low, b.High)
		}
	}

	total := 0.0
	for label, p := range dist {
		if p < 0 {
			return nil, fmt.Errorf("%w: %v for grade %q", ErrNegativeProbability, p, label)
		}
		total += p
	}
	if math.Abs(total-1) > ProbabilitySumTolerance {
		return nil, fmt.Errorf("%w: sum is %v", ErrProbabilitySum, total)
	}

	bandsCopy := make(map[string]Band, len(bands))
	probs := make(map[string]float64, len(dist))
	for label, b := range bands {
		bandsCopy[label] = b
		probs[label] = dist[label] / total
	}

	orderedProbs := make([]float64, 0, scale.Len())
	for _, g := range scale.Grades() {
		orderedProbs = append(orderedProbs, probs[g.Label])
	}
	gradeDist, err := statistics.NewDistribution(scale.Values(), orderedProbs)
	if err != nil {
		return nil, err
	}

	return &Subject{
		id:    id,
		name:  name,
		level: level,
		scale: scale,
		bands: bandsCopy,
		probs: probs,
		dist:  gradeDist,
	}, nil
}

// ID returns the subject's identifier.
func (s *Subject) ID() string { return s.id }

// Name returns the subject's display name.
func (s *Subject) Name() string { return s.name }

// Level returns the course level, e.g. "HL" or "SL".
func (s *Subject) Level() string { return s.level }

// Scale returns the subject's grade scale.
func (s *Subject) Scale() *grade.Scale { return s.scale }

// Bands returns a copy of the per-grade mark bands.
func (s *Subject) Bands() map[string]Band {
	out := make(map[string]Band, len(s.bands))
	for label, b := range s.bands {
		out[label] = b
	}
	return out
}

// Distribution returns a copy of the renormalized per-grade probabilities.
func (s *Subject) Distribution() map[string]float64 {
	out := make(map[string]float64, len(s.probs))
	for label, p := range s.probs {
		out[label] = p
	}
	return out
}

// GradeDistribution returns the categorical distribution over numeric grade
// values, as used by the bootstrap samplers.
func (s *Subject) GradeDistribution() *statistics.Distribution {
	return s.dist
}
