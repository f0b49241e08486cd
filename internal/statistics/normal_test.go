package statistics

import (
	"errors"
	"math"
	"testing"
)

func TestNormalApprox_WorkedExample(t *testing.T) {
	// mean 5.245, sd 1.3057...; for n=20 the 95% CLT interval is
	// 5.245 ± 1.96 * sd/sqrt(20) = (4.6727, 5.8173).
	ci, err := NormalApprox(gradeDist(t), 20, 0.95, 2)
	if err != nil {
		t.Fatalf("NormalApprox() error: %v", err)
	}

	if ci.Lower != 4.67 {
		t.Errorf("Lower = %v, want 4.67", ci.Lower)
	}
	if ci.Upper != 5.82 {
		t.Errorf("Upper = %v, want 5.82", ci.Upper)
	}
	if math.Abs(ci.Mean-5.245) > 1e-9 {
		t.Errorf("Mean = %v, want 5.245", ci.Mean)
	}
	if ci.Replicates != 0 {
		t.Errorf("Replicates = %d, want 0 for an analytic interval", ci.Replicates)
	}
}

func TestNormalApprox_ShrinksWithGroupSize(t *testing.T) {
	d := gradeDist(t)

	small, err := NormalApprox(d, 5, 0.95, 6)
	if err != nil {
		t.Fatalf("n=5: %v", err)
	}
	large, err := NormalApprox(d, 500, 0.95, 6)
	if err != nil {
		t.Fatalf("n=500: %v", err)
	}

	if large.Upper-large.Lower >= small.Upper-small.Lower {
		t.Errorf("interval should shrink with group size: n=5 width %v, n=500 width %v",
			small.Upper-small.Lower, large.Upper-large.Lower)
	}
}

func TestNormalApprox_DegenerateDistribution(t *testing.T) {
	d, err := NewDistribution([]float64{5}, []float64{1})
	if err != nil {
		t.Fatalf("NewDistribution() error: %v", err)
	}

	ci, err := NormalApprox(d, 10, 0.95, 2)
	if err != nil {
		t.Fatalf("NormalApprox() error: %v", err)
	}
	if ci.Lower != 5 || ci.Upper != 5 {
		t.Errorf("degenerate interval = (%v, %v), want (5, 5)", ci.Lower, ci.Upper)
	}
}

func TestNormalApprox_ArgumentErrors(t *testing.T) {
	d := gradeDist(t)

	_, err := NormalApprox(d, 0, 0.95, 2)
	if !errors.Is(err, ErrInvalidGroupSize) {
		t.Errorf("group size 0 error = %v, want ErrInvalidGroupSize", err)
	}

	_, err = NormalApprox(d, 10, 1.0, 2)
	if !errors.Is(err, ErrInvalidConfidence) {
		t.Errorf("confidence 1.0 error = %v, want ErrInvalidConfidence", err)
	}
}
