// Package reporting turns derived subject statistics into plain-language
// interpretations and rendered reports.
package reporting

import (
	"fmt"

	"github.com/gradestat/gradestat/internal/statistics"
)

// InterpretZScore returns a plain-language label for a standardized mark.
func InterpretZScore(z float64) string {
	switch {
	case z >= 2:
		return fmt.Sprintf("Far above the world mean (%+.2f standard deviations)", z)
	case z >= 0.5:
		return fmt.Sprintf("Above the world mean (%+.2f standard deviations)", z)
	case z > -0.5:
		return fmt.Sprintf("Close to the world mean (%+.2f standard deviations)", z)
	case z > -2:
		return fmt.Sprintf("Below the world mean (%+.2f standard deviations)", z)
	default:
		return fmt.Sprintf("Far below the world mean (%+.2f standard deviations)", z)
	}
}

// InterpretInterval phrases a group-average interval as one sentence.
func InterpretInterval(ci statistics.ConfidenceInterval, groupSize int) string {
	return fmt.Sprintf("A group of %d candidates averages between %g and %g (%.0f%% confidence, %d replicates)",
		groupSize, ci.Lower, ci.Upper, ci.ConfidenceLevel*100, ci.Replicates)
}

// InterpretSignificance explains a difference interval between two subjects'
// group averages (first minus second).
func InterpretSignificance(ci statistics.ConfidenceInterval) string {
	if !statistics.IsSignificant(ci) {
		return fmt.Sprintf("No significant difference: the interval [%g, %g] contains zero", ci.Lower, ci.Upper)
	}
	if ci.Lower > 0 {
		return fmt.Sprintf("Significant difference: the first subject's group average is higher (interval [%g, %g] excludes zero)", ci.Lower, ci.Upper)
	}
	return fmt.Sprintf("Significant difference: the first subject's group average is lower (interval [%g, %g] excludes zero)", ci.Lower, ci.Upper)
}
