package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/reporting"
	"github.com/gradestat/gradestat/internal/statistics"
)

var (
	compareOutputFormat string
	compareGroupSize    int
	compareConfidence   float64
	compareReplicates   int
	compareSeed         int64
	compareDB           string
)

// comparisonSubject is one side of a comparison.
type comparisonSubject struct {
	ID           string                        `json:"id"`
	Name         string                        `json:"name"`
	Level        string                        `json:"level,omitempty"`
	ScaledMean   float64                       `json:"scaled_mean"`
	ScaledStdDev float64                       `json:"scaled_std_dev"`
	GradeMean    float64                       `json:"grade_mean"`
	GradeStdDev  float64                       `json:"grade_std_dev"`
	Interval     statistics.ConfidenceInterval `json:"interval"`
}

// comparisonReport holds both subjects plus the bootstrap verdict on the
// difference of their group mean grades.
type comparisonReport struct {
	Subjects       [2]comparisonSubject          `json:"subjects"`
	GroupSize      int                           `json:"group_size"`
	Confidence     float64                       `json:"confidence"`
	GradeMeanDelta float64                       `json:"grade_mean_delta"`
	Difference     statistics.ConfidenceInterval `json:"difference_interval"`
	Significant    bool                          `json:"significant"`
	Verdict        string                        `json:"verdict"`
}

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file|id> <file|id>",
		Short: "Compare two subjects' grade statistics",
		Long: `Compare prints both subjects' moments and group intervals side by side,
then bootstraps the difference of their group mean grades (first minus
second). A difference interval that excludes zero is reported as a
significant gap at the configured confidence level.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")
	cmd.Flags().IntVar(&compareGroupSize, "n", 20, "Group size for the interval estimates")
	cmd.Flags().Float64Var(&compareConfidence, "confidence", 0, "Confidence level in (0,1) (default from .gradestat.yaml)")
	cmd.Flags().IntVar(&compareReplicates, "replicates", 0, "Bootstrap replicates (default from .gradestat.yaml)")
	cmd.Flags().Int64Var(&compareSeed, "seed", -1, "Sampler seed; negative draws a random seed")
	cmd.Flags().StringVar(&compareDB, "db", "", "Subject database path (default from .gradestat.yaml)")

	return cmd
}

func runCompare(cmd *cobra.Command, argA, argB string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("unsupported format %q: expected table or json", compareOutputFormat)
	}

	cfg, err := loadSettings(compareDB)
	if err != nil {
		return err
	}

	fa, err := resolveBulletin(argA, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", argA, err)
	}
	fb, err := resolveBulletin(argB, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", argB, err)
	}

	confidence := compareConfidence
	if confidence == 0 {
		confidence = cfg.Bootstrap.Confidence
	}
	opts := cfg.BootstrapOptions(compareSeed)
	if compareReplicates > 0 {
		opts.Replicates = compareReplicates
	}

	stopSpinner := startSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Bootstrapping %d replicates...", opts.Replicates))
	report, err := buildComparisonReport(cmd.Context(), fa, fb, compareGroupSize, confidence, opts)
	stopSpinner()
	if err != nil {
		return err
	}

	if compareOutputFormat == "json" {
		return printComparisonJSON(report)
	}
	printComparisonTable(report)
	return nil
}

// buildComparisonReport computes both subjects' summaries and the bootstrap
// interval for the difference of their group mean grades.
func buildComparisonReport(ctx context.Context, fa, fb *bulletin.File, groupSize int, confidence float64, opts statistics.Options) (*comparisonReport, error) {
	if groupSize < 1 {
		return nil, fmt.Errorf("group size --n must be a positive integer")
	}

	report := &comparisonReport{
		GroupSize:  groupSize,
		Confidence: confidence,
	}
	var dists [2]*statistics.Distribution
	for i, f := range []*bulletin.File{fa, fb} {
		s, err := f.ToSubject()
		if err != nil {
			return nil, err
		}
		ci, err := s.AverageGradeIntervalWithOptions(ctx, groupSize, confidence, opts)
		if err != nil {
			return nil, err
		}
		dist := s.GradeDistribution()
		dists[i] = dist
		report.Subjects[i] = comparisonSubject{
			ID:           s.ID(),
			Name:         s.Name(),
			Level:        s.Level(),
			ScaledMean:   s.ScaledMean(),
			ScaledStdDev: s.ScaledStdDev(),
			GradeMean:    dist.Mean(),
			GradeStdDev:  dist.StdDev(),
			Interval:     ci,
		}
	}

	diff, err := statistics.DifferenceCI(ctx, dists[0], dists[1], groupSize, confidence, opts)
	if err != nil {
		return nil, err
	}
	report.GradeMeanDelta = dists[0].Mean() - dists[1].Mean()
	report.Difference = diff
	report.Significant = statistics.IsSignificant(diff)
	report.Verdict = reporting.InterpretSignificance(diff)
	return report, nil
}

func printComparisonTable(r *comparisonReport) {
	a, b := r.Subjects[0], r.Subjects[1]

	// Header
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println(" SUBJECT COMPARISON")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()

	fmt.Printf("  [1] %s  (%s)\n", subjectTitle(a.Name, a.Level), a.ID)
	fmt.Printf("  [2] %s  (%s)\n", subjectTitle(b.Name, b.Level), b.ID)
	fmt.Println()

	// Moments
	fmt.Println(strings.Repeat("-", 70))
	fmt.Println(" MOMENTS")
	fmt.Println(strings.Repeat("-", 70))

	fmt.Printf("  %-20s  [1]        [2]        Delta\n", "Metric")
	printMetricRow("Scaled mean", a.ScaledMean, b.ScaledMean)
	printMetricRow("Scaled std dev", a.ScaledStdDev, b.ScaledStdDev)
	printMetricRow("Grade mean", a.GradeMean, b.GradeMean)
	printMetricRow("Grade std dev", a.GradeStdDev, b.GradeStdDev)
	fmt.Println()

	// Intervals
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf(" GROUP OF %d AT %.0f%% CONFIDENCE\n", r.GroupSize, r.Confidence*100)
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("  %-20s  [%g, %g]\n", "[1] average grade", a.Interval.Lower, a.Interval.Upper)
	fmt.Printf("  %-20s  [%g, %g]\n", "[2] average grade", b.Interval.Lower, b.Interval.Upper)
	fmt.Printf("  %-20s  [%g, %g]\n", "[1]-[2] difference", r.Difference.Lower, r.Difference.Upper)
	fmt.Println()
	fmt.Printf("  %s\n", r.Verdict)
	fmt.Println()
}

func printMetricRow(name string, va, vb float64) {
	delta := va - vb
	deltaIcon := " "
	if delta > 0 {
		deltaIcon = "↑"
	} else if delta < 0 {
		deltaIcon = "↓"
	}
	fmt.Printf("  %-20s  %-9.4f  %-9.4f  %s%+.4f\n", name, va, vb, deltaIcon, delta)
}

func printComparisonJSON(r *comparisonReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
