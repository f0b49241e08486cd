package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/reporting"
	"github.com/gradestat/gradestat/internal/spinner"
	"github.com/gradestat/gradestat/internal/statistics"
)

// startSpinner is a test hook for replacing the spinner in tests.
var startSpinner = spinner.Start

var (
	intervalGroupSize  int
	intervalConfidence float64
	intervalReplicates int
	intervalSeed       int64
	intervalWorkers    int
	intervalPrecision  int
	intervalNormal     bool
	intervalJSON       bool
	intervalDump       string
	intervalDB         string
)

// intervalOutput is the machine-readable form of the interval command output.
type intervalOutput struct {
	ID           string                          `json:"id"`
	GroupSize    int                             `json:"group_size"`
	Interval     statistics.ConfidenceInterval   `json:"interval"`
	NormalApprox *statistics.ConfidenceInterval  `json:"normal_approx,omitempty"`
	Commentary   string                          `json:"commentary"`
	Dump         string                          `json:"dump,omitempty"`
}

func newIntervalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interval <file|id>",
		Short: "Bootstrap a confidence interval for a group's average grade",
		Long: `Interval estimates, by Monte Carlo bootstrap, the percentile confidence
interval for the average grade of a group of --n candidates drawn from the
subject's world distribution. A fixed --seed makes the run reproducible for
the same replicate and worker counts.

With --normal, the central-limit reference interval is printed next to the
bootstrap interval as a diagnostic. With --dump, the sorted replicate means
are written as a one-column CSV; a .gz suffix selects gzip compression.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterval(cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&intervalGroupSize, "n", 0, "Group size (required)")
	cmd.Flags().Float64Var(&intervalConfidence, "confidence", 0, "Confidence level in (0,1) (default from .gradestat.yaml)")
	cmd.Flags().IntVar(&intervalReplicates, "replicates", 0, "Bootstrap replicates (default from .gradestat.yaml)")
	cmd.Flags().Int64Var(&intervalSeed, "seed", -1, "Sampler seed; negative draws a random seed")
	cmd.Flags().IntVar(&intervalWorkers, "workers", 0, "Sampler goroutines (default from .gradestat.yaml)")
	cmd.Flags().IntVar(&intervalPrecision, "precision", statistics.DefaultPrecision, "Decimal places for interval bounds; 0 rounds to integers")
	cmd.Flags().BoolVar(&intervalNormal, "normal", false, "Also print the normal-approximation reference interval")
	cmd.Flags().BoolVar(&intervalJSON, "json", false, "Emit JSON instead of text")
	cmd.Flags().StringVar(&intervalDump, "dump", "", "Write sorted replicate means to this CSV path (.gz compresses)")
	cmd.Flags().StringVar(&intervalDB, "db", "", "Subject database path (default from .gradestat.yaml)")

	return cmd
}

func runInterval(cmd *cobra.Command, arg string) error {
	if intervalGroupSize < 1 {
		return fmt.Errorf("group size --n must be a positive integer")
	}

	cfg, err := loadSettings(intervalDB)
	if err != nil {
		return err
	}
	f, err := resolveBulletin(arg, cfg.Store.Path)
	if err != nil {
		return err
	}
	s, err := f.ToSubject()
	if err != nil {
		return err
	}

	confidence := intervalConfidence
	if confidence == 0 {
		confidence = cfg.Bootstrap.Confidence
	}

	opts := cfg.BootstrapOptions(intervalSeed)
	if intervalReplicates > 0 {
		opts.Replicates = intervalReplicates
	}
	if intervalWorkers > 0 {
		opts.Workers = intervalWorkers
	}
	if cmd.Flags().Changed("precision") {
		opts.Precision = intervalPrecision
	}

	out := intervalOutput{ID: s.ID(), GroupSize: intervalGroupSize}

	stopSpinner := startSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Bootstrapping %d replicates...", opts.Replicates))
	if intervalDump != "" {
		means, err := statistics.BootstrapMeans(cmd.Context(), s.GradeDistribution(), intervalGroupSize, opts)
		stopSpinner()
		if err != nil {
			return err
		}
		lower, upper, err := statistics.PercentileInterval(means, confidence, opts.Precision)
		if err != nil {
			return err
		}
		out.Interval = statistics.ConfidenceInterval{
			Lower:           lower,
			Upper:           upper,
			Mean:            s.GradeDistribution().Mean(),
			ConfidenceLevel: confidence,
			Replicates:      len(means),
		}
		if err := writeReplicates(intervalDump, means); err != nil {
			return err
		}
		out.Dump = intervalDump
	} else {
		ci, err := s.AverageGradeIntervalWithOptions(cmd.Context(), intervalGroupSize, confidence, opts)
		stopSpinner()
		if err != nil {
			return err
		}
		out.Interval = ci
	}

	if intervalNormal {
		normal, err := s.NormalApproxInterval(intervalGroupSize, confidence, opts.Precision)
		if err != nil {
			return err
		}
		out.NormalApprox = &normal
	}
	out.Commentary = reporting.InterpretInterval(out.Interval, intervalGroupSize)

	if intervalJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printInterval(cmd, s.Name(), s.Level(), out)
	return nil
}

func printInterval(cmd *cobra.Command, name, level string, out intervalOutput) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s\n", subjectTitle(name, level))
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "  %-18s %d\n", "Group size", out.GroupSize)
	fmt.Fprintf(w, "  %-18s %g%%\n", "Confidence", out.Interval.ConfidenceLevel*100)
	fmt.Fprintf(w, "  %-18s %d\n", "Replicates", out.Interval.Replicates)
	fmt.Fprintf(w, "  %-18s %.4f\n", "Mean grade", out.Interval.Mean)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-18s [%g, %g]\n", "Bootstrap", out.Interval.Lower, out.Interval.Upper)
	if out.NormalApprox != nil {
		fmt.Fprintf(w, "  %-18s [%g, %g]  (reference)\n", "Normal approx", out.NormalApprox.Lower, out.NormalApprox.Upper)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", out.Commentary)
	if out.Dump != "" {
		fmt.Fprintf(w, "  Replicate means written to %s\n", out.Dump)
	}
	fmt.Fprintln(w)
}

// writeReplicates writes means as a one-column CSV at path. A .gz suffix
// selects gzip compression.
func writeReplicates(path string, means []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}()
		w = gz
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"replicate_mean"}); err != nil {
		return err
	}
	for _, m := range means {
		if err := cw.Write([]string{strconv.FormatFloat(m, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
