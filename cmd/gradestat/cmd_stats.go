package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/reporting"
)

var (
	statsJSON bool
	statsDB   string
)

// statsOutput is the machine-readable form of the stats command output.
type statsOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Level        string   `json:"level,omitempty"`
	Grades       int      `json:"grades"`
	ScaledMean   float64  `json:"scaled_mean"`
	ScaledStdDev float64  `json:"scaled_std_dev"`
	GradeMean    float64  `json:"grade_mean"`
	GradeStdDev  float64  `json:"grade_std_dev"`
	Mark         *float64 `json:"mark,omitempty"`
	ZScore       *float64 `json:"z_score,omitempty"`
	Commentary   string   `json:"commentary,omitempty"`
}

func newStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file|id>",
		Short: "Print scaled-mark and grade moments for a subject",
		Long: `Stats estimates the subject's scaled-mark mean and standard deviation from
the published boundary and distribution tables, along with the grade-domain
moments. With --mark, the given scaled mark is standardized against the
world distribution and reported as a z-score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0])
		},
	}

	cmd.Flags().Float64("mark", 0, "Scaled mark to standardize as a z-score")
	cmd.Flags().BoolVar(&statsJSON, "json", false, "Emit JSON instead of text")
	cmd.Flags().StringVar(&statsDB, "db", "", "Subject database path (default from .gradestat.yaml)")

	return cmd
}

func runStats(cmd *cobra.Command, arg string) error {
	cfg, err := loadSettings(statsDB)
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

	dist := s.GradeDistribution()
	out := statsOutput{
		ID:           s.ID(),
		Name:         s.Name(),
		Level:        s.Level(),
		Grades:       dist.Len(),
		ScaledMean:   s.ScaledMean(),
		ScaledStdDev: s.ScaledStdDev(),
		GradeMean:    dist.Mean(),
		GradeStdDev:  dist.StdDev(),
	}

	if cmd.Flags().Changed("mark") {
		mark, err := cmd.Flags().GetFloat64("mark")
		if err != nil {
			return err
		}
		z, err := s.ZScore(mark)
		if err != nil {
			return err
		}
		out.Mark = &mark
		out.ZScore = &z
		out.Commentary = reporting.InterpretZScore(z)
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printStats(cmd, out)
	return nil
}

// subjectTitle joins a subject name and level for display headers.
func subjectTitle(name, level string) string {
	if level == "" {
		return name
	}
	return name + " " + level
}

func printStats(cmd *cobra.Command, out statsOutput) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s\n", subjectTitle(out.Name, out.Level))
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "  %-18s %s\n", "Subject id", out.ID)
	fmt.Fprintf(w, "  %-18s %d\n", "Grades", out.Grades)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-18s %9.4f\n", "Scaled mean", out.ScaledMean)
	fmt.Fprintf(w, "  %-18s %9.4f\n", "Scaled std dev", out.ScaledStdDev)
	fmt.Fprintf(w, "  %-18s %9.4f\n", "Grade mean", out.GradeMean)
	fmt.Fprintf(w, "  %-18s %9.4f\n", "Grade std dev", out.GradeStdDev)

	if out.ZScore != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %-18s %9.4f\n", fmt.Sprintf("z(%g)", *out.Mark), *out.ZScore)
		fmt.Fprintf(w, "  %s\n", out.Commentary)
	}
	fmt.Fprintln(w)
}
