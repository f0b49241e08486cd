// Package wizard collects a new subject table through an interactive form.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/subject"
)

// GradeSpec is one grade row: its label, mark band, and share of candidates.
type GradeSpec struct {
	Label       string
	Band        subject.Band
	Probability float64
}

// SubjectSpec holds all fields collected during the interactive wizard.
type SubjectSpec struct {
	ID     string
	Name   string
	Level  string
	Grades []GradeSpec
}

// File converts the collected spec into a bulletin file.
func (s *SubjectSpec) File() *bulletin.File {
	f := &bulletin.File{
		ID:           s.ID,
		Name:         s.Name,
		Level:        s.Level,
		Boundaries:   make(map[string]subject.Band, len(s.Grades)),
		Distribution: make(map[string]float64, len(s.Grades)),
	}
	for _, g := range s.Grades {
		f.Boundaries[g.Label] = g.Band
		f.Distribution[g.Label] = g.Probability
	}
	return f
}

// Run collects a complete subject table through two interactive forms: one
// for the subject's identity and grade labels, one for the per-grade bands
// and shares. If initialID is non-empty, it pre-populates the ID field.
func Run(in io.Reader, out io.Writer, initialID string) (*SubjectSpec, error) {
	var (
		id        = initialID
		name      string
		level     string
		labelsRaw = "1,2,3,4,5,6,7"
	)

	identity := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subject ID").
				Description("A short identifier for files and lookups").
				Placeholder("econ-hl").
				Value(&id).
				Validate(validateID),
			huh.NewInput().
				Title("Subject name").
				Placeholder("Economics").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Level").
				Description("Optional, e.g. HL or SL").
				Value(&level),
			huh.NewInput().
				Title("Grades").
				Description("Comma-separated grade labels, lowest first").
				Value(&labelsRaw).
				Validate(func(s string) error {
					_, err := parseLabels(s)
					return err
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	if err := runForm(identity, in); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	labels, err := parseLabels(labelsRaw)
	if err != nil {
		return nil, err
	}

	bandsRaw := make([]string, len(labels))
	sharesRaw := make([]string, len(labels))
	fields := make([]huh.Field, 0, 2*len(labels))
	for i, label := range labels {
		fields = append(fields,
			huh.NewInput().
				Title(fmt.Sprintf("Mark band for grade %s", label)).
				Description("low-high, inclusive").
				Placeholder("55-64").
				Value(&bandsRaw[i]).
				Validate(func(s string) error {
					_, err := ParseBand(s)
					return err
				}),
			huh.NewInput().
				Title(fmt.Sprintf("Share of candidates with grade %s", label)).
				Description("A fraction or a percentage").
				Placeholder("0.20").
				Value(&sharesRaw[i]).
				Validate(func(s string) error {
					_, err := ParseShare(s)
					return err
				}),
		)
	}

	tables := huh.NewForm(huh.NewGroup(fields...)).
		WithInput(in).
		WithOutput(out)

	if err := runForm(tables, in); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	spec := &SubjectSpec{
		ID:    strings.TrimSpace(id),
		Name:  strings.TrimSpace(name),
		Level: strings.TrimSpace(level),
	}
	for i, label := range labels {
		band, err := ParseBand(bandsRaw[i])
		if err != nil {
			return nil, fmt.Errorf("grade %s: %w", label, err)
		}
		share, err := ParseShare(sharesRaw[i])
		if err != nil {
			return nil, fmt.Errorf("grade %s: %w", label, err)
		}
		spec.Grades = append(spec.Grades, GradeSpec{Label: label, Band: band, Probability: share})
	}

	if err := spec.File().Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// runForm runs a form, switching to accessible mode for non-TTY input
// (e.g. tests, piped input).
func runForm(form *huh.Form, in io.Reader) error {
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}
	return form.Run()
}

// ParseBand parses "low-high" into an inclusive mark band. A bare number is
// a one-mark band.
func ParseBand(s string) (subject.Band, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return subject.Band{}, fmt.Errorf("band is required")
	}

	lowRaw, highRaw, found := strings.Cut(s, "-")
	if !found {
		n, err := strconv.Atoi(lowRaw)
		if err != nil || n < 0 {
			return subject.Band{}, fmt.Errorf("bad band %q: use low-high", s)
		}
		return subject.Band{Low: n, High: n}, nil
	}

	low, err := strconv.Atoi(strings.TrimSpace(lowRaw))
	if err != nil {
		return subject.Band{}, fmt.Errorf("bad band %q: use low-high", s)
	}
	high, err := strconv.Atoi(strings.TrimSpace(highRaw))
	if err != nil {
		return subject.Band{}, fmt.Errorf("bad band %q: use low-high", s)
	}
	if low < 0 || high < low {
		return subject.Band{}, fmt.Errorf("bad band %q: low must not exceed high", s)
	}
	return subject.Band{Low: low, High: high}, nil
}

// ParseShare parses a probability, accepting either a fraction or a
// percentage ("0.2" and "20%" are the same share).
func ParseShare(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("share is required")
	}
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return 0, fmt.Errorf("bad share %q", s)
	}
	if percent {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("share %v outside [0, 1]", v)
	}
	return v, nil
}

func validateID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("id is required")
	}
	if strings.ContainsAny(s, " \t/") {
		return fmt.Errorf("id must not contain spaces or slashes")
	}
	return nil
}

func parseLabels(s string) ([]string, error) {
	var labels []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one grade is required")
	}
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return nil, fmt.Errorf("duplicate grade %q", l)
		}
		seen[l] = true
	}
	return labels, nil
}
