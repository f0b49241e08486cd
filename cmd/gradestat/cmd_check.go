package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gradestat/gradestat/internal/bulletin"
	"github.com/gradestat/gradestat/internal/reporting"
	"github.com/gradestat/gradestat/internal/subject"
	"github.com/gradestat/gradestat/internal/validation"
)

// writer keeps the print helpers terse.
type writer = interface{ Write([]byte) (int, error) }

const (
	statusOK   = "✅"
	statusWarn = "⚠️"
	statusBad  = "❌"
)

// checkReport is the machine-readable form of the check command output.
type checkReport struct {
	Checked int         `json:"checked"`
	Valid   int         `json:"valid"`
	Invalid int         `json:"invalid"`
	Files   []checkFile `json:"files"`
}

// checkFile is the verdict for one bulletin file.
type checkFile struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file...>",
		Short: "Validate bulletin files against the schema and semantic rules",
		Long: `Check validates each bulletin file twice: first against the JSON schema
(shape, types, required fields), then semantically (matching grade tables,
usable bands, a distribution that sums to 1). Marks no band covers are
reported as warnings; they do not fail the file.

Exit code is 1 when any file is invalid, 2 on runtime errors.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			if format != "text" && format != "json" && format != "junit" {
				return fmt.Errorf("invalid format %q: expected text, json or junit", format)
			}
			return runCheck(cmd, args, format)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format: text, json or junit")

	return cmd
}

func runCheck(cmd *cobra.Command, paths []string, format string) error {
	report := checkReport{Checked: len(paths)}
	for _, p := range paths {
		cf := checkBulletinFile(p)
		if cf.Valid {
			report.Valid++
		} else {
			report.Invalid++
		}
		report.Files = append(report.Files, cf)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case "junit":
		checks := make([]reporting.FileCheck, 0, len(report.Files))
		for _, cf := range report.Files {
			checks = append(checks, reporting.FileCheck{
				Path:     cf.Path,
				Valid:    cf.Valid,
				Errors:   cf.Errors,
				Warnings: cf.Warnings,
			})
		}
		data, err := reporting.JUnitXML(checks)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	default:
		printCheckReport(cmd.OutOrStdout(), report)
	}

	if report.Invalid > 0 {
		return &CheckFailureError{
			Message: fmt.Sprintf("%d of %d bulletin files failed validation", report.Invalid, report.Checked),
		}
	}
	return nil
}

// checkBulletinFile validates one file: schema first, then the semantic
// rules the schema cannot express.
func checkBulletinFile(path string) checkFile {
	cf := checkFile{Path: path}

	problems, err := validation.ValidateSubjectFile(path)
	if err != nil {
		cf.Errors = append(cf.Errors, err.Error())
		return cf
	}
	if len(problems) > 0 {
		cf.Errors = append(cf.Errors, problems...)
		return cf
	}

	f, err := bulletin.Load(path)
	if err != nil {
		cf.Errors = append(cf.Errors, err.Error())
		return cf
	}

	cf.Warnings = coverageWarnings(f)
	if s, err := f.ToSubject(); err == nil && s.ScaledStdDev() == 0 {
		cf.Warnings = append(cf.Warnings, "scaled standard deviation is zero; z-scores are undefined")
	}
	cf.Valid = true
	return cf
}

// coverageWarnings reports scaled marks that no band covers. Gaps are legal
// and only warned about.
func coverageWarnings(f *bulletin.File) []string {
	if len(f.Boundaries) == 0 {
		return nil
	}

	bands := make([]subject.Band, 0, len(f.Boundaries))
	for _, b := range f.Boundaries {
		bands = append(bands, b)
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Low < bands[j].Low })

	var warnings []string
	if low := bands[0].Low; low > 0 {
		warnings = append(warnings, fmt.Sprintf("no band covers marks 0-%d", low-1))
	}
	for i := 1; i < len(bands); i++ {
		prev, next := bands[i-1], bands[i]
		if next.Low > prev.High+1 {
			warnings = append(warnings, fmt.Sprintf("no band covers marks %d-%d", prev.High+1, next.Low-1))
		}
	}
	if high := bands[len(bands)-1].High; high < 100 {
		warnings = append(warnings, fmt.Sprintf("no band covers marks %d-100", high+1))
	}
	return warnings
}

func printCheckReport(w writer, report checkReport) {
	fmt.Fprintf(w, "\nChecking %d bulletin file(s)\n", report.Checked)
	fmt.Fprintln(w, strings.Repeat("=", 70))

	for _, cf := range report.Files {
		writeSection(w, cf.Path)
		if cf.Valid {
			writeStatus(w, statusOK, "schema and tables are valid")
		}
		for _, e := range cf.Errors {
			writeStatus(w, statusBad, e)
		}
		for _, warn := range cf.Warnings {
			writeStatus(w, statusWarn, warn)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "%d checked, %d valid, %d invalid\n", report.Checked, report.Valid, report.Invalid)
}

func writeSection(w writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
}

func writeStatus(w writer, icon, msg string) {
	fmt.Fprintf(w, "  %s %s\n", icon, msg)
}
