package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradestat/gradestat/internal/statistics"
)

func resetCompareGlobals() {
	compareOutputFormat = "table"
	compareGroupSize = 20
	compareConfidence = 0
	compareReplicates = 0
	compareSeed = -1
	compareDB = ""
	startSpinner = func(io.Writer, string) func() { return func() {} }
}

func compareOptions() statistics.Options {
	return statistics.Options{Replicates: 2000, Seed: 7, Workers: 2, Precision: 2}
}

func TestCompareCommand_RequiresTwoArgs(t *testing.T) {
	resetCompareGlobals()

	cmd := newCompareCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())

	cmd = newCompareCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"only-one"})
	assert.Error(t, cmd.Execute())
}

func TestCompareCommand_MissingFile(t *testing.T) {
	resetCompareGlobals()

	dir := t.TempDir()
	cmd := newCompareCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"no-such-a", "no-such-b", "--db", filepath.Join(dir, "empty.db")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

func TestCompareCommand_InvalidFormat(t *testing.T) {
	resetCompareGlobals()

	dir := t.TempDir()
	a := writeBulletin(t, dir, econBulletin())
	b := writeBulletin(t, dir, lowBulletin())

	cmd := newCompareCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{a, b, "--format", "xml"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "xml": expected table or json`)
}

func TestCompareCommand_TableOutput(t *testing.T) {
	resetCompareGlobals()

	dir := t.TempDir()
	a := writeBulletin(t, dir, econBulletin())
	b := writeBulletin(t, dir, lowBulletin())

	// The table prints to stdout directly; just verify the run succeeds.
	cmd := newCompareCommand()
	cmd.SetArgs([]string{a, b, "--replicates", "500", "--seed", "1"})
	require.NoError(t, cmd.Execute())
}

func TestCompareCommand_JSONOutput(t *testing.T) {
	resetCompareGlobals()

	dir := t.TempDir()
	a := writeBulletin(t, dir, econBulletin())
	b := writeBulletin(t, dir, lowBulletin())

	cmd := newCompareCommand()
	cmd.SetArgs([]string{a, b, "--format", "json", "--replicates", "500", "--seed", "1"})
	require.NoError(t, cmd.Execute())
}

func TestBuildComparisonReport(t *testing.T) {
	report, err := buildComparisonReport(context.Background(), econBulletin(), lowBulletin(), 25, 0.95, compareOptions())
	require.NoError(t, err)

	assert.Equal(t, "econ-hl", report.Subjects[0].ID)
	assert.Equal(t, "basket-weaving", report.Subjects[1].ID)
	assert.Equal(t, 25, report.GroupSize)
	assert.InDelta(t, 0.95, report.Confidence, 1e-9)

	assert.InDelta(t, 57.1235, report.Subjects[0].ScaledMean, 1e-6)
	assert.InDelta(t, 5.245, report.Subjects[0].GradeMean, 1e-6)
	assert.InDelta(t, 1.2, report.Subjects[1].GradeMean, 1e-6)

	assert.InDelta(t, 4.045, report.GradeMeanDelta, 1e-6)
	assert.InDelta(t, 4.045, report.Difference.Mean, 1e-6)
	assert.Equal(t, 2000, report.Difference.Replicates)
	assert.LessOrEqual(t, report.Difference.Lower, report.Difference.Upper)

	// A 4-grade gap dwarfs the sampling noise of a 25-candidate group.
	assert.True(t, report.Significant)
	assert.Greater(t, report.Difference.Lower, 0.0)
	assert.Contains(t, report.Verdict, "higher")
}

func TestBuildComparisonReport_SelfComparison(t *testing.T) {
	report, err := buildComparisonReport(context.Background(), econBulletin(), econBulletin(), 25, 0.95, compareOptions())
	require.NoError(t, err)

	assert.InDelta(t, 0, report.GradeMeanDelta, 1e-9)
	assert.InDelta(t, 0, report.Difference.Mean, 1e-9)
	assert.False(t, report.Significant)
	assert.LessOrEqual(t, report.Difference.Lower, 0.0)
	assert.GreaterOrEqual(t, report.Difference.Upper, 0.0)
	assert.Contains(t, report.Verdict, "No significant difference")
}

func TestBuildComparisonReport_RejectsBadGroupSize(t *testing.T) {
	_, err := buildComparisonReport(context.Background(), econBulletin(), lowBulletin(), 0, 0.95, compareOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group size")
}

func TestRootCommand_HasCompareSubcommand(t *testing.T) {
	root := newRootCommand()
	found := false
	for _, c := range root.Commands() {
		if c.Name() == "compare" {
			found = true
			break
		}
	}
	assert.True(t, found, "root command should have 'compare' subcommand")
}

func TestCompareCommand_FormatFlagParsed(t *testing.T) {
	resetCompareGlobals()

	cmd := newCompareCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--format", "json"}))
	assert.Equal(t, "json", compareOutputFormat)
}

func TestCompareCommand_ShortFormatFlag(t *testing.T) {
	resetCompareGlobals()

	cmd := newCompareCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-f", "json"}))
	assert.Equal(t, "json", compareOutputFormat)
}
