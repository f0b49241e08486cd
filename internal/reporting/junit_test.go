package reporting

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecks() []FileCheck {
	return []FileCheck{
		{
			Path:  "econ-hl.yaml",
			Valid: true,
		},
		{
			Path:     "history-sl.yaml",
			Valid:    true,
			Warnings: []string{"no band covers marks 96-100"},
		},
		{
			Path:   "broken.yaml",
			Valid:  false,
			Errors: []string{"/distribution: missing", "id is required"},
		},
	}
}

func TestConvertToJUnit_Structure(t *testing.T) {
	suites := ConvertToJUnit(newTestChecks())

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)

	require.Len(t, suites.TestSuites, 1)
	suite := suites.TestSuites[0]

	assert.Equal(t, "gradestat check", suite.Name)
	assert.Equal(t, 3, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.NotEmpty(t, suite.Timestamp)
	require.Len(t, suite.TestCases, 3)
}

func TestConvertToJUnit_ValidTestCase(t *testing.T) {
	suites := ConvertToJUnit(newTestChecks())
	tc := suites.TestSuites[0].TestCases[0]

	assert.Equal(t, "econ-hl.yaml", tc.Name)
	assert.Equal(t, "bulletin", tc.Classname)
	assert.Nil(t, tc.Failure)
	assert.Empty(t, tc.SystemOut)
}

func TestConvertToJUnit_WarningsGoToSystemOut(t *testing.T) {
	suites := ConvertToJUnit(newTestChecks())
	tc := suites.TestSuites[0].TestCases[1]

	assert.Nil(t, tc.Failure)
	assert.Contains(t, tc.SystemOut, "no band covers marks 96-100")
}

func TestConvertToJUnit_FailedTestCase(t *testing.T) {
	suites := ConvertToJUnit(newTestChecks())
	tc := suites.TestSuites[0].TestCases[2]

	require.NotNil(t, tc.Failure)
	assert.Equal(t, "ValidationFailure", tc.Failure.Type)
	assert.Contains(t, tc.Failure.Message, "broken.yaml")
	assert.Contains(t, tc.Failure.Message, "2 validation error(s)")
	assert.Contains(t, tc.Failure.Body, "/distribution: missing")
	assert.Contains(t, tc.Failure.Body, "id is required")
}

func TestConvertToJUnit_EmptyRun(t *testing.T) {
	suites := ConvertToJUnit(nil)

	assert.Equal(t, 0, suites.Tests)
	require.Len(t, suites.TestSuites, 1)
	assert.Empty(t, suites.TestSuites[0].TestCases)
}

func TestJUnitXML_ValidXML(t *testing.T) {
	data, err := JUnitXML(newTestChecks())
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "<?xml"))
	assert.Contains(t, content, "ValidationFailure")

	// Verify it parses as valid XML
	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &parsed))
	assert.Equal(t, 3, parsed.Tests)
	assert.Equal(t, 1, parsed.Failures)
	require.Len(t, parsed.TestSuites, 1)
	assert.Len(t, parsed.TestSuites[0].TestCases, 3)
}
