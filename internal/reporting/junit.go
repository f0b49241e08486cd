package reporting

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one check run.
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one validated bulletin file.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents a bulletin file that failed validation.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// FileCheck is the outcome of validating one bulletin file.
type FileCheck struct {
	Path     string
	Valid    bool
	Errors   []string
	Warnings []string
}

// ConvertToJUnit maps one check run to JUnit format, for CI systems that
// ingest test reports. Each file is one test case; validation errors become
// the failure body and coverage warnings go to system-out.
func ConvertToJUnit(checks []FileCheck) *JUnitTestSuites {
	suite := JUnitTestSuite{
		Name:      "gradestat check",
		Tests:     len(checks),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for _, c := range checks {
		tc := JUnitTestCase{
			Name:      c.Path,
			Classname: "bulletin",
			SystemOut: strings.Join(c.Warnings, "\n"),
		}
		if !c.Valid {
			suite.Failures++
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %d validation error(s)", c.Path, len(c.Errors)),
				Type:    "ValidationFailure",
				Body:    strings.Join(c.Errors, "\n"),
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		TestSuites: []JUnitTestSuite{suite},
	}
}

// JUnitXML renders a check run as a JUnit XML document.
func JUnitXML(checks []FileCheck) ([]byte, error) {
	data, err := xml.MarshalIndent(ConvertToJUnit(checks), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JUnit XML: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
