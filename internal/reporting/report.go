package reporting

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gradestat/gradestat/internal/statistics"
	"github.com/gradestat/gradestat/internal/subject"
)

// MarkdownReport renders a subject's published tables and derived statistics
// as a Markdown document. A non-nil interval adds a group-average section.
func MarkdownReport(s *subject.Subject, groupSize int, ci *statistics.ConfidenceInterval) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Name())
	fmt.Fprintf(&b, "Subject `%s`", s.ID())
	if s.Level() != "" {
		fmt.Fprintf(&b, ", level %s", s.Level())
	}
	b.WriteString("\n\n")

	b.WriteString("## Grade table\n\n")
	b.WriteString("| Grade | Mark band | Share |\n")
	b.WriteString("|-------|-----------|-------|\n")
	bands := s.Bands()
	dist := s.Distribution()
	for _, g := range s.Scale().Grades() {
		band := bands[g.Label]
		fmt.Fprintf(&b, "| %s | %d-%d | %.1f%% |\n", g.Label, band.Low, band.High, dist[g.Label]*100)
	}
	b.WriteString("\n")

	b.WriteString("## Scaled marks\n\n")
	fmt.Fprintf(&b, "- Mean: %.4f\n", s.ScaledMean())
	fmt.Fprintf(&b, "- Standard deviation: %.4f\n\n", s.ScaledStdDev())

	d := s.GradeDistribution()
	b.WriteString("## Grades\n\n")
	fmt.Fprintf(&b, "- Mean grade: %.4f\n", d.Mean())
	fmt.Fprintf(&b, "- Standard deviation: %.4f\n", d.StdDev())

	if ci != nil {
		b.WriteString("\n## Group average\n\n")
		fmt.Fprintf(&b, "%s.\n", InterpretInterval(*ci, groupSize))
	}

	return b.String()
}

// htmlShell wraps rendered report content in a minimal standalone page.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 42rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.7rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// Pipe tables need the GFM extension.
var reportMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTMLReport renders the subject report as a standalone HTML page.
func HTMLReport(s *subject.Subject, groupSize int, ci *statistics.ConfidenceInterval) ([]byte, error) {
	md := MarkdownReport(s, groupSize, ci)

	var buf bytes.Buffer
	if err := reportMarkdown.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return []byte(fmt.Sprintf(htmlShell, html.EscapeString(s.Name()), buf.String())), nil
}
