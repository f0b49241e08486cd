// Package scaffold generates starter bulletin files for subjects whose
// published tables have not been typed up yet. The generated file carries
// evenly split mark bands and a uniform distribution, meant to be edited by
// hand and then verified with the check command.
package scaffold

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

// ValidateID rejects subject ids with path-traversal characters or empty ids.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("subject id must not be empty")
	}
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("subject id %q contains invalid path characters", id)
	}
	if cleaned := filepath.Clean(id); cleaned == "." || cleaned == ".." {
		return fmt.Errorf("subject id %q contains invalid path characters", id)
	}
	return nil
}

// TitleCase converts a kebab-case id to Title Case.
func TitleCase(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// GradeRow is one grade line of a scaffolded bulletin.
type GradeRow struct {
	Label string
	Low   int
	High  int
	Share string
}

// UniformGrades returns n contiguous bands splitting marks 0-100 evenly,
// labeled "1" through strconv.Itoa(n), each with an equal share of
// candidates. Shares carry four decimal places and the last grade absorbs
// the rounding remainder, so the printed column sums to exactly 1.
// n must be between 1 and 101 so every band keeps at least one mark.
func UniformGrades(n int) []GradeRow {
	if n < 1 || n > 101 {
		return nil
	}

	even := math.Floor(1e4/float64(n)) / 1e4
	rows := make([]GradeRow, n)
	for i := range rows {
		share := even
		if i == n-1 {
			share = 1.0 - even*float64(n-1)
		}
		rows[i] = GradeRow{
			Label: strconv.Itoa(i + 1),
			Low:   i * 101 / n,
			High:  (i+1)*101/n - 1,
			Share: strconv.FormatFloat(share, 'f', 4, 64),
		}
	}
	return rows
}

var bulletinTmpl = template.Must(template.New("bulletin").Parse(`id: {{.ID}}
name: {{.Name}}
{{- if .Level}}
level: {{.Level}}
{{- end}}

# Inclusive scaled-mark band awarded each grade.
boundaries:
{{- range .Grades}}
  "{{.Label}}": {low: {{.Low}}, high: {{.High}}}
{{- end}}

# Share of candidates awarded each grade. Shares must sum to 1.
distribution:
{{- range .Grades}}
  "{{.Label}}": {{.Share}}
{{- end}}
`))

// BulletinYAML renders a starter bulletin document for the given identity
// and grade rows.
func BulletinYAML(id, name, level string, grades []GradeRow) (string, error) {
	var b strings.Builder
	err := bulletinTmpl.Execute(&b, struct {
		ID, Name, Level string
		Grades          []GradeRow
	}{ID: id, Name: name, Level: level, Grades: grades})
	if err != nil {
		return "", fmt.Errorf("rendering bulletin template: %w", err)
	}
	return b.String(), nil
}
