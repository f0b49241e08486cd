package bulletin

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gradestat/gradestat/internal/subject"
)

// row is a single CSV record keyed by header column.
type row map[string]string

// csvGrade is one decoded grade line of an import table.
type csvGrade struct {
	Grade       string  `mapstructure:"grade"`
	Low         int     `mapstructure:"low"`
	High        int     `mapstructure:"high"`
	Probability float64 `mapstructure:"probability"`
}

// FromCSV imports a bulletin from a CSV table with header
// grade,low,high,probability, one row per grade. Identity fields come from
// the caller; the table carries only the per-grade columns.
func FromCSV(path, id, name, level string) (*File, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv: %s has no data rows", path)
	}

	f := &File{
		ID:           id,
		Name:         name,
		Level:        level,
		Boundaries:   make(map[string]subject.Band, len(rows)),
		Distribution: make(map[string]float64, len(rows)),
	}
	for i, r := range rows {
		var g csvGrade
		if err := decodeRow(r, &g); err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", i+2, err)
		}
		if _, dup := f.Boundaries[g.Grade]; dup {
			return nil, fmt.Errorf("csv: row %d: duplicate grade %q", i+2, g.Grade)
		}
		f.Boundaries[g.Grade] = subject.Band{Low: g.Low, High: g.High}
		f.Distribution[g.Grade] = g.Probability
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// decodeRow maps a header-keyed record onto a typed row. Weakly typed so
// numeric fields accept the string cells csv parsing produces; unset fields
// are errors so a missing column is reported instead of silently zeroed.
func decodeRow(r row, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnset:       true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(r)
}

// readRows loads a CSV file into header-keyed records. The first record is
// the header row.
func readRows(path string) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	rows := make([]row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		m := make(row, len(headers))
		for j, h := range headers {
			m[h] = record[j]
		}
		rows = append(rows, m)
	}
	return rows, nil
}
