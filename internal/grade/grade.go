package grade

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrEmptyScale     = errors.New("empty grade scale")
	ErrDuplicateLabel = errors.New("duplicate grade label")
	ErrDuplicateValue = errors.New("duplicate grade value")
)

// Grade is one category of an ordinal grade scale. Label is the published
// form ("4"); Value is the number used for ordering and averaging.
type Grade struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Scale is an immutable enumeration of grades ordered by value ascending.
type Scale struct {
	grades  []Grade
	byLabel map[string]int
}

// NewScale builds a Scale from explicit grades. The input order does not
// matter; grades are sorted by value. Labels and values must be unique.
func NewScale(grades []Grade) (*Scale, error) {
	if len(grades) == 0 {
		return nil, ErrEmptyScale
	}

	sorted := make([]Grade, len(grades))
	copy(sorted, grades)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	byLabel := make(map[string]int, len(sorted))
	for i, g := range sorted {
		if _, ok := byLabel[g.Label]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, g.Label)
		}
		if i > 0 && sorted[i-1].Value == g.Value {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateValue, g.Value)
		}
		byLabel[g.Label] = i
	}

	return &Scale{grades: sorted, byLabel: byLabel}, nil
}

// ParseScale builds a Scale from numeric labels such as "1".."7", taking
// each label's parsed number as its value.
func ParseScale(labels []string) (*Scale, error) {
	grades := make([]Grade, 0, len(labels))
	for _, label := range labels {
		v, err := strconv.ParseFloat(label, 64)
		if err != nil {
			return nil, fmt.Errorf("grade label %q is not numeric: %w", label, err)
		}
		grades = append(grades, Grade{Label: label, Value: v})
	}
	return NewScale(grades)
}

// Len returns the number of grades in the scale.
func (s *Scale) Len() int {
	return len(s.grades)
}

// Grades returns the grades in ascending order.
func (s *Scale) Grades() []Grade {
	out := make([]Grade, len(s.grades))
	copy(out, s.grades)
	return out
}

// Labels returns the grade labels in ascending value order.
func (s *Scale) Labels() []string {
	out := make([]string, len(s.grades))
	for i, g := range s.grades {
		out[i] = g.Label
	}
	return out
}

// Values returns the numeric grade values in ascending order.
func (s *Scale) Values() []float64 {
	out := make([]float64, len(s.grades))
	for i, g := range s.grades {
		out[i] = g.Value
	}
	return out
}

// Lookup returns the grade for a label.
func (s *Scale) Lookup(label string) (Grade, bool) {
	i, ok := s.byLabel[label]
	if !ok {
		return Grade{}, false
	}
	return s.grades[i], true
}

// GradeForValue returns the grade whose value is exactly v.
func (s *Scale) GradeForValue(v float64) (Grade, bool) {
	i := sort.Search(len(s.grades), func(i int) bool { return s.grades[i].Value >= v })
	if i == len(s.grades) || s.grades[i].Value != v {
		return Grade{}, false
	}
	return s.grades[i], true
}

// MinValue returns the smallest grade value.
func (s *Scale) MinValue() float64 {
	return s.grades[0].Value
}

// MaxValue returns the largest grade value.
func (s *Scale) MaxValue() float64 {
	return s.grades[len(s.grades)-1].Value
}
