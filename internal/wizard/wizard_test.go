package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradestat/gradestat/internal/subject"
)

func TestParseBand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    subject.Band
		wantErr bool
	}{
		{"plain", "55-64", subject.Band{Low: 55, High: 64}, false},
		{"spaced", " 0 - 17 ", subject.Band{Low: 0, High: 17}, false},
		{"single mark", "100", subject.Band{Low: 100, High: 100}, false},
		{"reversed", "64-55", subject.Band{}, true},
		{"negative", "-5", subject.Band{}, true},
		{"garbage", "abc", subject.Band{}, true},
		{"empty", "", subject.Band{}, true},
		{"half open", "55-", subject.Band{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBand(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseShare(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"fraction", "0.2", 0.2, false},
		{"percentage", "20%", 0.2, false},
		{"spaced percentage", " 20 % ", 0.2, false},
		{"one", "1", 1, false},
		{"zero", "0", 0, false},
		{"above one", "1.5", 0, true},
		{"negative", "-0.1", 0, true},
		{"empty", "", 0, true},
		{"garbage", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShare(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseLabels(t *testing.T) {
	labels, err := parseLabels("1,2,3,4,5,6,7")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7"}, labels)

	labels, err = parseLabels(" A , B ")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, labels)

	_, err = parseLabels("1,2,1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate grade "1"`)

	_, err = parseLabels(" , , ")
	assert.Error(t, err)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, validateID("econ-hl"))
	assert.Error(t, validateID(""))
	assert.Error(t, validateID("   "))
	assert.Error(t, validateID("econ hl"))
	assert.Error(t, validateID("econ/hl"))
}

func TestSubjectSpecFile(t *testing.T) {
	spec := &SubjectSpec{
		ID:    "math-sl",
		Name:  "Mathematics",
		Level: "SL",
		Grades: []GradeSpec{
			{Label: "1", Band: subject.Band{Low: 0, High: 49}, Probability: 0.4},
			{Label: "2", Band: subject.Band{Low: 50, High: 100}, Probability: 0.6},
		},
	}

	f := spec.File()
	require.NoError(t, f.Validate())

	assert.Equal(t, "math-sl", f.ID)
	assert.Equal(t, "Mathematics", f.Name)
	assert.Equal(t, "SL", f.Level)
	assert.Equal(t, subject.Band{Low: 50, High: 100}, f.Boundaries["2"])
	assert.InDelta(t, 0.4, f.Distribution["1"], 1e-12)
}

func TestSubjectSpecFileRejectsBadShares(t *testing.T) {
	spec := &SubjectSpec{
		ID:   "bad",
		Name: "Bad",
		Grades: []GradeSpec{
			{Label: "1", Band: subject.Band{Low: 0, High: 49}, Probability: 0.4},
			{Label: "2", Band: subject.Band{Low: 50, High: 100}, Probability: 0.4},
		},
	}

	err := spec.File().Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, subject.ErrProbabilitySum)
}
