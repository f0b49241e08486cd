package webapi

import (
	"github.com/gradestat/gradestat/internal/statistics"
	"github.com/gradestat/gradestat/internal/subject"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SubjectSummary is one row in the subject listing.
type SubjectSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Level        string  `json:"level,omitempty"`
	Grades       int     `json:"grades"`
	ScaledMean   float64 `json:"scaledMean"`
	ScaledStdDev float64 `json:"scaledStdDev"`
}

// SubjectDetail extends the summary with the published tables and the
// grade-domain moments.
type SubjectDetail struct {
	SubjectSummary
	Boundaries   map[string]subject.Band `json:"boundaries"`
	Distribution map[string]float64      `json:"distribution"`
	GradeMean    float64                 `json:"gradeMean"`
	GradeStdDev  float64                 `json:"gradeStdDev"`
}

// IntervalResponse reports a confidence interval for the average grade of a
// group of candidates.
type IntervalResponse struct {
	SubjectID  string                        `json:"subjectId"`
	GroupSize  int                           `json:"groupSize"`
	Method     string                        `json:"method"`
	Interval   statistics.ConfidenceInterval `json:"interval"`
	Commentary string                        `json:"commentary"`
}

// ZScoreResponse reports a standardized mark.
type ZScoreResponse struct {
	SubjectID  string  `json:"subjectId"`
	Mark       float64 `json:"mark"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
	ZScore     float64 `json:"zScore"`
	Commentary string  `json:"commentary"`
}
