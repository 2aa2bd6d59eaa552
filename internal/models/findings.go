package models

import (
	"strings"
	"time"
)

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Rank maps a severity to an ordinal, higher meaning more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// CycleType distinguishes file-level from class-level cycles.
type CycleType string

const (
	CycleTypeFile  CycleType = "file"
	CycleTypeClass CycleType = "class"
)

// CircularDependency is one enumerated cycle. CyclePath is
// rotation-normalized: the lexicographically smallest member comes first so
// the same cycle always serializes identically.
type CircularDependency struct {
	CyclePath  []string  `json:"cycle_path"`
	CycleType  CycleType `json:"cycle_type"`
	Severity   Severity  `json:"severity"`
	Confidence float64   `json:"confidence"`
}

// Describe renders the cycle as "A → B → C → A".
func (c CircularDependency) Describe() string {
	if len(c.CyclePath) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c.CyclePath...), c.CyclePath[0]), " → ")
}

// AnalysisFinding is one structured result from the architectural analyzer.
// Immutable once emitted.
type AnalysisFinding struct {
	ID               string                 `json:"id"`
	FindingType      string                 `json:"finding_type"`
	Severity         Severity               `json:"severity"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	FilePath         string                 `json:"file_path,omitempty"`
	AffectedEntities []string               `json:"affected_entities"`
	ConfidenceScore  float64                `json:"confidence_score"`
	Recommendations  []string               `json:"recommendations"`
	AnalysisModule   string                 `json:"analysis_module"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// AnalysisResult is what every analyzer entry point returns. Callers check
// Success rather than relying on control flow; store failures land in
// Errors, never as a raised error.
type AnalysisResult struct {
	Success     bool              `json:"success"`
	ProjectName string            `json:"project_name"`
	Findings    []AnalysisFinding `json:"findings"`
	Errors      []string          `json:"errors,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Duration    time.Duration     `json:"duration"`
}
