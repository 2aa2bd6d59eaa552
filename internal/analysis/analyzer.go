package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/archlens/archlens/internal/graph"
	"github.com/archlens/archlens/internal/models"
)

// Config bounds the analyzer's graph searches. Cycle enumeration is
// exponential in the worst case, so every knob here is a hard cap.
type Config struct {
	// MaxCycleLength is the longest cycle (in nodes) worth reporting.
	MaxCycleLength int

	// MaxCyclesPerGraph caps how many cycles one graph may yield.
	MaxCyclesPerGraph int

	// VisitBudget caps edge traversals per enumeration. When exhausted the
	// analysis returns what it found so far plus a truncation warning.
	VisitBudget int

	// UnusedElementLimit caps unused public element findings.
	UnusedElementLimit int
}

// DefaultConfig returns bounds suitable for projects up to a few thousand
// files.
func DefaultConfig() Config {
	return Config{
		MaxCycleLength:     10,
		MaxCyclesPerGraph:  100,
		VisitBudget:        200000,
		UnusedElementLimit: 100,
	}
}

// Stats accumulate per analyzer instance.
type Stats struct {
	AnalysesRun   int `json:"analyses_run"`
	TotalFindings int `json:"total_findings"`
}

// Analyzer runs architectural analyses against a project's code graph.
// Every entry point returns an AnalysisResult; store failures set
// Success=false and land in Errors rather than being raised.
type Analyzer struct {
	backend graph.Backend
	config  Config
	logger  *logrus.Entry

	mu    sync.Mutex
	stats Stats
}

// NewAnalyzer creates an analyzer with default bounds.
func NewAnalyzer(backend graph.Backend) *Analyzer {
	return NewAnalyzerWithConfig(backend, DefaultConfig())
}

// NewAnalyzerWithConfig creates an analyzer with explicit bounds.
func NewAnalyzerWithConfig(backend graph.Backend, config Config) *Analyzer {
	if config.MaxCycleLength <= 0 {
		config.MaxCycleLength = DefaultConfig().MaxCycleLength
	}
	if config.MaxCyclesPerGraph <= 0 {
		config.MaxCyclesPerGraph = DefaultConfig().MaxCyclesPerGraph
	}
	if config.VisitBudget <= 0 {
		config.VisitBudget = DefaultConfig().VisitBudget
	}
	if config.UnusedElementLimit <= 0 {
		config.UnusedElementLimit = DefaultConfig().UnusedElementLimit
	}
	return &Analyzer{
		backend: backend,
		config:  config,
		logger:  logrus.WithField("component", "analyzer"),
	}
}

// Stats returns a copy of this analyzer's counters.
func (a *Analyzer) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Analyzer) recordRun(findings int) {
	a.mu.Lock()
	a.stats.AnalysesRun++
	a.stats.TotalFindings += findings
	a.mu.Unlock()
}

// AnalyzeProjectArchitecture runs the full analysis suite: circular
// dependency detection and unused public element detection. Results are
// merged; a sub-analysis failure fails the whole run but keeps the findings
// already collected.
func (a *Analyzer) AnalyzeProjectArchitecture(ctx context.Context, projectName string) *models.AnalysisResult {
	start := time.Now()
	result := &models.AnalysisResult{ProjectName: projectName, Success: true}
	defer func() {
		result.Duration = time.Since(start)
		a.recordRun(len(result.Findings))
	}()

	if projectName == "" {
		result.Success = false
		result.Errors = append(result.Errors, "project name is empty")
		return result
	}
	if err := a.backend.Ping(ctx); err != nil {
		result.Success = false
		result.Errors = append(result.Errors, "graph store not reachable: "+err.Error())
		return result
	}

	for _, sub := range []*models.AnalysisResult{
		a.circularDependencies(ctx, projectName),
		a.unusedPublicElements(ctx, projectName),
	} {
		result.Findings = append(result.Findings, sub.Findings...)
		result.Warnings = append(result.Warnings, sub.Warnings...)
		result.Errors = append(result.Errors, sub.Errors...)
		if !sub.Success {
			result.Success = false
		}
	}

	a.logger.WithFields(logrus.Fields{
		"project":  projectName,
		"findings": len(result.Findings),
		"success":  result.Success,
		"duration": time.Since(start),
	}).Info("architecture analysis complete")
	return result
}
