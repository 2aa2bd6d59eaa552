package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archlens/archlens/internal/models"
)

const (
	inheritanceConfidence = 0.9
	fileCycleConfidence   = 0.8
	callChainConfidence   = 0.6
)

// DetectCircularDependencies enumerates file-level and class-level
// dependency cycles and reports each as a finding. Cycle paths are
// rotation-normalized so repeated runs report identical cycles.
func (a *Analyzer) DetectCircularDependencies(ctx context.Context, projectName string) *models.AnalysisResult {
	result := a.circularDependencies(ctx, projectName)
	a.recordRun(len(result.Findings))
	return result
}

func (a *Analyzer) circularDependencies(ctx context.Context, projectName string) *models.AnalysisResult {
	start := time.Now()
	result := &models.AnalysisResult{ProjectName: projectName, Success: true}
	defer func() { result.Duration = time.Since(start) }()

	if projectName == "" {
		result.Success = false
		result.Errors = append(result.Errors, "project name is empty")
		return result
	}

	cycles, warnings, err := a.collectCycles(ctx, projectName)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, dep := range cycles {
		result.Findings = append(result.Findings, cycleFinding(dep))
	}

	a.logger.WithFields(map[string]any{
		"project": projectName,
		"cycles":  len(cycles),
	}).Debug("circular dependency detection complete")
	return result
}

// collectCycles enumerates all three cycle populations. Class cycles found
// by both the inheritance and the call-chain graph collapse to the
// higher-confidence inheritance variant.
func (a *Analyzer) collectCycles(ctx context.Context, projectName string) ([]models.CircularDependency, []string, error) {
	var deps []models.CircularDependency
	var warnings []string

	fileGraph, err := a.fileDependencyGraph(ctx, projectName)
	if err != nil {
		return nil, warnings, err
	}
	fileCycles, truncated := enumerateCycles(fileGraph,
		a.config.MaxCycleLength, a.config.MaxCyclesPerGraph, a.config.VisitBudget)
	if truncated {
		warnings = append(warnings, fmt.Sprintf(
			"file cycle enumeration stopped early (%d nodes, %d edges); results are a lower bound",
			fileGraph.nodeCount(), fileGraph.edgeCount()))
	}
	for _, path := range fileCycles {
		deps = append(deps, newCycle(path, models.CycleTypeFile, fileCycleConfidence))
	}

	inheritGraph, callGraph, err := a.classGraphs(ctx, projectName)
	if err != nil {
		return nil, warnings, err
	}

	classSets := make(map[string]bool)
	inheritCycles, truncated := enumerateCycles(inheritGraph,
		a.config.MaxCycleLength, a.config.MaxCyclesPerGraph, a.config.VisitBudget)
	if truncated {
		warnings = append(warnings, "inheritance cycle enumeration stopped early; results are a lower bound")
	}
	for _, path := range inheritCycles {
		classSets[classSetKey(path)] = true
		deps = append(deps, newCycle(path, models.CycleTypeClass, inheritanceConfidence))
	}

	callCycles, truncated := enumerateCycles(callGraph,
		a.config.MaxCycleLength, a.config.MaxCyclesPerGraph, a.config.VisitBudget)
	if truncated {
		warnings = append(warnings, "class call-chain cycle enumeration stopped early; results are a lower bound")
	}
	for _, path := range callCycles {
		if classSets[classSetKey(path)] {
			continue
		}
		deps = append(deps, newCycle(path, models.CycleTypeClass, callChainConfidence))
	}

	return deps, warnings, nil
}

func newCycle(path []string, cycleType models.CycleType, confidence float64) models.CircularDependency {
	dep := models.CircularDependency{
		CyclePath:  normalizeCycle(path),
		CycleType:  cycleType,
		Confidence: confidence,
	}
	dep.Severity = cycleSeverity(dep)
	return dep
}

// cycleSeverity ranks a cycle by type first, then length. Inheritance
// cycles are always critical: a type that transitively extends itself
// cannot load at all. Other class cycles outrank file cycles of any
// length, since classes couple behavior while files only couple layout;
// within each type, tight two-node cycles rank above longer ones.
func cycleSeverity(dep models.CircularDependency) models.Severity {
	n := len(dep.CyclePath)
	if dep.CycleType == models.CycleTypeClass {
		if dep.Confidence >= inheritanceConfidence {
			return models.SeverityCritical
		}
		if n <= 2 {
			return models.SeverityHigh
		}
		return models.SeverityMedium
	}
	if n <= 2 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

func cycleFinding(dep models.CircularDependency) models.AnalysisFinding {
	kind := "files"
	if dep.CycleType == models.CycleTypeClass {
		kind = "classes"
	}
	return models.AnalysisFinding{
		ID:               uuid.NewString(),
		FindingType:      "circular_dependency",
		Severity:         dep.Severity,
		Title:            fmt.Sprintf("Circular dependency between %d %s", len(dep.CyclePath), kind),
		Description:      "Dependency cycle detected: " + dep.Describe(),
		AffectedEntities: dep.CyclePath,
		ConfidenceScore:  dep.Confidence,
		Recommendations:  cycleRecommendations(dep),
		AnalysisModule:   "circular_dependency_detector",
		Metadata: map[string]any{
			"cycle_type":   string(dep.CycleType),
			"cycle_length": len(dep.CyclePath),
		},
	}
}

func cycleRecommendations(dep models.CircularDependency) []string {
	if dep.CycleType == models.CycleTypeFile {
		return []string{
			"Extract the declarations both sides need into a module neither depends on",
			"Invert one direction of the cycle behind an interface",
		}
	}
	if dep.Confidence >= inheritanceConfidence {
		return []string{
			"Break the inheritance loop: a type cannot transitively extend itself",
			"Replace one inheritance link in the cycle with composition",
		}
	}
	return []string{
		"Introduce an interface so one class in the cycle depends on an abstraction",
		"Move the mutually-called logic into a type outside the cycle",
	}
}
