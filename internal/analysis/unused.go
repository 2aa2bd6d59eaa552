package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archlens/archlens/internal/models"
)

// unusedConfidence stays under 1.0: the graph only sees statically
// extracted references, so reflection, dynamic dispatch, and external
// consumers are invisible.
const unusedConfidence = 0.7

// entryPointNames are public elements that are invoked by runtimes or
// frameworks rather than by in-project code; reporting them unused would be
// noise.
var entryPointNames = map[string]bool{
	"main":    true,
	"Main":    true,
	"index":   true,
	"app":     true,
	"handler": true,
}

// DetectUnusedPublicElements reports public and protected classes,
// interfaces, and methods with no incoming call, extension, or
// implementation edge.
func (a *Analyzer) DetectUnusedPublicElements(ctx context.Context, projectName string) *models.AnalysisResult {
	result := a.unusedPublicElements(ctx, projectName)
	a.recordRun(len(result.Findings))
	return result
}

func (a *Analyzer) unusedPublicElements(ctx context.Context, projectName string) *models.AnalysisResult {
	start := time.Now()
	result := &models.AnalysisResult{ProjectName: projectName, Success: true}
	defer func() { result.Duration = time.Since(start) }()

	if projectName == "" {
		result.Success = false
		result.Errors = append(result.Errors, "project name is empty")
		return result
	}

	records, err := a.backend.ExecuteRead(ctx, `
		MATCH (n {project_name: $project})
		WHERE n.visibility IN ['public', 'protected']
		  AND n.entity_type IN ['Class', 'Interface', 'Method']
		  AND NOT ( ()-[:CALLS|EXTENDS|IMPLEMENTS]->(n) )
		RETURN n.name AS name,
		       n.qualified_name AS qualified_name,
		       n.entity_type AS entity_type,
		       n.visibility AS visibility,
		       n.file_path AS file_path,
		       n.start_line AS start_line
		ORDER BY qualified_name
		LIMIT $limit
	`, map[string]any{"project": projectName, "limit": a.config.UnusedElementLimit})
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, "unused element query failed: "+err.Error())
		return result
	}

	for _, rec := range records {
		name := recString(rec["name"])
		if entryPointNames[name] {
			continue
		}
		result.Findings = append(result.Findings, unusedFinding(
			name,
			recString(rec["qualified_name"]),
			recString(rec["entity_type"]),
			recString(rec["visibility"]),
			recString(rec["file_path"]),
			recInt(rec["start_line"]),
		))
	}

	if len(result.Findings) > 0 {
		result.Warnings = append(result.Warnings,
			"unused-element detection sees only statically extracted references; dynamic dispatch, reflection, and external consumers are not tracked")
	}
	return result
}

func unusedFinding(name, qualifiedName, entityType, visibility, filePath string, startLine int) models.AnalysisFinding {
	label := "Public"
	if visibility == string(models.VisibilityProtected) {
		label = "Protected"
	}
	return models.AnalysisFinding{
		ID:               uuid.NewString(),
		FindingType:      "unused_public_element",
		Severity:         models.SeverityLow,
		Title:            fmt.Sprintf("%s %s %q appears unused", label, entityType, name),
		Description:      fmt.Sprintf("%s %s has no incoming call, extension, or implementation edge in the project graph", entityType, qualifiedName),
		FilePath:         filePath,
		AffectedEntities: []string{qualifiedName},
		ConfidenceScore:  unusedConfidence,
		Recommendations: []string{
			"Verify no external consumer or dynamic reference uses it, then remove it or narrow its visibility",
		},
		AnalysisModule: "unused_element_detector",
		Metadata: map[string]any{
			"entity_type": entityType,
			"visibility":  visibility,
			"start_line":  startLine,
		},
	}
}
