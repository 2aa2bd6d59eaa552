package query

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/archlens/archlens/internal/errors"
	"github.com/archlens/archlens/internal/graph"
)

// DefaultLimit bounds result sets when the caller passes no limit.
const DefaultLimit = 25

// maxCallerSample caps the caller names attached to a call pattern row.
const maxCallerSample = 10

// Service answers read-only questions about a project's code graph.
// Every query is project-scoped and limit-bounded; a project with no graph
// yields empty results, not errors.
type Service struct {
	backend graph.Backend
	logger  *slog.Logger
}

// NewService creates a query service over a graph backend.
func NewService(backend graph.Backend) *Service {
	return &Service{
		backend: backend,
		logger:  slog.Default().With("component", "query"),
	}
}

// ProjectOverview summarizes one project: entity counts by type,
// relationship counts by type, and the languages present.
type ProjectOverview struct {
	ProjectName        string         `json:"project_name"`
	TotalEntities      int            `json:"total_entities"`
	EntityCounts       map[string]int `json:"entity_counts"`
	TotalRelationships int            `json:"total_relationships"`
	RelationshipCounts map[string]int `json:"relationship_counts"`
	Languages          []string       `json:"languages"`
}

// Overview returns the entity and relationship profile of a project.
func (s *Service) Overview(ctx context.Context, projectName string) (*ProjectOverview, error) {
	if projectName == "" {
		return nil, apperrors.ValidationError("project name is required")
	}

	overview := &ProjectOverview{
		ProjectName:        projectName,
		EntityCounts:       map[string]int{},
		RelationshipCounts: map[string]int{},
	}

	records, err := s.backend.ExecuteRead(ctx, `
		MATCH (n {project_name: $project})
		RETURN n.entity_type AS entity_type, count(n) AS count
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, apperrors.QueryError(err, "entity count query failed")
	}
	for _, rec := range records {
		entityType := asString(rec["entity_type"])
		count := asInt(rec["count"])
		if entityType == "" {
			continue
		}
		overview.EntityCounts[entityType] = count
		overview.TotalEntities += count
	}

	records, err = s.backend.ExecuteRead(ctx, `
		MATCH (a {project_name: $project})-[r]->(b {project_name: $project})
		RETURN type(r) AS rel_type, count(r) AS count
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, apperrors.QueryError(err, "relationship count query failed")
	}
	for _, rec := range records {
		relType := asString(rec["rel_type"])
		count := asInt(rec["count"])
		if relType == "" {
			continue
		}
		overview.RelationshipCounts[relType] = count
		overview.TotalRelationships += count
	}

	records, err = s.backend.ExecuteRead(ctx, `
		MATCH (f:File {project_name: $project})
		RETURN DISTINCT f.language AS language
		ORDER BY language
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, apperrors.QueryError(err, "language query failed")
	}
	for _, rec := range records {
		if lang := asString(rec["language"]); lang != "" {
			overview.Languages = append(overview.Languages, lang)
		}
	}

	s.logger.Debug("project overview computed",
		"project", projectName,
		"entities", overview.TotalEntities,
		"relationships", overview.TotalRelationships)
	return overview, nil
}

// ClassComplexity ranks a class by its method counts and summed branch
// complexity. Score weighs public methods double: they are part of the
// class's contract, so a wide public surface costs more than the same
// number of internal helpers.
type ClassComplexity struct {
	ClassName         string  `json:"class_name"`
	QualifiedName     string  `json:"qualified_name"`
	FilePath          string  `json:"file_path"`
	MethodCount       int     `json:"method_count"`
	PublicMethodCount int     `json:"public_method_count"`
	TotalComplexity   int     `json:"total_complexity"`
	AverageComplexity float64 `json:"average_complexity"`
	ComplexityScore   float64 `json:"complexity_score"`
}

// ClassComplexityRanking returns the project's classes ordered by a score
// built from method count, public-method count, and summed branch
// complexity, heaviest first.
func (s *Service) ClassComplexityRanking(ctx context.Context, projectName string, limit int) ([]ClassComplexity, error) {
	if projectName == "" {
		return nil, apperrors.ValidationError("project name is required")
	}
	limit = boundLimit(limit)

	records, err := s.backend.ExecuteRead(ctx, `
		MATCH (c:Class {project_name: $project})
		OPTIONAL MATCH (c)-[:CONTAINS]->(m:Method {project_name: $project})
		WITH c,
		     count(m) AS method_count,
		     count(CASE WHEN m.visibility = 'public' THEN 1 END) AS public_method_count,
		     coalesce(sum(m.complexity), 0) AS total_complexity
		RETURN c.name AS class_name,
		       c.qualified_name AS qualified_name,
		       c.file_path AS file_path,
		       method_count,
		       public_method_count,
		       total_complexity,
		       toFloat(method_count + public_method_count) + toFloat(total_complexity) / 10.0 AS complexity_score
		ORDER BY complexity_score DESC, method_count DESC
		LIMIT $limit
	`, map[string]any{"project": projectName, "limit": limit})
	if err != nil {
		return nil, apperrors.QueryError(err, "class complexity query failed")
	}

	results := make([]ClassComplexity, 0, len(records))
	for _, rec := range records {
		cc := ClassComplexity{
			ClassName:         asString(rec["class_name"]),
			QualifiedName:     asString(rec["qualified_name"]),
			FilePath:          asString(rec["file_path"]),
			MethodCount:       asInt(rec["method_count"]),
			PublicMethodCount: asInt(rec["public_method_count"]),
			TotalComplexity:   asInt(rec["total_complexity"]),
			ComplexityScore:   asFloat(rec["complexity_score"]),
		}
		if cc.MethodCount > 0 {
			cc.AverageComplexity = float64(cc.TotalComplexity) / float64(cc.MethodCount)
		}
		results = append(results, cc)
	}
	return results, nil
}

// CallPattern describes one frequently-called method: how many distinct
// callers reach it, how many files those callers span, and a sample of
// their names.
type CallPattern struct {
	MethodName      string   `json:"method_name"`
	QualifiedName   string   `json:"qualified_name"`
	CallerCount     int      `json:"caller_count"`
	CallerFileCount int      `json:"caller_file_count"`
	Callers         []string `json:"callers"`
}

// MethodCallPatterns returns the most-called methods in a project, ranked
// by distinct caller count and then by how many files the callers spread
// across.
func (s *Service) MethodCallPatterns(ctx context.Context, projectName string, limit int) ([]CallPattern, error) {
	if projectName == "" {
		return nil, apperrors.ValidationError("project name is required")
	}
	limit = boundLimit(limit)

	records, err := s.backend.ExecuteRead(ctx, fmt.Sprintf(`
		MATCH (caller {project_name: $project})-[:CALLS]->(m:Method {project_name: $project})
		RETURN m.name AS method_name,
		       m.qualified_name AS qualified_name,
		       count(DISTINCT caller) AS caller_count,
		       count(DISTINCT caller.file_path) AS caller_file_count,
		       collect(DISTINCT caller.qualified_name)[..%d] AS callers
		ORDER BY caller_count DESC, caller_file_count DESC, qualified_name
		LIMIT $limit
	`, maxCallerSample), map[string]any{"project": projectName, "limit": limit})
	if err != nil {
		return nil, apperrors.QueryError(err, "call pattern query failed")
	}

	results := make([]CallPattern, 0, len(records))
	for _, rec := range records {
		results = append(results, CallPattern{
			MethodName:      asString(rec["method_name"]),
			QualifiedName:   asString(rec["qualified_name"]),
			CallerCount:     asInt(rec["caller_count"]),
			CallerFileCount: asInt(rec["caller_file_count"]),
			Callers:         asStringSlice(rec["callers"]),
		})
	}
	return results, nil
}

// APIElement is one externally reachable class, interface, method, or
// constructor. Protected elements count: subclasses outside the project
// can reach them.
type APIElement struct {
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	Kind          string `json:"kind"`
	Visibility    string `json:"visibility"`
	FilePath      string `json:"file_path"`
	Signature     string `json:"signature,omitempty"`
}

// PublicAPISurface lists the project's public and protected elements in
// stable qualified-name order.
func (s *Service) PublicAPISurface(ctx context.Context, projectName string, limit int) ([]APIElement, error) {
	if projectName == "" {
		return nil, apperrors.ValidationError("project name is required")
	}
	limit = boundLimit(limit)

	records, err := s.backend.ExecuteRead(ctx, `
		MATCH (n {project_name: $project})
		WHERE n.visibility IN ['public', 'protected']
		  AND n.entity_type IN ['Class', 'Interface', 'Method', 'Constructor']
		RETURN n.name AS name,
		       n.qualified_name AS qualified_name,
		       n.entity_type AS kind,
		       n.visibility AS visibility,
		       n.file_path AS file_path,
		       n.signature AS signature
		ORDER BY qualified_name
		LIMIT $limit
	`, map[string]any{"project": projectName, "limit": limit})
	if err != nil {
		return nil, apperrors.QueryError(err, "public api query failed")
	}

	results := make([]APIElement, 0, len(records))
	for _, rec := range records {
		results = append(results, APIElement{
			Name:          asString(rec["name"]),
			QualifiedName: asString(rec["qualified_name"]),
			Kind:          asString(rec["kind"]),
			Visibility:    asString(rec["visibility"]),
			FilePath:      asString(rec["file_path"]),
			Signature:     asString(rec["signature"]),
		})
	}
	return results, nil
}

// RefactoringCandidate is a class flagged for size or complexity.
type RefactoringCandidate struct {
	QualifiedName   string `json:"qualified_name"`
	FilePath        string `json:"file_path"`
	MethodCount     int    `json:"method_count"`
	TotalComplexity int    `json:"total_complexity"`
	Reason          string `json:"reason"`
}

// Thresholds past which a class is considered worth splitting.
const (
	refactorMethodThreshold     = 15
	refactorComplexityThreshold = 50
)

// RefactoringCandidates surfaces classes whose method count or summed
// complexity passes the refactoring thresholds.
func (s *Service) RefactoringCandidates(ctx context.Context, projectName string, limit int) ([]RefactoringCandidate, error) {
	if projectName == "" {
		return nil, apperrors.ValidationError("project name is required")
	}
	limit = boundLimit(limit)

	records, err := s.backend.ExecuteRead(ctx, `
		MATCH (c:Class {project_name: $project})
		OPTIONAL MATCH (c)-[:CONTAINS]->(m:Method {project_name: $project})
		WITH c, count(m) AS method_count, coalesce(sum(m.complexity), 0) AS total_complexity
		WHERE method_count >= $methodThreshold OR total_complexity >= $complexityThreshold
		RETURN c.qualified_name AS qualified_name,
		       c.file_path AS file_path,
		       method_count,
		       total_complexity
		ORDER BY total_complexity DESC, method_count DESC
		LIMIT $limit
	`, map[string]any{
		"project":             projectName,
		"limit":               limit,
		"methodThreshold":     refactorMethodThreshold,
		"complexityThreshold": refactorComplexityThreshold,
	})
	if err != nil {
		return nil, apperrors.QueryError(err, "refactoring candidate query failed")
	}

	results := make([]RefactoringCandidate, 0, len(records))
	for _, rec := range records {
		rc := RefactoringCandidate{
			QualifiedName:   asString(rec["qualified_name"]),
			FilePath:        asString(rec["file_path"]),
			MethodCount:     asInt(rec["method_count"]),
			TotalComplexity: asInt(rec["total_complexity"]),
		}
		rc.Reason = candidateReason(rc.MethodCount, rc.TotalComplexity)
		results = append(results, rc)
	}
	return results, nil
}

func candidateReason(methodCount, totalComplexity int) string {
	switch {
	case methodCount >= refactorMethodThreshold && totalComplexity >= refactorComplexityThreshold:
		return fmt.Sprintf("large class (%d methods) with high complexity (%d)", methodCount, totalComplexity)
	case methodCount >= refactorMethodThreshold:
		return fmt.Sprintf("large class: %d methods", methodCount)
	default:
		return fmt.Sprintf("high summed complexity: %d", totalComplexity)
	}
}

func boundLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
