package models

import (
	"fmt"
	"time"
)

// EntityType classifies a structural code element extracted from source.
type EntityType string

const (
	EntityFile        EntityType = "File"
	EntityPackage     EntityType = "Package"
	EntityClass       EntityType = "Class"
	EntityInterface   EntityType = "Interface"
	EntityMethod      EntityType = "Method"
	EntityConstructor EntityType = "Constructor"
	EntityField       EntityType = "Field"
	EntityVariable    EntityType = "Variable"
	EntityImport      EntityType = "Import"
)

// Visibility is the declared access level of an entity.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

// CodeEntity is one structural element (file, class, method, ...) produced
// by a language extractor. QualifiedName plus Type identifies the entity
// within a project; re-extracting the same construct yields the same key.
type CodeEntity struct {
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	Type          EntityType `json:"entity_type"`
	FilePath      string     `json:"file_path"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line,omitempty"`
	Visibility    Visibility `json:"visibility"`
	ParentEntity  string     `json:"parent_entity,omitempty"`
	Language      string     `json:"language"`
	Signature     string     `json:"signature,omitempty"`
	Complexity    int        `json:"complexity,omitempty"`
}

// EntityKey returns the project-scoped unique key for an entity.
func (e CodeEntity) EntityKey(project string) string {
	return fmt.Sprintf("%s|%s|%s", project, e.QualifiedName, e.Type)
}

// RelationshipType classifies a directed edge between two entities.
type RelationshipType string

const (
	RelCalls      RelationshipType = "CALLS"
	RelExtends    RelationshipType = "EXTENDS"
	RelImplements RelationshipType = "IMPLEMENTS"
	RelContains   RelationshipType = "CONTAINS"
	RelImports    RelationshipType = "IMPORTS"
)

// Relationship is a directed, typed edge between two entity qualified names.
// An edge whose endpoint is absent from the current batch is kept as a
// dangling candidate; the graph builder resolves or drops it with a warning.
type Relationship struct {
	Type       RelationshipType `json:"type"`
	FromName   string           `json:"from_name"`
	FromType   EntityType       `json:"from_type"`
	ToName     string           `json:"to_name"`
	ToType     EntityType       `json:"to_type"`
	FilePath   string           `json:"file_path"`
	LineNumber int              `json:"line_number"`
	Language   string           `json:"language"`
	Confidence float64          `json:"confidence,omitempty"`
}

// ParseResult holds everything extracted from a single file.
// Extractors never fail hard; malformed input surfaces in Errors while
// whatever was recovered stays in Entities/Relationships.
type ParseResult struct {
	FilePath      string         `json:"file_path"`
	Language      string         `json:"language"`
	Entities      []CodeEntity   `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Errors        []string       `json:"errors,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// Successful reports whether the file parsed without errors.
func (r *ParseResult) Successful() bool {
	return len(r.Errors) == 0
}

// LanguageParseResult aggregates per-file results for one language.
type LanguageParseResult struct {
	Language        string         `json:"language"`
	FilesTotal      int            `json:"files_total"`
	FilesSuccessful int            `json:"files_successful"`
	FilesWithErrors int            `json:"files_with_errors"`
	Entities        []CodeEntity   `json:"entities"`
	Relationships   []Relationship `json:"relationships"`
	Errors          []string       `json:"errors,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Duration        time.Duration  `json:"duration"`
}

// CoordinatorParseResult is the whole-project aggregation over all languages.
// Created fresh per coordination run and immutable once returned.
type CoordinatorParseResult struct {
	ProjectRoot        string                          `json:"project_root"`
	LanguageResults    map[string]*LanguageParseResult `json:"language_results"`
	TotalFiles         int                             `json:"total_files"`
	SuccessfulFiles    int                             `json:"successful_files"`
	TotalEntities      int                             `json:"total_entities"`
	TotalRelationships int                             `json:"total_relationships"`
	Errors             []string                        `json:"errors,omitempty"`
	Warnings           []string                        `json:"warnings,omitempty"`
	Duration           time.Duration                   `json:"duration"`
}

// SuccessRate returns successful_files / total_files, zero for an empty run.
func (r *CoordinatorParseResult) SuccessRate() float64 {
	if r.TotalFiles == 0 {
		return 0
	}
	return float64(r.SuccessfulFiles) / float64(r.TotalFiles)
}

// BuildResult reports one graph build call. A failure partway through
// leaves the already-committed batch prefix in place; Errors records where
// the build stopped.
type BuildResult struct {
	Success              bool          `json:"success"`
	ProjectName          string        `json:"project_name"`
	NodesCreated         int           `json:"nodes_created"`
	RelationshipsCreated int           `json:"relationships_created"`
	FilesProcessed       int           `json:"files_processed"`
	Duration             time.Duration `json:"build_duration"`
	Errors               []string      `json:"errors,omitempty"`
	Warnings             []string      `json:"warnings,omitempty"`
}
