package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/archlens/archlens/internal/models"
)

// Builder turns a coordinator result into idempotent node and edge upserts,
// scoped to one project. Re-running a build over unchanged input leaves
// node and edge counts where they were.
type Builder struct {
	backend Backend
	logger  *slog.Logger

	mu    sync.Mutex
	stats BuilderStats
}

// BuilderStats accumulate per-instance across Build calls.
type BuilderStats struct {
	BuildSessions             int `json:"build_sessions"`
	TotalNodesCreated         int `json:"total_nodes_created"`
	TotalRelationshipsCreated int `json:"total_relationships_created"`
}

// NewBuilder creates a graph builder over a store backend.
func NewBuilder(backend Backend) *Builder {
	return &Builder{
		backend: backend,
		logger:  slog.Default().With("component", "graph_builder"),
	}
}

// entityRef locates one entity in the current batch during edge resolution.
type entityRef struct {
	key        string
	entityType models.EntityType
}

// Build persists the aggregated extraction output for one project.
// The store must be reachable up front; otherwise the build fails fast with
// a single error and no partial writes. A failure partway through reports
// the prefix of batches already committed rather than pretending atomicity.
func (b *Builder) Build(ctx context.Context, coordResult *models.CoordinatorParseResult, projectName string) *models.BuildResult {
	start := time.Now()
	result := &models.BuildResult{ProjectName: projectName}
	defer func() {
		result.Duration = time.Since(start)
		b.mu.Lock()
		b.stats.BuildSessions++
		b.stats.TotalNodesCreated += result.NodesCreated
		b.stats.TotalRelationshipsCreated += result.RelationshipsCreated
		b.mu.Unlock()
	}()

	if projectName == "" {
		result.Errors = append(result.Errors, "project name is empty")
		return result
	}
	if coordResult == nil {
		result.Errors = append(result.Errors, "coordinator result is nil")
		return result
	}
	if err := b.backend.Ping(ctx); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("graph store not reachable: %v", err))
		return result
	}

	entities, relationships := collectBatch(coordResult)
	result.FilesProcessed = coordResult.TotalFiles

	nodesByLabel, index := b.prepareNodes(entities, projectName)
	edgesByType, dangling := b.prepareEdges(relationships, index, projectName)

	if len(dangling) > 0 {
		examples := dangling
		if len(examples) > 3 {
			examples = examples[:3]
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%d relationship(s) reference entities absent from this batch and were dropped (e.g. %s)",
			len(dangling), strings.Join(examples, ", ")))
	}

	// Nodes first so edge MATCHes can see them; stable label order keeps
	// partial-failure reports deterministic.
	for _, label := range sortedKeys(nodesByLabel) {
		written, err := b.backend.UpsertNodes(ctx, label, nodesByLabel[label])
		result.NodesCreated += written
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"node upsert failed for label %s after %d nodes committed: %v", label, result.NodesCreated, err))
			return result
		}
	}

	for _, edgeType := range sortedKeys(edgesByType) {
		edges := edgesByType[edgeType]
		written, err := b.backend.UpsertEdges(ctx, edgeType, edges)
		result.RelationshipsCreated += written
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"edge upsert failed for type %s after %d edges committed: %v", edgeType, result.RelationshipsCreated, err))
			return result
		}
		if written < len(edges) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%d of %d %s edges skipped: endpoint not present in graph", len(edges)-written, len(edges), edgeType))
		}
	}

	result.Success = true
	b.logger.Info("graph build complete",
		"project", projectName,
		"nodes", result.NodesCreated,
		"edges", result.RelationshipsCreated,
		"duration", time.Since(start))
	return result
}

// Stats returns a copy of this builder's counters.
func (b *Builder) Stats() BuilderStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// collectBatch flattens the per-language results and deduplicates entities
// that several files legitimately re-declare (packages, shared modules).
func collectBatch(coordResult *models.CoordinatorParseResult) ([]models.CodeEntity, []models.Relationship) {
	var entities []models.CodeEntity
	var relationships []models.Relationship
	seen := map[string]bool{}

	languages := make([]string, 0, len(coordResult.LanguageResults))
	for lang := range coordResult.LanguageResults {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	for _, lang := range languages {
		langResult := coordResult.LanguageResults[lang]
		for _, ent := range langResult.Entities {
			key := ent.QualifiedName + "|" + string(ent.Type)
			if seen[key] {
				continue
			}
			seen[key] = true
			entities = append(entities, ent)
		}
		relationships = append(relationships, langResult.Relationships...)
	}
	return entities, relationships
}

// prepareNodes converts entities to graph nodes grouped by label and builds
// the resolution index for edge endpoints.
func (b *Builder) prepareNodes(entities []models.CodeEntity, projectName string) (map[string][]GraphNode, *resolutionIndex) {
	nodesByLabel := make(map[string][]GraphNode)
	index := newResolutionIndex()

	for _, ent := range entities {
		key := ent.EntityKey(projectName)
		label := NodeLabelFor(ent.Type)

		props := map[string]any{
			"entity_key":     key,
			"project_name":   projectName,
			"name":           ent.Name,
			"qualified_name": ent.QualifiedName,
			"entity_type":    string(ent.Type),
			"file_path":      ent.FilePath,
			"start_line":     ent.StartLine,
			"visibility":     string(ent.Visibility),
			"language":       ent.Language,
		}
		if ent.EndLine > 0 {
			props["end_line"] = ent.EndLine
		}
		if ent.ParentEntity != "" {
			props["parent_entity"] = ent.ParentEntity
		}
		if ent.Signature != "" {
			props["signature"] = ent.Signature
		}
		if ent.Complexity > 0 {
			props["complexity"] = ent.Complexity
		}

		nodesByLabel[label] = append(nodesByLabel[label], GraphNode{
			Label:      label,
			Key:        key,
			Properties: props,
		})
		index.add(ent, key)
	}
	return nodesByLabel, index
}

// prepareEdges resolves relationship endpoints against the batch index and
// converts them to graph edges grouped by type. Unresolvable references
// come back as dangling descriptions; they are dropped with a warning, not
// an error.
func (b *Builder) prepareEdges(relationships []models.Relationship, index *resolutionIndex, projectName string) (map[string][]GraphEdge, []string) {
	edgesByType := make(map[string][]GraphEdge)
	var dangling []string
	seen := map[string]bool{}

	for _, rel := range relationships {
		edgeType, ok := EdgeTypeFor(rel.Type)
		if !ok {
			continue
		}
		fromRef, ok := index.resolve(rel.FromName, rel.FromType)
		if !ok {
			dangling = append(dangling, fmt.Sprintf("%s %s -> %s", rel.Type, rel.FromName, rel.ToName))
			continue
		}
		toRef, ok := index.resolve(rel.ToName, rel.ToType)
		if !ok {
			dangling = append(dangling, fmt.Sprintf("%s %s -> %s", rel.Type, rel.FromName, rel.ToName))
			continue
		}
		if fromRef.key == toRef.key {
			continue
		}

		dedupeKey := fromRef.key + "|" + edgeType + "|" + toRef.key
		if seen[dedupeKey] {
			continue
		}
		seen[dedupeKey] = true

		props := map[string]any{
			"project_name": projectName,
			"file_path":    rel.FilePath,
			"line_number":  rel.LineNumber,
			"language":     rel.Language,
		}
		if rel.Confidence > 0 {
			props["confidence"] = rel.Confidence
		}

		edgesByType[edgeType] = append(edgesByType[edgeType], GraphEdge{
			Label:      edgeType,
			FromKey:    fromRef.key,
			ToKey:      toRef.key,
			Properties: props,
		})
	}
	return edgesByType, dangling
}

// resolutionIndex resolves relationship endpoint names to entity keys.
// Exact qualified names win; unique bare names and import-style module
// paths are best-effort fallbacks matching the extractors' loose output.
type resolutionIndex struct {
	exact    map[string]entityRef   // qualified name -> ref
	bare     map[string][]entityRef // last name segment -> refs
	modules  map[string]entityRef   // dotted module path -> file ref
	basename map[string][]entityRef // file basename without ext -> file refs
}

func newResolutionIndex() *resolutionIndex {
	return &resolutionIndex{
		exact:    make(map[string]entityRef),
		bare:     make(map[string][]entityRef),
		modules:  make(map[string]entityRef),
		basename: make(map[string][]entityRef),
	}
}

func (idx *resolutionIndex) add(ent models.CodeEntity, key string) {
	ref := entityRef{key: key, entityType: ent.Type}
	idx.exact[ent.QualifiedName] = ref

	switch ent.Type {
	case models.EntityClass, models.EntityInterface, models.EntityMethod, models.EntityConstructor:
		idx.bare[ent.Name] = append(idx.bare[ent.Name], ref)
		if i := strings.LastIndex(ent.QualifiedName, "."); i >= 0 {
			last := ent.QualifiedName[i+1:]
			if last != ent.Name {
				idx.bare[last] = append(idx.bare[last], ref)
			}
		}
	case models.EntityFile:
		dotted := strings.ReplaceAll(strings.TrimSuffix(ent.QualifiedName, path.Ext(ent.QualifiedName)), "/", ".")
		idx.modules[dotted] = ref
		base := strings.TrimSuffix(path.Base(ent.QualifiedName), path.Ext(ent.QualifiedName))
		idx.basename[base] = append(idx.basename[base], ref)
	}
}

func (idx *resolutionIndex) resolve(name string, entityType models.EntityType) (entityRef, bool) {
	if ref, ok := idx.exact[name]; ok {
		return ref, true
	}

	if entityType == models.EntityFile {
		// import targets: dotted module paths and relative specifiers
		if ref, ok := idx.modules[name]; ok {
			return ref, true
		}
		spec := strings.TrimPrefix(name, "./")
		spec = strings.TrimPrefix(spec, "../")
		base := strings.TrimSuffix(path.Base(spec), path.Ext(spec))
		if refs := idx.basename[base]; len(refs) == 1 {
			return refs[0], true
		}
		return entityRef{}, false
	}

	// bare callee or base-class names resolve only when unambiguous
	if refs := idx.bare[name]; len(refs) == 1 {
		return refs[0], true
	}
	return entityRef{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
