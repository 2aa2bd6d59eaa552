package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/internal/models"
)

// fakeBackend is an in-memory Backend mimicking the store's MERGE
// semantics: node upserts are keyed, edge upserts silently skip missing
// endpoints.
type fakeBackend struct {
	pingErr   error
	nodeErr   error
	nodes     map[string]map[string]any // key -> props
	edges     map[string]map[string]any // from|type|to -> props
	nodeCalls int
	edgeCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nodes: make(map[string]map[string]any),
		edges: make(map[string]map[string]any),
	}
}

func (f *fakeBackend) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeBackend) UpsertNodes(ctx context.Context, label string, nodes []GraphNode) (int, error) {
	if f.nodeErr != nil {
		return 0, f.nodeErr
	}
	f.nodeCalls++
	for _, n := range nodes {
		f.nodes[n.Key] = n.Properties
	}
	return len(nodes), nil
}

func (f *fakeBackend) UpsertEdges(ctx context.Context, edgeType string, edges []GraphEdge) (int, error) {
	f.edgeCalls++
	written := 0
	for _, e := range edges {
		if _, ok := f.nodes[e.FromKey]; !ok {
			continue
		}
		if _, ok := f.nodes[e.ToKey]; !ok {
			continue
		}
		f.edges[e.FromKey+"|"+edgeType+"|"+e.ToKey] = e.Properties
		written++
	}
	return written, nil
}

func (f *fakeBackend) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeBackend) Close(ctx context.Context) error { return nil }

func sampleCoordResult() *models.CoordinatorParseResult {
	entities := []models.CodeEntity{
		{Name: "app/a.py", QualifiedName: "app/a.py", Type: models.EntityFile, FilePath: "app/a.py", StartLine: 1, Visibility: models.VisibilityPublic, Language: "python"},
		{Name: "app/b.py", QualifiedName: "app/b.py", Type: models.EntityFile, FilePath: "app/b.py", StartLine: 1, Visibility: models.VisibilityPublic, Language: "python"},
		{Name: "Svc", QualifiedName: "app.a.Svc", Type: models.EntityClass, FilePath: "app/a.py", StartLine: 3, Visibility: models.VisibilityPublic, Language: "python"},
		{Name: "run", QualifiedName: "app.a.Svc.run", Type: models.EntityMethod, FilePath: "app/a.py", StartLine: 4, Visibility: models.VisibilityPublic, ParentEntity: "app.a.Svc", Language: "python", Complexity: 2},
		{Name: "helper", QualifiedName: "app.b.helper", Type: models.EntityMethod, FilePath: "app/b.py", StartLine: 1, Visibility: models.VisibilityPublic, Language: "python"},
	}
	relationships := []models.Relationship{
		{Type: models.RelContains, FromName: "app/a.py", FromType: models.EntityFile, ToName: "app.a.Svc", ToType: models.EntityClass, FilePath: "app/a.py", Language: "python"},
		{Type: models.RelContains, FromName: "app.a.Svc", FromType: models.EntityClass, ToName: "app.a.Svc.run", ToType: models.EntityMethod, FilePath: "app/a.py", Language: "python"},
		// bare callee name, resolvable because it is unique in the batch
		{Type: models.RelCalls, FromName: "app.a.Svc.run", FromType: models.EntityMethod, ToName: "helper", ToType: models.EntityMethod, FilePath: "app/a.py", Language: "python", Confidence: 0.6},
		// dotted import target resolving to a File entity
		{Type: models.RelImports, FromName: "app/a.py", FromType: models.EntityFile, ToName: "app.b", ToType: models.EntityFile, FilePath: "app/a.py", Language: "python"},
		// unresolvable third-party import
		{Type: models.RelImports, FromName: "app/a.py", FromType: models.EntityFile, ToName: "os", ToType: models.EntityFile, FilePath: "app/a.py", Language: "python"},
	}
	return &models.CoordinatorParseResult{
		LanguageResults: map[string]*models.LanguageParseResult{
			"python": {Language: "python", Entities: entities, Relationships: relationships},
		},
		TotalFiles:      2,
		SuccessfulFiles: 2,
	}
}

func TestBuilder_Build(t *testing.T) {
	backend := newFakeBackend()
	builder := NewBuilder(backend)

	result := builder.Build(context.Background(), sampleCoordResult(), "proj")
	require.True(t, result.Success, "errors: %v", result.Errors)

	assert.Equal(t, 5, result.NodesCreated)
	assert.Equal(t, 4, result.RelationshipsCreated, "contains x2, calls via bare name, imports via dotted module")
	assert.Equal(t, 2, result.FilesProcessed)

	// unresolvable import dropped with a warning, not an error
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "dropped")

	// endpoints resolved to project-scoped keys
	_, ok := backend.edges["proj|app.a.Svc.run|Method|CALLS|proj|app.b.helper|Method"]
	assert.True(t, ok, "bare-name callee should resolve to the unique method, edges: %v", backend.edges)
	_, ok = backend.edges["proj|app/a.py|File|IMPORTS|proj|app/b.py|File"]
	assert.True(t, ok, "dotted import should resolve to the file entity")
}

func TestBuilder_BuildIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	builder := NewBuilder(backend)

	first := builder.Build(context.Background(), sampleCoordResult(), "proj")
	nodesAfterFirst := len(backend.nodes)
	edgesAfterFirst := len(backend.edges)

	second := builder.Build(context.Background(), sampleCoordResult(), "proj")
	require.True(t, second.Success)

	assert.Equal(t, first.NodesCreated, second.NodesCreated)
	assert.Equal(t, first.RelationshipsCreated, second.RelationshipsCreated)
	assert.Equal(t, nodesAfterFirst, len(backend.nodes), "re-run must not grow the node set")
	assert.Equal(t, edgesAfterFirst, len(backend.edges), "re-run must not grow the edge set")
}

func TestBuilder_PingFailureFailsFast(t *testing.T) {
	backend := newFakeBackend()
	backend.pingErr = errors.New("connection refused")
	builder := NewBuilder(backend)

	result := builder.Build(context.Background(), sampleCoordResult(), "proj")
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "not reachable")
	assert.Zero(t, backend.nodeCalls, "no writes after failed ping")
}

func TestBuilder_NodeFailureReportsPartialProgress(t *testing.T) {
	backend := newFakeBackend()
	backend.nodeErr = errors.New("deadline exceeded")
	builder := NewBuilder(backend)

	result := builder.Build(context.Background(), sampleCoordResult(), "proj")
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "committed")
	assert.Zero(t, backend.edgeCalls, "edge phase must not start after node failure")
}

func TestBuilder_EmptyProjectName(t *testing.T) {
	builder := NewBuilder(newFakeBackend())
	result := builder.Build(context.Background(), sampleCoordResult(), "")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestBuilder_Stats(t *testing.T) {
	builder := NewBuilder(newFakeBackend())
	builder.Build(context.Background(), sampleCoordResult(), "proj")
	builder.Build(context.Background(), sampleCoordResult(), "proj")

	stats := builder.Stats()
	assert.Equal(t, 2, stats.BuildSessions)
	assert.Equal(t, 10, stats.TotalNodesCreated)
}

func TestResolutionIndex_AmbiguousBareName(t *testing.T) {
	idx := newResolutionIndex()
	idx.add(models.CodeEntity{Name: "run", QualifiedName: "a.X.run", Type: models.EntityMethod}, "k1")
	idx.add(models.CodeEntity{Name: "run", QualifiedName: "a.Y.run", Type: models.EntityMethod}, "k2")

	if _, ok := idx.resolve("run", models.EntityMethod); ok {
		t.Error("ambiguous bare name must not resolve")
	}
	if ref, ok := idx.resolve("a.X.run", models.EntityMethod); !ok || ref.key != "k1" {
		t.Errorf("exact qualified name should resolve, got %v %v", ref, ok)
	}
}

func TestNodeLabelFor(t *testing.T) {
	if got := NodeLabelFor(models.EntityClass); got != "Class" {
		t.Errorf("NodeLabelFor(Class) = %s", got)
	}
	if got := NodeLabelFor(models.EntityType("Mystery")); got != "Entity" {
		t.Errorf("unknown type should fall back to Entity, got %s", got)
	}
	if _, ok := EdgeTypeFor(models.RelationshipType("WEIRD")); ok {
		t.Error("unknown relationship type should not map")
	}
}
