package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/internal/coordinator"
	"github.com/archlens/archlens/internal/extract"
	"github.com/archlens/archlens/internal/graph"
	"github.com/archlens/archlens/internal/models"
)

// memoryGraph is a full in-memory stand-in for the store: the builder
// writes nodes and edges into it, and it answers the analyzer's read
// queries from what was written.
type memoryGraph struct {
	nodes map[string]map[string]any
	edges []memoryEdge
}

type memoryEdge struct {
	kind string
	from string
	to   string
}

func newMemoryGraph() *memoryGraph {
	return &memoryGraph{nodes: map[string]map[string]any{}}
}

func (g *memoryGraph) Ping(ctx context.Context) error  { return nil }
func (g *memoryGraph) Close(ctx context.Context) error { return nil }

func (g *memoryGraph) UpsertNodes(ctx context.Context, label string, nodes []graph.GraphNode) (int, error) {
	for _, n := range nodes {
		g.nodes[n.Key] = n.Properties
	}
	return len(nodes), nil
}

func (g *memoryGraph) UpsertEdges(ctx context.Context, edgeType string, edges []graph.GraphEdge) (int, error) {
	written := 0
	for _, e := range edges {
		if _, ok := g.nodes[e.FromKey]; !ok {
			continue
		}
		if _, ok := g.nodes[e.ToKey]; !ok {
			continue
		}
		g.edges = append(g.edges, memoryEdge{kind: edgeType, from: e.FromKey, to: e.ToKey})
		written++
	}
	return written, nil
}

func (g *memoryGraph) prop(key, name string) string {
	s, _ := g.nodes[key][name].(string)
	return s
}

func (g *memoryGraph) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	switch {
	case strings.Contains(query, "[:IMPORTS]"):
		var rows []map[string]any
		for _, e := range g.edges {
			if e.kind != "IMPORTS" || g.prop(e.from, "entity_type") != "File" || g.prop(e.to, "entity_type") != "File" {
				continue
			}
			rows = append(rows, map[string]any{
				"from_file": g.prop(e.from, "qualified_name"),
				"to_file":   g.prop(e.to, "qualified_name"),
			})
		}
		return rows, nil

	case strings.Contains(query, "m.file_path <> n.file_path"):
		seen := map[string]bool{}
		var rows []map[string]any
		for _, e := range g.edges {
			if e.kind != "CALLS" {
				continue
			}
			from, to := g.prop(e.from, "file_path"), g.prop(e.to, "file_path")
			if from == "" || to == "" || from == to || seen[from+"|"+to] {
				continue
			}
			seen[from+"|"+to] = true
			rows = append(rows, map[string]any{"from_file": from, "to_file": to})
		}
		return rows, nil

	case strings.Contains(query, "[:EXTENDS|IMPLEMENTS]"):
		var rows []map[string]any
		for _, e := range g.edges {
			if e.kind != "EXTENDS" && e.kind != "IMPLEMENTS" {
				continue
			}
			rows = append(rows, map[string]any{
				"from_class": g.prop(e.from, "qualified_name"),
				"to_class":   g.prop(e.to, "qualified_name"),
			})
		}
		return rows, nil

	case strings.Contains(query, "[:CONTAINS]"):
		containerOf := map[string]string{}
		for _, e := range g.edges {
			if e.kind == "CONTAINS" && g.prop(e.from, "entity_type") == "Class" {
				containerOf[e.to] = e.from
			}
		}
		seen := map[string]bool{}
		var rows []map[string]any
		for _, e := range g.edges {
			if e.kind != "CALLS" {
				continue
			}
			c1, c2 := containerOf[e.from], containerOf[e.to]
			if c1 == "" || c2 == "" || c1 == c2 || seen[c1+"|"+c2] {
				continue
			}
			seen[c1+"|"+c2] = true
			rows = append(rows, map[string]any{
				"from_class": g.prop(c1, "qualified_name"),
				"to_class":   g.prop(c2, "qualified_name"),
			})
		}
		return rows, nil
	}
	return nil, nil
}

// buildProjectGraph runs the real pipeline over an on-disk fixture:
// extraction, coordination, and the graph build into a memoryGraph.
func buildProjectGraph(t *testing.T, files map[string]string) *memoryGraph {
	t.Helper()
	root := t.TempDir()
	for rel, src := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	coord := coordinator.New(coordinator.Config{}, logger)
	coord.Register(extract.NewPythonExtractor())

	parsed := coord.Coordinate(context.Background(), coordinator.ProjectContext{
		CodePath:          root,
		DetectedLanguages: []string{"python"},
	})
	require.Empty(t, parsed.Errors)

	store := newMemoryGraph()
	built := graph.NewBuilder(store).Build(context.Background(), parsed, "shop")
	require.True(t, built.Success, "graph build failed: %v", built.Errors)
	return store
}

const applicationSource = `import app.calculator
import app.user_service


class Application:
    def __init__(self):
        self.calc = app.calculator.Calculator()
        self.users = app.user_service.UserService()

    def run(self):
        total = self.calc.tally([1, 2, 3])
        profile = self.users.fetch_profile(7)
        return total, profile
`

func TestCircularDependencyScenario(t *testing.T) {
	calculatorSource := `class Calculator:
    def tally(self, values):
        total = 0
        for v in values:
            total += v
        return total
`
	userServiceSource := `class UserService:
    def fetch_profile(self, user_id):
        return {"id": user_id}
`

	store := buildProjectGraph(t, map[string]string{
		"app/application.py":  applicationSource,
		"app/calculator.py":   calculatorSource,
		"app/user_service.py": userServiceSource,
	})

	result := NewAnalyzer(store).DetectCircularDependencies(context.Background(), "shop")
	require.True(t, result.Success)
	assert.Empty(t, result.Findings, "one-directional use of both services is acyclic")
}

func TestCircularDependencyScenario_MutualReference(t *testing.T) {
	calculatorSource := `import app.user_service


class Calculator:
    def tally(self, values):
        total = 0
        for v in values:
            total += v
        return total

    def tally_for_user(self, user_id):
        profile = self.directory.fetch_profile(user_id)
        return profile
`
	userServiceSource := `class UserService:
    def fetch_profile(self, user_id):
        return {"id": user_id}

    def account_total(self, values):
        return self.calc.tally(values)
`

	store := buildProjectGraph(t, map[string]string{
		"app/application.py":  applicationSource,
		"app/calculator.py":   calculatorSource,
		"app/user_service.py": userServiceSource,
	})

	result := NewAnalyzer(store).DetectCircularDependencies(context.Background(), "shop")
	require.True(t, result.Success)

	var classFindings, fileFindings []models.AnalysisFinding
	for _, f := range result.Findings {
		switch f.Metadata["cycle_type"] {
		case string(models.CycleTypeClass):
			classFindings = append(classFindings, f)
		case string(models.CycleTypeFile):
			fileFindings = append(fileFindings, f)
		}
	}

	require.Len(t, classFindings, 1, "the mutual calls form exactly one class cycle")
	f := classFindings[0]
	assert.Contains(t, f.AffectedEntities, "app.calculator.Calculator")
	assert.Contains(t, f.AffectedEntities, "app.user_service.UserService")
	assert.NotContains(t, f.AffectedEntities, "app.application.Application",
		"the application only consumes the cycle, it is not part of it")

	// the same mutual reference also surfaces as a file-level cycle,
	// ranked below the class one
	require.Len(t, fileFindings, 1)
	assert.ElementsMatch(t, []string{"app/calculator.py", "app/user_service.py"}, fileFindings[0].AffectedEntities)
	assert.Greater(t, f.Severity.Rank(), fileFindings[0].Severity.Rank())
}
