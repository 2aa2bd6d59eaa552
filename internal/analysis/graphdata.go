package analysis

import (
	"context"
	"fmt"
)

// fileDependencyGraph builds the file-level dependency graph: resolved
// import edges between files, plus call edges lifted to the files that
// contain their endpoints.
func (a *Analyzer) fileDependencyGraph(ctx context.Context, projectName string) (*digraph, error) {
	g := newDigraph()

	records, err := a.backend.ExecuteRead(ctx, `
		MATCH (a:File {project_name: $project})-[:IMPORTS]->(b:File {project_name: $project})
		RETURN a.qualified_name AS from_file, b.qualified_name AS to_file
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, fmt.Errorf("file import query failed: %w", err)
	}
	for _, rec := range records {
		g.addEdge(recString(rec["from_file"]), recString(rec["to_file"]))
	}

	records, err = a.backend.ExecuteRead(ctx, `
		MATCH (m {project_name: $project})-[:CALLS]->(n {project_name: $project})
		WHERE m.file_path IS NOT NULL AND n.file_path IS NOT NULL
		  AND m.file_path <> n.file_path
		RETURN DISTINCT m.file_path AS from_file, n.file_path AS to_file
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, fmt.Errorf("cross-file call query failed: %w", err)
	}
	for _, rec := range records {
		g.addEdge(recString(rec["from_file"]), recString(rec["to_file"]))
	}

	return g, nil
}

// classGraphs builds the two class-level graphs separately: the inheritance
// graph (EXTENDS/IMPLEMENTS between classes and interfaces) and the
// call-chain graph (method calls lifted to the containing classes). They
// carry different confidence, so cycles are enumerated per graph.
func (a *Analyzer) classGraphs(ctx context.Context, projectName string) (inheritance, calls *digraph, err error) {
	inheritance = newDigraph()
	calls = newDigraph()

	records, err := a.backend.ExecuteRead(ctx, `
		MATCH (a {project_name: $project})-[:EXTENDS|IMPLEMENTS]->(b {project_name: $project})
		WHERE a.entity_type IN ['Class', 'Interface']
		  AND b.entity_type IN ['Class', 'Interface']
		RETURN a.qualified_name AS from_class, b.qualified_name AS to_class
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, nil, fmt.Errorf("inheritance query failed: %w", err)
	}
	for _, rec := range records {
		inheritance.addEdge(recString(rec["from_class"]), recString(rec["to_class"]))
	}

	records, err = a.backend.ExecuteRead(ctx, `
		MATCH (c1 {project_name: $project})-[:CONTAINS]->(m {project_name: $project})
		MATCH (m)-[:CALLS]->(n {project_name: $project})<-[:CONTAINS]-(c2 {project_name: $project})
		WHERE c1.entity_type = 'Class' AND c2.entity_type = 'Class'
		  AND c1.qualified_name <> c2.qualified_name
		RETURN DISTINCT c1.qualified_name AS from_class, c2.qualified_name AS to_class
	`, map[string]any{"project": projectName})
	if err != nil {
		return nil, nil, fmt.Errorf("class call-chain query failed: %w", err)
	}
	for _, rec := range records {
		calls.addEdge(recString(rec["from_class"]), recString(rec["to_class"]))
	}

	return inheritance, calls, nil
}

func recString(v any) string {
	s, _ := v.(string)
	return s
}

func recInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
