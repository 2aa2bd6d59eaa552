package graph

import (
	"fmt"
	"regexp"

	apperrors "github.com/archlens/archlens/internal/errors"
)

// CypherBuilder builds parameterized Cypher queries. Every value travels as
// a parameter; identifiers (labels, edge types) are validated against a
// strict character set, which closes off Cypher injection.
type CypherBuilder struct {
	params  map[string]any
	counter int
}

// NewCypherBuilder creates a query builder.
func NewCypherBuilder() *CypherBuilder {
	return &CypherBuilder{params: make(map[string]any)}
}

// AddParam registers a value and returns its placeholder.
func (b *CypherBuilder) AddParam(value any) string {
	name := fmt.Sprintf("p%d", b.counter)
	b.counter++
	b.params[name] = value
	return "$" + name
}

// Params returns all registered parameters.
func (b *CypherBuilder) Params() map[string]any {
	return b.params
}

// BuildBatchMergeNodes creates an idempotent UNWIND merge over one label's
// node rows, keyed on each row's entity_key: absent nodes are created,
// present nodes get their attributes updated in place. Labels come from the
// static entity-type table, so a bad one is a programming error.
func (b *CypherBuilder) BuildBatchMergeNodes(label string, rows []map[string]any) (string, error) {
	if !isValidIdentifier(label) {
		return "", apperrors.InternalError(fmt.Sprintf("invalid node label: %s", label))
	}

	rowsParam := b.AddParam(rows)
	return fmt.Sprintf(`
		UNWIND %s AS node
		MERGE (n:%s {entity_key: node.entity_key})
		SET n += node
		RETURN count(n) as written
	`, rowsParam, label), nil
}

// BuildBatchMergeEdges creates an idempotent UNWIND merge over one type's
// edge rows. Each row carries from_key, to_key, and a props map. The MATCH
// clauses mean a missing endpoint yields zero rows rather than an error;
// callers detect dangling edges by comparing written counts against
// submitted counts.
func (b *CypherBuilder) BuildBatchMergeEdges(edgeType string, rows []map[string]any) (string, error) {
	if !isValidIdentifier(edgeType) {
		return "", apperrors.InternalError(fmt.Sprintf("invalid edge type: %s", edgeType))
	}

	rowsParam := b.AddParam(rows)
	return fmt.Sprintf(`
		UNWIND %s AS edge
		MATCH (from {entity_key: edge.from_key})
		MATCH (to {entity_key: edge.to_key})
		MERGE (from)-[r:%s]->(to)
		SET r += edge.props
		RETURN count(r) as written
	`, rowsParam, edgeType), nil
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidIdentifier reports whether s is safe as a Cypher label or
// edge type.
func isValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}
