package graph

import (
	"context"
)

// GraphNode is the persisted counterpart of a code entity. Key is the
// project-scoped entity key the MERGE is keyed on; nodes are never shared
// across projects.
type GraphNode struct {
	Label      string
	Key        string
	Properties map[string]any
}

// GraphEdge is the persisted counterpart of a relationship, referencing
// endpoints by entity key.
type GraphEdge struct {
	Label      string
	FromKey    string
	ToKey      string
	Properties map[string]any
}

// Backend abstracts the property-graph store behind the builder and the
// read paths. The production implementation speaks Cypher to Neo4j; tests
// substitute an in-memory fake.
type Backend interface {
	// Ping verifies store connectivity. Builds fail fast when it errors.
	Ping(ctx context.Context) error

	// UpsertNodes idempotently merges nodes of one label, keyed by
	// entity key. Returns the number of nodes written.
	UpsertNodes(ctx context.Context, label string, nodes []GraphNode) (int, error)

	// UpsertEdges idempotently merges edges of one type. Returns the
	// number of edges actually created or matched; an edge whose
	// endpoint is missing is silently skipped by the store, which is how
	// dangling candidates surface (written < submitted).
	UpsertEdges(ctx context.Context, edgeType string, edges []GraphEdge) (int, error)

	// ExecuteRead runs a read-only query and returns the records as maps.
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// Close releases the store connection.
	Close(ctx context.Context) error
}
