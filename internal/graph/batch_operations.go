package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/time/rate"

	apperrors "github.com/archlens/archlens/internal/errors"
)

// BatchWriter performs UNWIND-based batch upserts. The UNWIND pattern is
// the cheapest way to merge many nodes: one round trip per batch instead of
// one per node, and the store can optimize the plan once. Query text comes
// from CypherBuilder, which validates labels and edge types.
type BatchWriter struct {
	driver   neo4j.DriverWithContext
	database string
	config   BatchConfig
	limiter  *rate.Limiter
}

// NewBatchWriter creates a batch writer. A non-zero WritesPerSecond in the
// config throttles batch commits.
func NewBatchWriter(driver neo4j.DriverWithContext, database string, config BatchConfig) *BatchWriter {
	var limiter *rate.Limiter
	if config.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.WritesPerSecond), 1)
	}
	return &BatchWriter{
		driver:   driver,
		database: database,
		config:   config,
		limiter:  limiter,
	}
}

func (w *BatchWriter) wait(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	return w.limiter.Wait(ctx)
}

// UpsertNodes merges nodes of one label in bounded batches, keyed on
// entity_key. Re-running with unchanged input matches instead of creating.
func (w *BatchWriter) UpsertNodes(ctx context.Context, label string, nodes []GraphNode) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}

	written := 0
	batchSize := w.config.BatchSizeForLabel(label)

	for i := 0; i < len(nodes); i += batchSize {
		end := min(i+batchSize, len(nodes))

		rows := make([]map[string]any, 0, end-i)
		for _, node := range nodes[i:end] {
			rows = append(rows, node.Properties)
		}

		builder := NewCypherBuilder()
		query, err := builder.BuildBatchMergeNodes(label, rows)
		if err != nil {
			return written, err
		}

		if err := w.wait(ctx); err != nil {
			return written, err
		}
		result, err := neo4j.ExecuteQuery(ctx, w.driver, query,
			builder.Params(),
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(w.database))
		if err != nil {
			return written, apperrors.QueryError(err,
				fmt.Sprintf("batch %s upsert failed (batch %d-%d)", label, i, end))
		}
		written += countFromResult(result, end-i)
	}

	return written, nil
}

// UpsertEdges merges edges of one type in bounded batches. Endpoints are
// matched on entity_key; an edge whose endpoint does not exist produces no
// row, so the returned count under the submitted count means dangling
// candidates were skipped.
func (w *BatchWriter) UpsertEdges(ctx context.Context, edgeType string, edges []GraphEdge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	written := 0
	batchSize := w.config.EdgeBatchSize

	for i := 0; i < len(edges); i += batchSize {
		end := min(i+batchSize, len(edges))

		rows := make([]map[string]any, 0, end-i)
		for _, edge := range edges[i:end] {
			props := edge.Properties
			if props == nil {
				props = map[string]any{}
			}
			rows = append(rows, map[string]any{
				"from_key": edge.FromKey,
				"to_key":   edge.ToKey,
				"props":    props,
			})
		}

		builder := NewCypherBuilder()
		query, err := builder.BuildBatchMergeEdges(edgeType, rows)
		if err != nil {
			return written, err
		}

		if err := w.wait(ctx); err != nil {
			return written, err
		}
		result, err := neo4j.ExecuteQuery(ctx, w.driver, query,
			builder.Params(),
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(w.database))
		if err != nil {
			return written, apperrors.QueryError(err,
				fmt.Sprintf("batch %s edge upsert failed (batch %d-%d)", edgeType, i, end))
		}
		written += countFromResult(result, 0)
	}

	return written, nil
}

func countFromResult(result *neo4j.EagerResult, fallback int) int {
	if len(result.Records) > 0 {
		if v, ok := result.Records[0].Get("written"); ok {
			if n, ok := v.(int64); ok {
				return int(n)
			}
		}
	}
	return fallback
}
