package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/archlens/archlens/internal/errors"
)

// Client wraps the Neo4j driver with connection pooling, fail-fast
// connectivity verification, and query helpers.
type Client struct {
	driver   neo4j.DriverWithContext
	logger   *slog.Logger
	database string
	batch    BatchConfig
}

// NewClient creates a Neo4j client against the default database.
func NewClient(ctx context.Context, uri, user, password string) (*Client, error) {
	return NewClientWithDatabase(ctx, uri, user, password, "neo4j")
}

// NewClientWithDatabase creates a Neo4j client with a specific database.
// Connectivity is verified up front so a dead store fails the caller
// immediately instead of on the first write.
func NewClientWithDatabase(ctx context.Context, uri, user, password, database string) (*Client, error) {
	if uri == "" || user == "" || password == "" {
		return nil, apperrors.ValidationErrorf("neo4j credentials missing: uri=%s, user=%s", uri, user)
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = 50
			config.ConnectionAcquisitionTimeout = 60 * time.Second
			config.MaxConnectionLifetime = 3600 * time.Second
			config.SocketConnectTimeout = 5 * time.Second
			config.SocketKeepalive = true
		})
	if err != nil {
		return nil, apperrors.ConnectionError(err, "failed to create neo4j driver")
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.ConnectionError(err, fmt.Sprintf("failed to connect to neo4j at %s", uri))
	}

	logger := slog.Default().With("component", "neo4j")
	logger.Info("neo4j client connected", "uri", uri, "database", database)

	return &Client{
		driver:   driver,
		logger:   logger,
		database: database,
		batch:    DefaultBatchConfig(),
	}, nil
}

// Ping verifies Neo4j connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.ConnectionError(err, "neo4j connectivity check failed")
	}
	return nil
}

// ExecuteRead runs a parameterized read query with reader routing and
// returns the records as maps.
func (c *Client) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, apperrors.QueryError(err, "read query failed")
	}

	records := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, record.AsMap())
	}
	c.logger.Debug("read query executed", "record_count", len(records))
	return records, nil
}

// UpsertNodes merges one label's nodes in bounded UNWIND batches.
func (c *Client) UpsertNodes(ctx context.Context, label string, nodes []GraphNode) (int, error) {
	return c.writer().UpsertNodes(ctx, label, nodes)
}

// UpsertEdges merges one type's edges in bounded UNWIND batches.
func (c *Client) UpsertEdges(ctx context.Context, edgeType string, edges []GraphEdge) (int, error) {
	return c.writer().UpsertEdges(ctx, edgeType, edges)
}

// SetBatchConfig swaps the write batch sizing profile.
func (c *Client) SetBatchConfig(config BatchConfig) {
	c.batch = config
}

func (c *Client) writer() *BatchWriter {
	return NewBatchWriter(c.driver, c.database, c.batch)
}

// Driver exposes the underlying driver for advanced operations.
func (c *Client) Driver() neo4j.DriverWithContext {
	return c.driver
}

// Database returns the configured database name.
func (c *Client) Database() string {
	return c.database
}

// Close closes the Neo4j driver connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return apperrors.ConnectionError(err, "failed to close neo4j driver")
	}
	c.logger.Info("neo4j client closed")
	return nil
}
