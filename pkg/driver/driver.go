// Package driver wraps the Neo4j Go driver behind a small interface the
// executor and loader depend on. One Runner owns one long-lived driver
// connection; Close releases it.
package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Runner executes Cypher against the graph store. Consumers depend on
// this interface rather than the concrete driver so tests can substitute
// a fake.
type Runner interface {
	// Read executes a read-only query and returns one map per record.
	Read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// Write executes a mutating query and returns one map per record.
	Write(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)

	// VerifyConnectivity checks the store is reachable.
	VerifyConnectivity(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Neo4jRunner implements Runner on a Neo4j bolt connection.
type Neo4jRunner struct {
	client   neo4j.DriverWithContext
	uri      string
	database string
}

// NewNeo4jRunner connects to the store at uri with basic auth.
func NewNeo4jRunner(uri, username, password, database string) (*Neo4jRunner, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jRunner{
		client:   client,
		uri:      uri,
		database: database,
	}, nil
}

// Read executes a read-only query in a read transaction.
func (r *Neo4jRunner) Read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}
	return result.([]map[string]any), nil
}

// Write executes a mutating query in a write transaction.
func (r *Neo4jRunner) Write(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := r.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return nil, err
	}
	return result.([]map[string]any), nil
}

func collectRows(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]map[string]any, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

// VerifyConnectivity checks the store is reachable. The diagnostic
// names the store address, never the credentials.
func (r *Neo4jRunner) VerifyConnectivity(ctx context.Context) error {
	if err := r.client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("store at %s unreachable: %w", r.uri, err)
	}
	return nil
}

// Close releases the driver connection.
func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.client.Close(ctx)
}
