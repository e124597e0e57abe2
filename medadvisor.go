// Package medadvisor assembles the medication knowledge-graph advisor:
// a Neo4j graph built from discharge notes and drug-database records,
// query tooling over it, and an LLM agent that answers patient
// questions through those tools.
package medadvisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/graphrx/medadvisor/pkg/agent"
	"github.com/graphrx/medadvisor/pkg/cache"
	"github.com/graphrx/medadvisor/pkg/config"
	"github.com/graphrx/medadvisor/pkg/driver"
	"github.com/graphrx/medadvisor/pkg/etl"
	"github.com/graphrx/medadvisor/pkg/executor"
	"github.com/graphrx/medadvisor/pkg/logger"
	"github.com/graphrx/medadvisor/pkg/tools"
)

// Client wires the full advisor stack over one store connection.
type Client struct {
	Config   *config.Config
	Logger   *slog.Logger
	Executor *executor.Executor
	Loader   *etl.Loader
	Schema   *driver.SchemaManager
	Tools    *tools.Tools

	// Agent is nil when no LLM endpoint is configured; the retrieval
	// tools and ETL pipeline work without one.
	Agent *agent.Agent
}

// New connects to the graph store and assembles the client. The agent
// is attached only when an LLM API key is configured.
func New(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	runner, err := driver.NewNeo4jRunner(
		cfg.Database.URI,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
	)
	if err != nil {
		return nil, err
	}

	var queryCache *cache.QueryCache
	if cfg.Cache.Enabled {
		queryCache = cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}

	exec := executor.New(runner, queryCache, log)
	toolset := tools.New(exec, log)

	client := &Client{
		Config:   cfg,
		Logger:   log,
		Executor: exec,
		Loader:   etl.NewLoader(runner, log),
		Schema:   driver.NewSchemaManager(runner, log),
		Tools:    toolset,
	}

	if cfg.LLM.APIKey != "" {
		client.Agent = agent.New(newCompleter(cfg), toolset, cfg.LLM, log)
	}

	return client, nil
}

func newCompleter(cfg *config.Config) agent.ChatCompleter {
	clientConfig := openai.DefaultConfig(cfg.LLM.APIKey)
	if cfg.LLM.BaseURL != "" {
		clientConfig.BaseURL = cfg.LLM.BaseURL
	}
	return agent.WrapWithBreaker(openai.NewClientWithConfig(clientConfig), cfg.CircuitBreaker)
}

// NewSession starts a bounded-history conversation with the agent.
func (c *Client) NewSession() *agent.Session {
	if c.Agent == nil {
		return nil
	}
	return agent.NewSession(c.Agent, c.Config.LLM.HistorySize)
}

// VerifyConnectivity checks the store is reachable.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.Executor.VerifyConnectivity(ctx)
}

// Close releases the store connection.
func (c *Client) Close(ctx context.Context) error {
	return c.Executor.Close(ctx)
}
