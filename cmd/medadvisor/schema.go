package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the graph store schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create constraints and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *medadvisor.Client) error {
			if err := client.Schema.Initialize(ctx); err != nil {
				return err
			}
			fmt.Println("Schema initialized.")
			return nil
		})
	},
}

var clearConfirm bool

var schemaClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every node and relationship",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *medadvisor.Client) error {
			if err := client.Schema.ClearDatabase(ctx, clearConfirm); err != nil {
				return err
			}
			fmt.Println("Database cleared.")
			return nil
		})
	},
}

var schemaStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and relationship counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *medadvisor.Client) error {
			stats, err := client.Schema.GetStats(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Nodes:")
			for _, label := range sortedKeys(stats.Nodes) {
				fmt.Printf("  %-12s %d\n", label, stats.Nodes[label])
			}
			fmt.Println("Relationships:")
			for _, relType := range sortedKeys(stats.Relationships) {
				fmt.Printf("  %-16s %d\n", relType, stats.Relationships[relType])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaInitCmd)
	schemaCmd.AddCommand(schemaClearCmd)
	schemaCmd.AddCommand(schemaStatsCmd)

	schemaClearCmd.Flags().BoolVar(&clearConfirm, "confirm", false, "confirm the wipe; without it the command refuses")
}

// withClient builds a client from config, runs fn, and closes it.
func withClient(fn func(context.Context, *medadvisor.Client) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := medadvisor.New(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer client.Close(ctx)

	return fn(ctx, client)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
