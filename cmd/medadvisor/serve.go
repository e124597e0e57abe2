package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/config"
	"github.com/graphrx/medadvisor/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the medadvisor HTTP server",
	Long: `Start the HTTP server exposing the advisor API.

The server provides endpoints for:
- Asking the agent medication questions
- Querying patient medications, diagnoses and advice
- Checking drug interactions and contraindications
- Ingesting discharge notes
- Health checks`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().Int("port", 8080, "server port")
	serveCmd.Flags().String("mode", "release", "server mode (debug, release, test)")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.mode", serveCmd.Flags().Lookup("mode"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := medadvisor.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	srv := server.New(cfg, client)
	srv.Setup()

	errCh := make(chan error, 1)
	go func() {
		client.Logger.Info("server starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		client.Logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
