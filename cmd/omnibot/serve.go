package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/omnibot"
	"github.com/aretw0/omnibot/internal/cli"
	httpAdapter "github.com/aretw0/omnibot/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the engine behind a JSON API for channel adapters and agent dashboards.
Conversation events are streamed over Server-Sent Events on /events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		logger, err := cli.NewLogger(cmd.ErrOrStderr(), cfg)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		stack, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		if err := stack.Engine.Validate(ctx); err != nil {
			logger.Warn("active flow has problems", "err", err)
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithBroker(stack.Broker),
			httpAdapter.WithMetrics(stack.Metrics),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxInputSize(cfg.MaxInputSize),
			httpAdapter.WithRateLimit(cfg.RateLimit, cfg.RateWindow),
			httpAdapter.WithVersion(omnibot.Version),
		}
		if len(cfg.AllowedOrigins) > 0 {
			opts = append(opts, httpAdapter.WithAllowedOrigins(cfg.AllowedOrigins...))
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           httpAdapter.NewHandler(stack.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("omnibot listening", "addr", srv.Addr, "flows", cfg.FlowsPath, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.Info("shutting down", "signal", ctx.Signal())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}
		logger.Info("omnibot stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides OMNIBOT_ADDR)")
}
