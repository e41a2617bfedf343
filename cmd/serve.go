package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for enrichment, discovery and transfer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnrich(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		opts := []server.Option{
			server.WithRuns(env.Store),
			server.WithTransferrer(env.Transferrer),
			server.WithBatchConcurrency(cfg.Batch.MaxConcurrentCompanies),
			server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		}
		if cfg.Google.Key != "" {
			opts = append(opts, server.WithDiscoverer(newPlacesSearch(cfg)))
		} else {
			zap.L().Info("google.key not set, discovery endpoint disabled")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := server.NewHTTPServer(fmt.Sprintf(":%d", port), server.New(env.Orchestrator, opts...).Handler())

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
