package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/flowrec/flowrec"
	"yashubustudio/flowrec/internal/metrics"
	"yashubustudio/flowrec/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recommender over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := metrics.New()
			if err != nil {
				return fmt.Errorf("init metrics: %w", err)
			}
			a, err := root.bootstrap(flowrec.WithObserver(m))
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv, err := server.New(a.svc, m, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
