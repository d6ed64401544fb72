package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kineticcore/internal/core"
)

func newWorkerCmd(e *env) *cobra.Command {
	var consumers int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued jobs and serve Prometheus metrics",
		Long: `worker consumes the job stream until interrupted. Committed reports are
archived to the configured blob store and metrics are served on
KINETICCORE_METRICS_ADDR at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if consumers < 1 {
				return fmt.Errorf("--consumers must be at least 1")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			q, closeQueue, err := e.connectQueue()
			if err != nil {
				return err
			}
			defer func() { _ = closeQueue() }()
			if err := q.EnsureStreams(ctx); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			metrics, err := core.NewPrometheusMetricsRecorder(reg)
			if err != nil {
				return err
			}
			rt, err := e.open(ctx, runtimeOptions{
				archive:     true,
				coreOptions: []core.Option{core.WithMetricsRecorder(metrics)},
			})
			if err != nil {
				return err
			}
			defer func() {
				drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := rt.close(drainCtx); err != nil {
					e.logger.Error("worker shutdown", "error", err)
				}
			}()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: e.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("metrics server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			host, _ := os.Hostname()
			handle := jobHandler(rt.svc, e.cfg.Workers)
			for i := 0; i < consumers; i++ {
				name := fmt.Sprintf("%s-%d-%d", host, os.Getpid(), i)
				g.Go(func() error { return q.Consume(gctx, name, handle) })
			}
			e.logger.Info("worker started", "consumers", consumers, "metrics", e.cfg.MetricsAddr)
			err = g.Wait()
			e.logger.Info("worker stopped")
			return err
		},
	}
	cmd.Flags().IntVar(&consumers, "consumers", 1, "concurrent stream consumers")
	return cmd
}
