package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dorinclisu/airzone-cli/internal/metrics"
)

var metricsListen string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics",
	Long: `Serve zone state and API activity as Prometheus metrics on /metrics.

Every scrape refreshes all installations, so scrape no more often than
once a minute. Press Ctrl+C to stop.

Examples:
  airzone-cli metrics                    # Listen on the configured address
  airzone-cli metrics --listen :9100`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsListen, "listen", "l", "", "Address to listen on (default from config, :9477)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	transport := metrics.NewTransport()
	tree, err := newTree(cfg, logger, transport)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		transport,
		metrics.NewCollector(tree, metrics.DefaultScrapeTimeout, logger),
	)

	addr := metricsListen
	if addr == "" {
		addr = cfg.Defaults.MetricsListen
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, `<html><body><a href="/metrics">metrics</a></body></html>`)
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errChan <- server.ListenAndServe()
	}()
	printSuccess("Serving metrics on %s/metrics (press Ctrl+C to stop)", addr)

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}
