package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/nmcp"
	"github.com/hupe1980/nmcp/metrics"
	"github.com/hupe1980/nmcp/remote"
)

func newWorkerCmd(flags *globalFlags) *cobra.Command {
	var (
		url         string
		authKey     string
		metricsAddr string
		once        bool
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Poll the NMCP service and generate pending precomputed skeletons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("url") {
				cfg.Source.URL = url
			}
			if cmd.Flags().Changed("auth-key") {
				cfg.Source.AuthKey = authKey
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if err := cfg.ValidateSource(); err != nil {
				return err
			}

			ctx := cmd.Context()

			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			client, err := remote.New(cfg.Source.URL, func(o *remote.Options) {
				o.AuthKey = cfg.Source.AuthKey
				o.Timeout = cfg.Source.Timeout.Std()
				o.Retries = cfg.Source.Retries
				o.RequestsPerSecond = cfg.Source.RequestsPerSecond
				o.Logger = logger.Logger
			})
			if err != nil {
				return err
			}

			datasets, err := openDatasets(ctx, cfg)
			if err != nil {
				return err
			}

			opts := workerOptions(cfg, logger)
			if cfg.Metrics.Addr != "" {
				reg := prometheus.NewRegistry()
				opts = append(opts, nmcp.WithMetricsCollector(metrics.NewPrometheusCollector(reg)))

				srv := serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
				defer srv.Close()
			}

			w, err := nmcp.New(client, client, targets(datasets), opts...)
			if err != nil {
				return err
			}

			if once {
				if err := w.EnsureInfo(ctx); err != nil {
					return err
				}
				res, err := w.RunCycle(ctx)
				if err != nil {
					return err
				}
				printCycle(cmd, res)
				return nil
			}

			logger.InfoContext(ctx, "starting precomputed worker",
				"url", cfg.Source.URL,
				"output", cfg.Output.Location,
				"variants", cfg.Output.Variants,
				"poll_interval", cfg.Worker.PollInterval.Std(),
			)

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.InfoContext(context.WithoutCancel(ctx), "precomputed worker stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "GraphQL endpoint of the NMCP service")
	cmd.Flags().StringVar(&authKey, "auth-key", "", "authorization key sent with each request")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&once, "once", false, "run a single poll cycle and exit")

	return cmd
}

func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *nmcp.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "metrics server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}

func printCycle(cmd *cobra.Command, res nmcp.CycleResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pending: %d, generated: %d, failed: %d\n", res.Pending, res.Generated, res.Failed)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %v\n", e)
	}
}
