package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/evcraddock/curbing/internal/logging"
	"github.com/evcraddock/curbing/internal/metrics"
	"github.com/evcraddock/curbing/internal/registry"
	"github.com/evcraddock/curbing/internal/session"
	"github.com/evcraddock/curbing/internal/store/backend"
	"github.com/evcraddock/curbing/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server that owns the house list and talks to the configured store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}

	logger := logging.Setup(cfg.Dev)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := backend.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("closing store", "error", cerr)
		}
	}()

	preg := prometheus.NewRegistry()
	preg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(preg)

	policy := registry.KeepOptimistic
	if cfg.Rollback {
		policy = registry.RollbackOnFailure
	}
	reg := registry.New(m.Store(st),
		registry.WithLogger(logger.With("component", "registry")),
		registry.WithPolicy(policy),
	)
	m.WatchHouses(reg.Len)

	if err := reg.LoadActive(ctx); err != nil {
		// The list stays empty until a reload succeeds.
		logger.Error("initial load failed", "error", err)
	}

	sess := session.New(reg,
		session.WithConcurrency(cfg.ResetConcurrency),
		session.WithLogger(logger.With("component", "session")),
	)

	srv := web.NewServer(reg, sess,
		web.WithLogger(logger),
		web.WithMetrics(promhttp.HandlerFor(preg, promhttp.HandlerOpts{})),
	)

	logger.Info("starting server",
		"port", cfg.Port,
		"driver", cfg.Store.Driver,
		"collection", cfg.Store.Collection,
		"policy", policy,
	)
	if err := srv.ListenAndServe(ctx, cfg.Port); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
