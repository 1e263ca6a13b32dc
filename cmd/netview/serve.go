package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-netview/pkg/config"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/render"
	"github.com/dd0wney/cluso-netview/pkg/server"
)

const systemMetricsInterval = 5 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live view over HTTP",
		Long: `Run the network and the animation headless and expose them over HTTP.

  GET /scene.svg    current frame (?width=&height=)
  GET /scene.json   node and link positions
  GET /stats        latest tick report
  GET /events       mutation stream (server-sent events)
  GET /metrics      Prometheus metrics
  GET /healthz      health, also /readyz and /livez

Send SIGHUP to reload the log level from the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg, os.Stderr)
	sub := render.NewSubstrate(cfg.Render.Width, cfg.Render.Height, nil, logger)
	a, err := newApp(cfg, sub, logger)
	if err != nil {
		return err
	}
	defer a.close()
	a.start(ctx)

	go func() {
		ticker := time.NewTicker(systemMetricsInterval)
		defer ticker.Stop()
		for {
			a.metrics.UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	handler := server.NewHandler(server.Options{
		View:    a.view,
		Bus:     a.bus,
		Health:  a.healthChecker(),
		Metrics: a.metrics,
		SVG: render.SVGOptions{
			Width:  cfg.Render.Width,
			Height: cfg.Render.Height,
			Title:  "netview",
		},
		Logger: logger,
	})

	gs := server.NewGracefulServer(cfg.Serve.Addr, handler, logger)
	gs.SetReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(next.Level())
		logger.Info("log level reloaded", logging.String("level", next.Level().String()))
		return nil
	})

	info.Printf("  serving on http://%s\n", cfg.Serve.Addr)
	return gs.Run(ctx)
}
