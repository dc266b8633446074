package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biodoia/goleapsocial/internal/webui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	devMode bool
	verbose bool
	port    int
)

// ServeCmd rappresenta il comando serve
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start the web server with the post generation form, the JSON API,
the websocket progress feed and the Prometheus metrics endpoint.`,
	Example: `  # Start server with default settings
  goleapsocial serve

  # Start in development mode with verbose logging
  goleapsocial serve --dev --verbose

  # Start with custom config on another port
  goleapsocial serve -c /path/to/config.yaml --port 9090`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (pretty logging)")
	ServeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	ServeCmd.Flags().IntVarP(&port, "port", "p", 0, "Override server.port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := logLevel(cmd, cfg)
	if verbose {
		level = "debug"
	}
	setupLogger(level, devMode || cfg.Monitoring.Logging.Format == "console")

	if port > 0 {
		cfg.Server.Port = port
	}

	log.Info().Msg("🚀 Starting GoLeapSocial")

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("model", cfg.LLM.Model).
		Str("search", cfg.Search.Provider).
		Bool("allow_degraded", cfg.LLM.AllowDegraded).
		Bool("dev_mode", devMode).
		Msg("Configuration loaded")

	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("No server-side API key configured; users must enter one in the form")
	}

	activity := webui.NewActivityHub()
	go activity.Run()
	defer activity.Stop()

	rt := newRuntime(cfg, activity)
	defer rt.Close()

	server := webui.NewServer(cfg, rt.runner, webui.Options{
		Metrics:   rt.metrics,
		Collector: rt.collector,
		Activity:  activity,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("🌐 Web UI running on http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Msgf("📊 Health check: http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)
	log.Info().Msgf("📡 Activity feed: ws://%s:%d/ws/activity", cfg.Server.Host, cfg.Server.Port)
	if cfg.Monitoring.Prometheus.Enabled {
		log.Info().Msgf("📈 Metrics: http://%s:%d/metrics", cfg.Server.Host, cfg.Server.Port)
	}
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msg("Press Ctrl+C to stop")

	return waitForShutdown(server, errCh)
}

func waitForShutdown(server *webui.Server, errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("⏳ Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
		return err
	}

	log.Info().Msg("✓ GoLeapSocial stopped cleanly")
	return nil
}
