package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gradecoach/gradecoach/internal/completion/openai"
	"github.com/gradecoach/gradecoach/internal/config"
	errwrap "github.com/gradecoach/gradecoach/internal/errors"
	"github.com/gradecoach/gradecoach/internal/grader"
	"github.com/gradecoach/gradecoach/internal/limiter"
	"github.com/gradecoach/gradecoach/internal/metrics"
	"github.com/gradecoach/gradecoach/internal/observability"
	"github.com/gradecoach/gradecoach/internal/server"
	"github.com/gradecoach/gradecoach/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// limiterHealthChecker verifies the admission controller is wired in
type limiterHealthChecker struct {
	lim *limiter.SlidingWindow
}

func (l limiterHealthChecker) CheckHealth(ctx context.Context) error {
	if l.lim == nil {
		return errwrap.NewInternalError("submission limiter not initialized")
	}
	return nil
}

// upstreamConfigHealthChecker validates the completion provider settings.
// It does not call the provider; readiness must not spend quota or money.
type upstreamConfigHealthChecker struct {
	cfg config.OpenAIConfig
}

func (u upstreamConfigHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case u.cfg.BaseURL == "":
		return errwrap.NewConfigInvalidError("openai base URL not configured")
	case u.cfg.Model == "":
		return errwrap.NewConfigInvalidError("openai model not configured")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the grading HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize server logger
		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger(appName, logLevel)

		cfg, err := config.FromViper(viper.GetViper())
		if err != nil {
			observability.ServerLogger.Error("Invalid configuration", zap.Error(err))
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration load failed")
		}

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics
		if err := observability.InitMetrics(appName, metricsPort); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", metricsPort),
			zap.Int("quota_limit", cfg.Limiter.Limit),
			zap.Duration("quota_window", cfg.Limiter.Window),
			zap.String("model", cfg.OpenAI.Model))

		// Tone instructions: built-in defaults unless a YAML override is given
		tones, err := grader.LoadTones(cfg.Grader.TonesFile)
		if err != nil {
			observability.ServerLogger.Error("Failed to load tone overrides",
				zap.String("file", cfg.Grader.TonesFile),
				zap.Error(err))
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "tone configuration load failed")
		}

		// Wire the grading stack
		lim := limiter.New(cfg.Limiter.Limit, cfg.Limiter.Window)
		client := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
		if cfg.OpenAI.Timeout > 0 {
			client.Timeout = cfg.OpenAI.Timeout
		}
		svc := grader.NewService(lim, client, cfg.OpenAI.Model, tones)

		// Background janitor for expired quota entries
		janitorCtx, stopJanitor := context.WithCancel(cmd.Context())
		defer stopJanitor()
		if cfg.Limiter.SweepInterval > 0 {
			go lim.Run(janitorCtx, cfg.Limiter.SweepInterval)
			go func() {
				ticker := time.NewTicker(cfg.Limiter.SweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-janitorCtx.Done():
						return
					case <-ticker.C:
						metrics.SetTrackedIdentities(lim.Identities())
					}
				}
			}()
		}

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("limiter", limiterHealthChecker{lim: lim})
		hm.RegisterChecker("upstream_config", upstreamConfigHealthChecker{cfg: cfg.OpenAI})

		// Create server
		srv := server.New(cfg, svc)

		metrics.SetServerStartTime(time.Now().Unix())

		// Get shutdown timeout from config
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			stopJanitor()
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))

			// Quota and upstream settings are captured at startup; a restart is
			// required for them to take effect.

			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
