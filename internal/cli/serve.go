package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/M3PH1S69/warehouse-monitoring/internal/api"
	"github.com/M3PH1S69/warehouse-monitoring/internal/backup"
	"github.com/M3PH1S69/warehouse-monitoring/internal/config"
	"github.com/M3PH1S69/warehouse-monitoring/internal/events"
	"github.com/M3PH1S69/warehouse-monitoring/internal/imaging"
	"github.com/M3PH1S69/warehouse-monitoring/internal/ledger"
	"github.com/M3PH1S69/warehouse-monitoring/internal/logging"
	"github.com/M3PH1S69/warehouse-monitoring/internal/metrics"
	"github.com/M3PH1S69/warehouse-monitoring/internal/ratelimit"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// limiterSweepInterval is how often idle rate limit buckets are dropped.
const limiterSweepInterval = 10 * time.Minute

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	closeLog, err := logging.Setup(cfg.Log.Path, level)
	if err != nil {
		return err
	}
	defer closeLog()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := openDatabase(ctx, cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.Database.Path)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret, err = store.GetJWTSecret(ctx, database)
		if err != nil {
			slog.Error("failed to get JWT secret", "error", err)
			return err
		}
	}

	m := metrics.New()

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NATSURL != "" {
		p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// Recording stock must not depend on the broker being up.
			slog.Warn("event publishing disabled", "error", err)
		} else {
			publisher = p
			slog.Info("publishing transaction events", "url", cfg.Events.NATSURL, "subject", cfg.Events.Subject)
		}
	}
	defer publisher.Close()

	l := ledger.New(database,
		ledger.WithAllowNegativeStock(cfg.Ledger.AllowNegativeStock),
		ledger.WithPublisher(publisher),
		ledger.WithMetrics(m),
	)

	loginLimiter := ratelimit.New(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	apiLimiter := ratelimit.New(cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow)

	var runner *backup.Runner
	if cfg.Backup.Enabled {
		runner = backup.NewRunner(database, cfg.Backup.Dir, cfg.Backup.Keep, backup.WithMetrics(m))
		sched, err := backup.NewScheduler(runner, cfg.Backup.Frequency)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	handler := api.NewRouter(api.Deps{
		DB:           database,
		JWTSecret:    jwtSecret,
		TokenExpiry:  cfg.Auth.TokenExpiry,
		Ledger:       l,
		LoginLimiter: loginLimiter,
		APILimiter:   apiLimiter,
		Metrics:      m,
		Images:       imaging.New(cfg.Images.MaxDimension),
		Backups:      runner,
		Clock:        func() time.Time { return time.Now().In(loc) },
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepLimiters(ctx, loginLimiter, apiLimiter)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Addr,
			"allow_negative_stock", l.AllowsNegativeStock(), "timezone", loc.String())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}

	slog.Info("server stopped, closing database")
	return nil
}

func sweepLimiters(ctx context.Context, limiters ...*ratelimit.Limiter) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, l := range limiters {
				l.Sweep(now)
			}
		}
	}
}
