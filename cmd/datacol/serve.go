package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/rajuthattil19-prog/datacol/internal/config"
	"github.com/rajuthattil19-prog/datacol/internal/delivery"
	"github.com/rajuthattil19-prog/datacol/internal/events"
	"github.com/rajuthattil19-prog/datacol/internal/ingest"
	"github.com/rajuthattil19-prog/datacol/internal/model"
	"github.com/rajuthattil19-prog/datacol/internal/query"
	"github.com/rajuthattil19-prog/datacol/internal/server"
	"github.com/rajuthattil19-prog/datacol/internal/store"
	"github.com/rajuthattil19-prog/datacol/internal/store/postgres"
	"github.com/rajuthattil19-prog/datacol/internal/store/rediscursor"
	datasync "github.com/rajuthattil19-prog/datacol/internal/sync"
	"github.com/rajuthattil19-prog/datacol/internal/telegram"
)

// pushQueueSize bounds webhook payloads waiting for the runner.
const pushQueueSize = 64

// healthPingInterval is how often the gRPC health service pings the store.
const healthPingInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the collector (webhook or long-poll ingestion plus HTTP API)",
	GroupID: "service",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	policy, err := ingest.ParsePolicy(strings.Join(cfg.AllowedKinds, ","))
	if err != nil {
		return err
	}

	// Connect to Postgres.
	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "store", db.Close)

	var cursors store.CursorStore = db
	if cfg.RedisURL != "" {
		rc, err := rediscursor.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "redis cursor store", rc.Close)
		cursors = rc
		logger.Info("cursor stored in redis")
	}

	// Create event publisher.
	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		logger.Info("events disabled (DATACOL_NATS_URL not set)")
	}
	defer closeLogged(logger, "publisher", publisher.Close)

	tg := telegram.NewClient(nil, cfg.TelegramAPIURL, cfg.BotToken)
	botUsername := ""
	if me, err := tg.GetMe(ctx); err != nil {
		logger.Warn("could not fetch bot identity, commands addressed to any bot will be answered", "err", err)
	} else {
		botUsername = me.Username
	}

	stats := query.NewService(db)
	dispatcher := ingest.NewDispatcher(db, ingest.Options{
		Policy:      policy,
		Replier:     tg,
		Reporter:    stats,
		Publisher:   publisher,
		BotUsername: botUsername,
		Logger:      logger,
	})
	runner := ingest.NewRunner(dispatcher, cursors, publisher, logger)

	// Claim the delivery mode with the platform.
	mode := cfg.Mode()
	if err := delivery.Claim(ctx, tg, mode, cfg.WebhookURL(), cfg.WebhookSecret); err != nil {
		return err
	}

	var (
		src    delivery.Source
		push   *delivery.PushSource
		intake server.Intaker
	)
	if mode == delivery.ModePush {
		push = delivery.NewPushSource(pushQueueSize)
		src, intake = push, push
	} else {
		src = delivery.NewPullSource(tg, cursors, delivery.PullConfig{
			ActiveWindow: cfg.PollActive,
			FetchTimeout: cfg.PollTimeout,
			IdleWindow:   cfg.PollIdle,
			CursorName:   model.CursorTelegram,
		}, logger)
	}

	// Start HTTP server.
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(server.Options{
			Intake:        intake,
			Stats:         stats,
			WebhookSecret: cfg.WebhookSecret,
			AuthToken:     cfg.AuthToken,
			Logger:        logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	// Start gRPC health server.
	var (
		grpcServer *grpc.Server
		hs         *health.Server
	)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			_ = httpServer.Close()
			return err
		}
		grpcServer, hs = server.NewGRPCServer(logger)
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()
		go server.MonitorHealth(ctx, hs, db, healthPingInterval, logger)
	}

	scheduler := startSync(ctx, cfg, db, logger)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	runner.Start(runCtx, src)
	logger.Info("datacol started",
		"mode", mode,
		"policy", policy.String(),
		"http_addr", cfg.HTTPAddr,
		"grpc_addr", cfg.GRPCAddr,
	)

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Wait() }()

	var exitErr error
	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-httpErr:
		exitErr = err
		logger.Error("HTTP server error", "err", err)
	case err := <-runErr:
		exitErr = err
		logger.Error("ingestion stopped unexpectedly", "err", err)
	}

	// Graceful shutdown.
	if hs != nil {
		hs.Shutdown()
	}
	cancelRun()
	if push != nil {
		// Pending webhooks get 503 and are re-delivered after restart.
		push.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
	}

	if err := runner.Wait(); err != nil && exitErr == nil {
		logger.Error("ingestion error", "err", err)
	}
	logger.Info("ingestion stopped")

	if scheduler != nil {
		scheduler.Stop()
		logger.Info("sync scheduler stopped")
	}

	logger.Info("shutdown complete")
	return exitErr
}

// startSync starts the backup scheduler when an interval and at least one
// destination are configured.
func startSync(ctx context.Context, cfg *config.Config, r datasync.Reader, logger *slog.Logger) *datasync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []datasync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := datasync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync destination enabled", "destination", s3Dest.String())
		}
	}
	if cfg.SyncGitRepo != "" {
		gitDest := datasync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
		dests = append(dests, gitDest)
		logger.Info("sync destination enabled", "destination", gitDest.String())
	}
	if len(dests) == 0 {
		logger.Warn("DATACOL_SYNC_INTERVAL set but no destination configured")
		return nil
	}

	scheduler := datasync.NewScheduler(r, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}

func closeLogged(logger *slog.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error("error closing "+what, "err", err)
	}
}
