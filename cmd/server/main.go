// Command server runs the event pipeline: the HTTP producer edge, the queue
// workers, the websocket hub, and the audit and notification query APIs in
// one process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workpulse/internal/audit"
	"workpulse/internal/directory"
	"workpulse/internal/firehose"
	"workpulse/internal/hub"
	"workpulse/internal/jwttoken"
	"workpulse/internal/notification"
	"workpulse/internal/platform/config"
	"workpulse/internal/platform/httpserver"
	"workpulse/internal/platform/logger"
	"workpulse/internal/platform/metrics"
	"workpulse/internal/platform/postgres"
	"workpulse/internal/platform/redis"
	"workpulse/internal/processor"
	"workpulse/internal/queue"
	httptransport "workpulse/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	rc, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer rc.Close()

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "workpulse")

	dir := directory.NewPostgres(db)
	notifications := notification.NewService(notification.NewPostgres(db), log, m)

	auditOpts := []audit.Option{}
	var fh *firehose.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		fh, err = firehose.New(ctx, cfg.KafkaBrokers, log)
		if err != nil {
			return err
		}
		auditOpts = append(auditOpts, audit.WithMirror(fh))
		log.Info("audit firehose enabled", "brokers", cfg.KafkaBrokers)
	}
	audits := audit.NewService(audit.NewPostgres(db), log, m, auditOpts...)

	h := hub.New(notifications, dir, log, m, hub.WithValidator(tokens))

	proc, err := processor.New(audits, notifications, dir, h, log)
	if err != nil {
		return err
	}

	q := queue.NewRedis(rc.Client, cfg.Queue, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Validator:     tokens,
		Queue:         q,
		Audit:         audit.NewHandler(audits, log),
		Notifications: notification.NewHandler(notifications, log),
		Hub:           h,
	})
	srv := httpserver.New(cfg.Addr, router)

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- q.Run(ctx, proc.Process)
	}()

	log.Info("server starting", "addr", cfg.Addr, "workers", cfg.Queue.Workers)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	workersDown := false
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case err := <-workerErr:
		workersDown = true
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	log.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if !workersDown {
		if err := <-workerErr; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	if fh != nil {
		if err := fh.Close(shutdownCtx); err != nil {
			log.Warn("firehose close failed", "error", err)
		}
	}
	return nil
}
