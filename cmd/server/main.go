// Command server runs the MSME Clinic registration backend.
package main

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	adminauth "msmeclinic/internal/admin/auth"
	adminhandler "msmeclinic/internal/admin/handler"
	contacthandler "msmeclinic/internal/contact/handler"
	contactservice "msmeclinic/internal/contact/service"
	contactstore "msmeclinic/internal/contact/store"
	"msmeclinic/internal/notification/channel"
	"msmeclinic/internal/notification/deadletter"
	"msmeclinic/internal/notification/mailer"
	"msmeclinic/internal/notification/queue"
	"msmeclinic/internal/platform/config"
	"msmeclinic/internal/platform/httpserver"
	"msmeclinic/internal/platform/logger"
	"msmeclinic/internal/platform/metrics"
	platformredis "msmeclinic/internal/platform/redis"
	reghandler "msmeclinic/internal/registration/handler"
	regservice "msmeclinic/internal/registration/service"
	regstore "msmeclinic/internal/registration/store"
	transport "msmeclinic/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		regStore     regservice.Store
		contactStore contactservice.Store
		health       []transport.HealthChecker
	)
	if cfg.Database.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		regStore = regstore.NewPostgresStore(pool)
		contactStore = contactstore.NewPostgresStore(pool)
		health = append(health, poolHealth{pool})
		log.Info("using postgres stores")
	} else {
		regStore = regstore.NewInMemoryStore()
		contactStore = contactstore.NewInMemoryStore()
		log.Warn("no database configured, using in-memory stores")
	}

	channels, err := buildChannels(ctx, cfg.Notification, log)
	if err != nil {
		return err
	}

	var (
		queueOpts   []queue.Option
		deadLetters adminhandler.DeadLetterReader
	)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		dl := deadletter.NewRedisStore(redisClient)
		deadLetters = dl
		queueOpts = append(queueOpts, queue.WithDeadLetter(dl))
		health = append(health, redisClient)
		log.Info("dead-letter store enabled")
	}

	q := queue.New(log, m, channels, queue.Config{
		MaxAttempts:    cfg.Notification.MaxAttempts,
		BackoffBase:    cfg.Notification.BackoffBase,
		AttemptTimeout: cfg.Notification.AttemptTimeout,
		PacingDelay:    cfg.Notification.PacingDelay,
	}, queueOpts...)

	ml := mailer.New(cfg.Notification.FromName)
	regSvc := regservice.New(log, regStore, q, ml, m, cfg.Notification.OpsAlertEmail)
	contactSvc := contactservice.New(log, contactStore, q, ml, m, cfg.Notification.OpsAlertEmail)
	authenticator := adminauth.New(cfg.Admin.Email, cfg.Admin.Password,
		[]byte(cfg.Admin.JWTSigningKey), cfg.Admin.TokenTTL)

	handler := transport.New(transport.Deps{
		Logger:         log,
		Metrics:        m,
		Registry:       registry,
		Registrations:  reghandler.New(log, regSvc),
		Contacts:       contacthandler.New(log, contactSvc),
		Admin:          adminhandler.New(log, authenticator, regSvc, contactSvc, deadLetters),
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         health,
	})

	srv := httpserver.New(cfg.Server.Addr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := q.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildChannels assembles the ordered fallback chain. With nothing configured
// the queue logs messages instead of delivering them, so local development
// never needs AWS credentials.
func buildChannels(ctx context.Context, cfg config.Notification, log *slog.Logger) ([]channel.Channel, error) {
	if cfg.AWSRegion == "" || (cfg.FromEmail == "" && cfg.SNSTopicARN == "") {
		log.Warn("no notification channels configured, messages will be logged only")
		return []channel.Channel{channel.NewLogChannel(log)}, nil
	}

	ses, err := channel.NewSESChannel(ctx, cfg.AWSRegion, cfg.FromName, cfg.FromEmail)
	if err != nil {
		return nil, fmt.Errorf("build ses channel: %w", err)
	}
	sns, err := channel.NewSNSChannel(ctx, cfg.AWSRegion, cfg.SNSTopicARN)
	if err != nil {
		return nil, fmt.Errorf("build sns channel: %w", err)
	}
	log.Info("notification channels configured", "region", cfg.AWSRegion)
	return []channel.Channel{ses, sns}, nil
}

type poolHealth struct{ pool *pgxpool.Pool }

func (p poolHealth) Health(ctx context.Context) error { return p.pool.Ping(ctx) }
