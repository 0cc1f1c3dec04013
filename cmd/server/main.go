package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockroom/internal/activity"
	activityhandler "stockroom/internal/activity/handler"
	activitystore "stockroom/internal/activity/store"
	"stockroom/internal/asset/cache"
	assethandler "stockroom/internal/asset/handler"
	assetmetrics "stockroom/internal/asset/metrics"
	assetservice "stockroom/internal/asset/service"
	assetstore "stockroom/internal/asset/store"
	borrowinghandler "stockroom/internal/borrowing/handler"
	borrowingservice "stockroom/internal/borrowing/service"
	borrowingstore "stockroom/internal/borrowing/store"
	httpapi "stockroom/internal/http"
	issuehandler "stockroom/internal/issue/handler"
	issuemetrics "stockroom/internal/issue/metrics"
	issueservice "stockroom/internal/issue/service"
	issuestore "stockroom/internal/issue/store"
	"stockroom/internal/mailer"
	mailerhandler "stockroom/internal/mailer/handler"
	"stockroom/internal/platform/config"
	"stockroom/internal/platform/httpserver"
	"stockroom/internal/platform/kafka"
	"stockroom/internal/platform/logger"
	"stockroom/internal/platform/metrics"
	"stockroom/internal/platform/middleware"
	"stockroom/internal/platform/postgres"
	platformredis "stockroom/internal/platform/redis"
	repairhandler "stockroom/internal/repair/handler"
	repairservice "stockroom/internal/repair/service"
	repairstore "stockroom/internal/repair/store"
	shipmenthandler "stockroom/internal/shipment/handler"
	shipmentservice "stockroom/internal/shipment/service"
	shipmentstore "stockroom/internal/shipment/store"
	"stockroom/pkg/jwttoken"
	"stockroom/pkg/platform/tx"
)

const activityBufferSize = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.ActivityTopic)
	if err != nil {
		log.Error("failed to create kafka producer", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := producer.EnsureTopic(ensureCtx, 3, 1); err != nil {
			cancel()
			log.Error("failed to ensure activity topic", "topic", cfg.ActivityTopic, "error", err)
			os.Exit(1)
		}
		cancel()
	}

	httpMetrics := metrics.New()
	runner := tx.NewPostgresRunner(db)

	assetStore := assetstore.NewPostgres(db)
	issueStore := issuestore.NewPostgres(db)
	repairStore := repairstore.NewPostgres(db)
	shipmentStore := shipmentstore.NewPostgres(db)
	borrowingStore := borrowingstore.NewPostgres(db)
	activityStore := activitystore.NewPostgres(db)

	var assetCache *cache.Snapshot
	if redisClient != nil {
		assetCache = cache.NewSnapshot(redisClient, config.AssetCacheTTL, log)
	}

	recorder := activity.NewChannelRecorder(log, activityBufferSize)
	worker := activity.NewWorker(activityStore, recorder.Inbox(), log)
	if producer != nil {
		worker = worker.WithSink(producer)
	}

	assetSvcOpts := []assetservice.Option{
		assetservice.WithMetrics(assetmetrics.New()),
		assetservice.WithRecorder(recorder),
	}
	issueSvcOpts := []issueservice.Option{
		issueservice.WithMetrics(issuemetrics.New()),
		issueservice.WithRecorder(recorder),
	}
	repairSvcOpts := []repairservice.Option{repairservice.WithRecorder(recorder)}
	shipmentSvcOpts := []shipmentservice.Option{shipmentservice.WithRecorder(recorder)}
	borrowingSvcOpts := []borrowingservice.Option{borrowingservice.WithRecorder(recorder)}
	if assetCache != nil {
		assetSvcOpts = append(assetSvcOpts, assetservice.WithCache(assetCache))
		issueSvcOpts = append(issueSvcOpts, issueservice.WithCache(assetCache))
		repairSvcOpts = append(repairSvcOpts, repairservice.WithCache(assetCache))
		shipmentSvcOpts = append(shipmentSvcOpts, shipmentservice.WithCache(assetCache))
		borrowingSvcOpts = append(borrowingSvcOpts, borrowingservice.WithCache(assetCache))
	}

	assetSvc := assetservice.NewService(assetStore, assetSvcOpts...)
	issueSvc := issueservice.NewService(runner, assetStore, issueStore, issueSvcOpts...)
	repairSvc := repairservice.NewService(runner, assetStore, repairStore, repairSvcOpts...)
	shipmentSvc := shipmentservice.NewService(runner, assetStore, shipmentStore, shipmentSvcOpts...)
	borrowingSvc := borrowingservice.NewService(runner, assetStore, borrowingStore, borrowingSvcOpts...)

	var sender mailer.Sender = mailer.NopSender{}
	if cfg.SMTPAddr != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	healthCheckers := map[string]func() error{
		"postgres": func() error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		healthCheckers["redis"] = func() error { return redisClient.Health(ctx) }
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Logger:         log,
		Metrics:        httpMetrics,
		JWTValidator:   jwtValidator{jwtService},
		RequestTimeout: cfg.RequestTimeout,
		Assets:         assethandler.NewHandler(assetSvc),
		Issues:         issuehandler.NewHandler(issueSvc),
		Repairs:        repairhandler.NewHandler(repairSvc),
		Shipments:      shipmenthandler.NewHandler(shipmentSvc),
		Borrowing:      borrowinghandler.NewHandler(borrowingSvc),
		Activity:       activityhandler.NewHandler(activityStore),
		Mailer:         mailerhandler.NewHandler(sender, log),
		HealthCheckers: healthCheckers,
	})

	server := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// jwtValidator adapts the token service to the middleware's validator
// interface.
type jwtValidator struct {
	service *jwttoken.JWTService
}

func (v jwtValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{UserID: claims.UserID, UserName: claims.UserName}, nil
}
