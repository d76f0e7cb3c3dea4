package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/config"
	"github.com/iliyamo/event-ticketing-admin/internal/database"
	"github.com/iliyamo/event-ticketing-admin/internal/handler"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/router"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
	"github.com/iliyamo/event-ticketing-admin/internal/webhook"
)

func main() {
	_ = godotenv.Load() // .env is optional outside development

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	if created, err := users.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.BcryptCost); err != nil {
		return err
	} else if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.Admin.Email))
	}

	tokens := repository.NewTokenRepo(db)
	if n, err := tokens.PurgeExpired(ctx, time.Now().UTC()); err != nil {
		logger.Warn("refresh token purge failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("purged stale refresh tokens", zap.Int64("count", n))
	}

	rdb := config.NewRedisClient(cfg.Redis, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheClient := rdb
	if !cfg.Cache.Enabled {
		cacheClient = nil
	}
	eventCache := cache.New(cacheClient, cfg.Cache.TTLs, logger.Named("cache"))

	gateway := catalog.New(catalog.Config{
		Endpoint:    cfg.Catalog.Endpoint,
		AccessToken: cfg.Catalog.AccessToken,
		LocationID:  cfg.Catalog.LocationID,
		Timeout:     cfg.Catalog.Timeout,
	}, logger.Named("catalog"))

	var publisher service.Publisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		publisher = service.NewAMQPPublisher(cfg.RabbitURL, logger.Named("publisher"))
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.OrderLogDir, logger.Named("consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}

	webhooks := repository.NewWebhookRepo(db)
	orders := repository.NewOrderRepo(db)
	events := service.NewEventService(gateway, eventCache, logger.Named("events"))
	tickets := service.NewTicketService(gateway, eventCache, logger.Named("tickets"))
	intake := webhook.NewIntake(db, webhooks, logger.Named("intake"))
	webhookSvc := service.NewWebhookService(cfg.Webhook.Secret, intake, orders, eventCache, publisher, logger.Named("webhooks"))
	if !webhookSvc.Configured() {
		logger.Warn("WEBHOOK_SECRET not set; catalog deliveries will be refused")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, tokens, logger.Named("auth")),
		Events:   handler.NewEventHandler(events, logger),
		Tickets:  handler.NewTicketHandler(tickets, logger),
		Webhooks: handler.NewWebhookHandler(webhookSvc, logger),
		Admin:    handler.NewAdminHandler(orders, webhooks, eventCache, logger),
		Health:   handler.Health(db),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Limit:     cfg.Limit,
		Redis:     rdb,
		Log:       logger.Named("http"),
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.Bool("cache", eventCache.Enabled()))
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
