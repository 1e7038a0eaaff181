package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/config"
	"github.com/Skotchmaster/shops_api/internal/db"
	"github.com/Skotchmaster/shops_api/internal/events"
	"github.com/Skotchmaster/shops_api/internal/httpserver"
	"github.com/Skotchmaster/shops_api/internal/identity"
	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/metrics"
	loggingmw "github.com/Skotchmaster/shops_api/internal/middleware/logging"
	"github.com/Skotchmaster/shops_api/internal/repo"
	"github.com/Skotchmaster/shops_api/internal/search"
	"github.com/Skotchmaster/shops_api/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	provider, exchange := identityProvider(cfg, gdb)

	if cfg.AutoMigrate {
		var extra []any
		if cfg.IdentityProvider == config.IdentityLocal {
			extra = append(extra, &identity.Identity{})
		}
		if err := db.AutoMigrate(gdb, extra...); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
	}

	bridge := identity.NewBridge(provider, identity.NewTokenExchanger(cfg.TokenExchangeURL, cfg.IdentityAPIKey, cfg.TokenExchangeTimeout))

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		publisher = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index search.Index = search.Nop{}
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		esClient, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = search.NewESIndex(esClient, cfg.ESIndex)
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL is empty")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	r := &repo.GormRepo{DB: gdb}
	shopSvc := &service.ShopService{Repo: r, Identity: bridge, Events: publisher, Metrics: rec}
	authSvc := &service.AuthService{Repo: r, Identity: bridge, Metrics: rec}
	catalogSvc := &service.CatalogService{Repo: r, Events: publisher, Search: index, Metrics: rec}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, rec))

	httpserver.Register(e, &httpserver.Deps{
		ShopHandler:    &httpserver.ShopHTTP{Svc: shopSvc},
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		Ready:          func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		Metrics:        metrics.Handler(reg),
		LoginRateLimit: cfg.LoginRateLimit,
		Exchange:       exchange,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "identity_provider", cfg.IdentityProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}

func identityProvider(cfg *config.Config, gdb *gorm.DB) (identity.Provider, echo.HandlerFunc) {
	switch cfg.IdentityProvider {
	case config.IdentityLocal:
		config.MustNonEmptyBytes(cfg.LocalAssertionSecret, "LOCAL_ASSERTION_SECRET")
		config.MustNonEmptyBytes(cfg.LocalIDTokenSecret, "LOCAL_ID_TOKEN_SECRET")
		if bytes.Equal(cfg.LocalAssertionSecret, cfg.LocalIDTokenSecret) {
			log.Fatal("LOCAL_ASSERTION_SECRET and LOCAL_ID_TOKEN_SECRET must differ")
		}
		local := identity.NewLocalProvider(gdb, cfg.LocalAssertionSecret, cfg.LocalIDTokenSecret)
		return local, local.ExchangeHandler
	case config.IdentityFirebase:
		config.MustNonEmpty(cfg.IdentityAPIKey, "IDENTITY_API_KEY")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		fb, err := identity.NewFirebaseProvider(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
		return fb, nil
	default:
		log.Fatalf("unknown IDENTITY_PROVIDER %q", cfg.IdentityProvider)
		return nil, nil
	}
}
