package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movieweb/internal/config"
	"github.com/iliyamo/movieweb/internal/database"
	"github.com/iliyamo/movieweb/internal/handler"
	"github.com/iliyamo/movieweb/internal/logger"
	"github.com/iliyamo/movieweb/internal/lookup"
	"github.com/iliyamo/movieweb/internal/middleware"
	"github.com/iliyamo/movieweb/internal/queue"
	"github.com/iliyamo/movieweb/internal/repository"
	"github.com/iliyamo/movieweb/internal/repository/filestore"
	"github.com/iliyamo/movieweb/internal/repository/sqlstore"
	"github.com/iliyamo/movieweb/internal/router"
	"github.com/iliyamo/movieweb/internal/service"
	"github.com/iliyamo/movieweb/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.StoreBackend).Fatal("open store")
	}
	if db != nil {
		defer db.Close()
	}

	rdb := config.NewRedisClient(cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	client := lookup.NewClient(lookup.ClientConfig{
		BaseURL:  cfg.Lookup.BaseURL,
		APIKey:   cfg.Lookup.APIKey,
		Timeout:  cfg.Lookup.Timeout,
		Rate:     cfg.Lookup.Rate,
		Redis:    rdb,
		CacheTTL: cfg.Lookup.CacheTTL,
		Logger:   log,
	})
	if cfg.Lookup.APIKey == "" {
		log.Warn("OMDB_API_KEY is empty, lookups will be rejected by the metadata service")
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL)
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.RabbitMQURL, cfg.ActivityLogDir, log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("activity consumer stopped")
			}
		}()
	} else {
		log.Info("RABBITMQ_URL is empty, activity events disabled")
	}

	lib := service.NewLibrary(store, client, events, log)
	h := handler.NewHandler(lib, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = web.MustRenderer()
	e.HTTPErrorHandler = h.ErrorHandler
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)

	router.RegisterRoutes(e, h, limit)
	router.RegisterAPI(e, h, cfg.JWTSecret, limit)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, the JSON API is unauthenticated")
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    addr,
			"env":     cfg.Env,
			"backend": cfg.StoreBackend,
			"reviews": lib.ReviewsEnabled(),
		}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

// openStore returns the configured store. The *sql.DB is nil for the json
// backend.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, *sql.DB, error) {
	switch cfg.StoreBackend {
	case config.BackendJSON:
		s, err := filestore.Open(cfg.DataFile)
		return s, nil, err
	default:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		s := sqlstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return s, db, nil
	}
}
