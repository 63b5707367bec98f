package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"taskmanager-api/api"
	"taskmanager-api/auth"
	"taskmanager-api/config"
	"taskmanager-api/domain"
	"taskmanager-api/events"
	"taskmanager-api/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("TASKMANAGER_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.StandardLogger()
	configureLogger(logger, cfg.Log)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	publisher := events.NewPublisher(newSink(ctx, cfg.Events), events.Options{
		Workers: cfg.Events.Workers,
		Buffer:  cfg.Events.Buffer,
	})

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	users := domain.NewUserService(store, hasher)
	if cfg.Bootstrap.Enabled() {
		created, err := users.EnsureAdmin(ctx, domain.UserCreate{
			FirstName: "System",
			LastName:  "Administrator",
			Login:     cfg.Bootstrap.AdminLogin,
			Email:     cfg.Bootstrap.AdminEmail,
			Password:  cfg.Bootstrap.AdminPassword,
		})
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.WithField("login", cfg.Bootstrap.AdminLogin).Info("bootstrap admin created")
		}
	}

	key := []byte(cfg.JWT.Key)
	if len(key) == 0 {
		log.Warn("jwt key is not configured, logins will fail")
	}
	issuer := auth.NewIssuer(key, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL())

	var deduper api.Deduper
	var rc *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := cfg.Redis.RedisOptions()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc = redis.NewClient(opts)
		deduper = api.NewRedisDeduper(rc, cfg.Redis.IdempotencyTTL)
	} else {
		log.Info("redis not configured, idempotency keys are ignored")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
	api.Register(e, api.Deps{
		Users:    users,
		Projects: domain.NewProjectService(store, store, publisher),
		Desks:    domain.NewDeskService(store, publisher),
		Tasks:    domain.NewTaskService(store, publisher),
		Auth:     auth.NewService(store, hasher, issuer),
		Tokens:   auth.NewValidator(key, cfg.JWT.Issuer, cfg.JWT.Audience),
		Deduper:  deduper,
		Health:   store,
		Logger:   logger,
	})

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	publisher.Close()
	if rc != nil {
		_ = rc.Close()
	}
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("close storage")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
}

func configureLogger(l *log.Logger, cfg config.Log) {
	if cfg.Format == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		l.WithField("level", cfg.Level).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	l.SetLevel(level)
}

// newSink picks the Azure queue when a storage connection string is set and
// falls back to logging events.
func newSink(ctx context.Context, cfg config.Events) events.Sink {
	if cfg.ConnectionString == "" {
		log.Info("events queue not configured, domain events are logged only")
		return events.LogSink{}
	}
	sink, err := events.NewQueueSink(cfg.ConnectionString, cfg.Queue)
	if err != nil {
		log.Fatalf("events queue: %v", err)
	}
	if err := sink.EnsureQueue(ctx); err != nil {
		log.Fatalf("events queue: %v", err)
	}
	return sink
}
