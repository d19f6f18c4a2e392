package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vibelink/messaging/internal/application"
	"github.com/vibelink/messaging/internal/config"
	"github.com/vibelink/messaging/internal/events"
	"github.com/vibelink/messaging/internal/fanout"
	"github.com/vibelink/messaging/internal/handlers"
	"github.com/vibelink/messaging/internal/media"
	"github.com/vibelink/messaging/internal/notifier"
	"github.com/vibelink/messaging/internal/observability"
	"github.com/vibelink/messaging/internal/presence"
	"github.com/vibelink/messaging/internal/registry"
	"github.com/vibelink/messaging/internal/router"
	"github.com/vibelink/messaging/internal/server"
	"github.com/vibelink/messaging/internal/store"
	"github.com/vibelink/messaging/internal/store/memory"
	"github.com/vibelink/messaging/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	instanceID := getOrGenerateInstanceID(cfg.InstanceID)

	messageStore, storePing := initStore(ctx, cfg, log)

	reg := registry.New()

	var pres *presence.Presence
	var rtr *fanout.Router
	if cfg.RedisAddr != "" {
		redisClient := initRedis(ctx, cfg.RedisAddr, log)
		defer redisClient.Close()
		pres = presence.New(redisClient, instanceID)
		rtr = fanout.New(redisClient, instanceID)
	}

	note := notifier.New(reg, pres, rtr, instanceID)
	if rtr != nil {
		rtr.Subscribe(ctx, note.DeliverLocal)
	}

	var feed *events.Feed
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		feed = events.NewFeed(producer, cfg.KafkaTopic)
	}

	uploader := media.NewImageKit(cfg.ImageKitPrivateKey, cfg.ImageKitUploadURL, cfg.ImageKitURLEndpoint)

	app := application.New(messageStore, note, uploader, feed)

	msgH := handlers.NewMessageHandler(app, cfg.HistoryPageSize)
	chanH := handlers.NewChannelHandler(app, reg, pres)

	mainSrv := server.New(cfg.HTTPAddr, router.New(msgH, chanH, cfg.JWTSecret, cfg.ServiceName, cfg.RateLimitPerMin))
	obsSrv := initObservabilityServer(cfg, storePing)

	startServers(cfg, obsSrv, mainSrv, log)

	<-ctx.Done()
	performGracefulShutdown(obsSrv, mainSrv, reg, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func getOrGenerateInstanceID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func initStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.MessageStore, func(context.Context) error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no DATABASE_URL configured, using in-memory message store")
		return memory.New(), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping failed", zap.Error(err))
	}

	repo := postgres.New(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("schema init failed", zap.Error(err))
	}
	return repo, repo.Ping
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initObservabilityServer(cfg *config.Config, storePing func(context.Context) error) *http.Server {
	mux := chi.NewRouter()
	mux.Use(observability.MetricsMiddleware(cfg.ServiceName))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(storePing))
	return &http.Server{Addr: cfg.ObsHTTPAddr, Handler: mux}
}

func startServers(cfg *config.Config, obsSrv *http.Server, mainSrv *server.Server, log *zap.Logger) {
	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("starting main server", zap.String("addr", cfg.HTTPAddr))
		if err := mainSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
}

func performGracefulShutdown(obs *http.Server, main *server.Server, reg *registry.Registry, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reg.CloseAll()
	if err := main.Shutdown(ctx); err != nil {
		log.Error("error during main server shutdown", zap.Error(err))
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Error("error during observability server shutdown", zap.Error(err))
	}
	log.Info("shutdown complete, exiting")
}
