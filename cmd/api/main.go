package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todo-api/internal/cache"
	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/logger"
	"github.com/Tomlord1122/todo-api/internal/mediator"
	"github.com/Tomlord1122/todo-api/internal/notify"
	"github.com/Tomlord1122/todo-api/internal/secrets"
	"github.com/Tomlord1122/todo-api/internal/server"
	"github.com/Tomlord1122/todo-api/internal/service"
	"github.com/Tomlord1122/todo-api/internal/storage"
	"github.com/Tomlord1122/todo-api/internal/telemetry"
)

// resources are closed in order once the HTTP server has stopped.
type resources struct {
	log     *zap.Logger
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

func (r *resources) add(name string, fn func(context.Context) error) {
	r.closers = append(r.closers, namedCloser{name: name, close: fn})
}

func (r *resources) closeAll(ctx context.Context) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		r.log.Info("Closing " + c.name)
		if err := c.close(ctx); err != nil {
			r.log.Error("Error closing "+c.name, zap.Error(err))
		}
	}
}

func gracefulShutdown(apiServer *http.Server, res *resources, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	res.log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 5 seconds to finish the requests it is handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		res.log.Error("Server forced to shutdown", zap.Error(err))
	}

	res.closeAll(ctxTimeout)
	res.log.Info("Server exiting")

	done <- true
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if !cfg.IsProduction() {
		for _, name := range []string{"SECRETS_KEY", "PRESIGN_KEY"} {
			if os.Getenv(name) == "" {
				log.Warn(name + " not set, using a generated key that does not survive restarts")
			}
		}
	}

	res := &resources{log: log}
	ctx := context.Background()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Tracing.Endpoint, cfg.App.Version)
		if err != nil {
			return err
		}
		res.add("tracer", shutdown)
	}

	dbService, err := database.New(cfg.DB, log)
	if err != nil {
		return err
	}
	res.add("database connection pool", func(context.Context) error { return dbService.Close() })

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	health := map[string]server.Checker{"database": dbService}

	lists := connectCache(ctx, cfg.Redis, log, res, registry, health)

	manager, err := secrets.NewManager(dbService.GetDB(), cfg.SecretsKey())
	if err != nil {
		return err
	}

	deps := service.Dependencies{
		DB:      dbService.GetDB(),
		Lists:   lists,
		Secrets: manager,
	}

	if cfg.NATS.URL != "" {
		files, dispatcher, err := connectNATS(ctx, cfg, log, res, health)
		if err != nil {
			return err
		}
		deps.Files = files
		deps.Notifier = dispatcher
	} else {
		log.Warn("NATS_URL not set, file storage and notifications are disabled")
	}

	m := mediator.New(
		mediator.Logging(log),
		mediator.Recovery(log),
		mediator.Tracing(otel.Tracer(telemetry.ServiceName+"/mediator")),
		mediator.Metrics(registry),
	)
	service.Register(m, deps)

	srv := server.New(cfg.HTTP, log, m, registry, server.Options{
		Files:         deps.Files != nil,
		Notifications: deps.Notifier != nil,
		Health:        health,
	})
	res.add("rate limiter", func(context.Context) error { srv.Close(); return nil })
	apiServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, res, done)

	log.Info("Starting server", zap.String("addr", apiServer.Addr), zap.String("env", cfg.App.Env))
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	<-done
	log.Info("Graceful shutdown complete.")
	return nil
}

// connectCache returns a pass-through cache when Redis is not configured or
// unreachable at startup.
func connectCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger, res *resources,
	reg prometheus.Registerer, health map[string]server.Checker) *cache.ListCache {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set, list cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, list cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	lists := cache.New(client, "todo-api:", cfg.TTL, log)
	res.add("redis client", func(context.Context) error { return lists.Close() })
	reg.MustRegister(lists.Collector())
	health["cache"] = server.CheckerFunc(func() map[string]string {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lists.Ping(ctx); err != nil {
			return map[string]string{"status": "down", "error": err.Error()}
		}
		return map[string]string{"status": "up"}
	})
	return lists
}

func connectNATS(ctx context.Context, cfg *config.Config, log *zap.Logger, res *resources,
	health map[string]server.Checker) (*storage.Service, *notify.Dispatcher, error) {
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name(telemetry.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	res.add("NATS connection", func(context.Context) error { return nc.Drain() })
	health["nats"] = server.CheckerFunc(func() map[string]string {
		status := "up"
		if !nc.IsConnected() {
			status = "down"
		}
		return map[string]string{"status": status, "state": nc.Status().String()}
	})

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	store, err := storage.NewJetStreamObjectStore(ctx, js, cfg.NATS.Bucket)
	if err != nil {
		return nil, nil, err
	}
	files := storage.NewService(store, storage.NewPresigner(cfg.Storage.PresignKey),
		cfg.Storage.BaseURL, cfg.Storage.PresignTTL, cfg.HTTP.MaxUploadBytes)

	publisher, err := notify.NewJetStreamPublisher(ctx, js)
	if err != nil {
		return nil, nil, err
	}
	return files, notify.NewDispatcher(publisher), nil
}
