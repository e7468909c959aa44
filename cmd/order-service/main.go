package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Sales-Order-Management/internal/config"
	invapp "github.com/dmehra2102/Sales-Order-Management/internal/inventory/application"
	invgrpc "github.com/dmehra2102/Sales-Order-Management/internal/inventory/infrastructure/grpc"
	invpg "github.com/dmehra2102/Sales-Order-Management/internal/inventory/infrastructure/postgres"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/application"
	orderhttp "github.com/dmehra2102/Sales-Order-Management/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/Sales-Order-Management/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/Sales-Order-Management/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/Sales-Order-Management/pkg/idempotency"
	"github.com/dmehra2102/Sales-Order-Management/pkg/logging"
	"github.com/dmehra2102/Sales-Order-Management/pkg/outbox"
	"github.com/dmehra2102/Sales-Order-Management/pkg/pgxtx"
	"github.com/dmehra2102/Sales-Order-Management/pkg/shutdown"
	"github.com/dmehra2102/Sales-Order-Management/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := orderpg.Migrate(ctx, log, pool); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, idempotency claims will fail until it recovers", "addr", cfg.RedisAddr, "err", err)
	}

	// Kafka producer
	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()
	if err := orderkafka.EnsureTopic(ctx, log, cfg.KafkaBrokers[0], cfg.OutboxTopic, 3); err != nil {
		log.Warn("kafka topic setup skipped", "topic", cfg.OutboxTopic, "err", err)
	}

	// Repositories, stock ledger & outbox
	orders := orderpg.NewRepository(log, pool)
	products := invpg.NewRepository(log, pool)
	history := orderpg.NewHistoryRepository(pool)
	outboxStore := orderpg.NewOutboxStore(log, pool)

	svc, err := application.NewService(application.Deps{
		Orders:     orders,
		Products:   products,
		Stock:      products,
		History:    history,
		Outbox:     outboxStore,
		UnitOfWork: pgxtx.NewTransactor(pool),
	})
	if err != nil {
		log.Error("order service init failed", "err", err)
		os.Exit(1)
	}
	stock := invapp.NewService(products)

	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, cfg.ServiceName+"-relay",
		outbox.WithBatchSize(cfg.RelayBatchSize),
		outbox.WithInterval(cfg.RelayInterval),
	)

	// HTTP
	handler := orderhttp.NewHandler(log, svc, stock)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(orderhttp.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(idempotency.Middleware(log, idempotency.NewStore(rdb, cfg.IdempotencyTTL), idempotency.WithScope(orderhttp.ActorScope)))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	// gRPC stock ledger
	gs, err := invgrpc.Run(cfg.GRPCAddr, invgrpc.NewServer(log, stock))
	if err != nil {
		log.Error("grpc listen failed", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}
	log.Info("grpc listening", "addr", cfg.GRPCAddr)

	// Run relay
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	// Run HTTP
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	gs.GracefulStop()
	<-relayDone
	log.Info("order-service shutdown complete")
}
