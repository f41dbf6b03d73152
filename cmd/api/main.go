package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/crdb"
	mongoadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/mongo"
	redisadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/redis"
	"github.com/Destroyerg0d/studyhub-reservations/internal/booking"
	"github.com/Destroyerg0d/studyhub-reservations/internal/config"
	httphandler "github.com/Destroyerg0d/studyhub-reservations/internal/http"
	"github.com/Destroyerg0d/studyhub-reservations/internal/idempotency"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/Destroyerg0d/studyhub-reservations/internal/rateLimit"
	"github.com/Destroyerg0d/studyhub-reservations/internal/status"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	if err := crdb.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database("studyhub")
	catalog := mongoadapter.NewSeatCatalog(mongoDB, logger)
	if err := catalog.SeedDefault(context.Background()); err != nil {
		log.Fatalf("failed to seed seat catalog: %v", err)
	}
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(cache)

	svc := booking.NewService(repo, audit, logger)
	aggregator := status.NewAggregator(repo, catalog, cache, cfg.StatusCacheTTL, logger)

	handlers := httphandler.NewHandlers(cfg, svc, aggregator, repo, audit, idemp)
	r := httphandler.SetupRouter(cfg, handlers, logger, rl, idemp)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	logger.WithField("addr", cfg.ListenAddr).Info("reservation API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
