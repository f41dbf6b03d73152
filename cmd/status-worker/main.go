// The status worker subscribes to the change-notification feed and keeps
// the seat occupancy snapshot in Redis warm, so viewing clients re-derive
// display state without polling the store. It also opportunistically
// flips bookings and subscriptions past their end date; reads never
// depend on that flip.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/crdb"
	mongoadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/mongo"
	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/rabbit"
	redisadapter "github.com/Destroyerg0d/studyhub-reservations/internal/adapters/redis"
	"github.com/Destroyerg0d/studyhub-reservations/internal/config"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/Destroyerg0d/studyhub-reservations/internal/status"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const statusQueue = "studyhub.status.q"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to crdb: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	catalog := mongoadapter.NewSeatCatalog(mongoClient.Database("studyhub"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cache := redisadapter.NewCache(redisClient)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, statusQueue, []string{"booking.*", "subscription.*"})
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	aggregator := status.NewAggregator(repo, catalog, cache, cfg.StatusCacheTTL, logger)
	worker := NewStatusWorker(repo, aggregator, consumer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown status worker")
}

type StatusWorker struct {
	repo       *crdb.Repository
	aggregator *status.Aggregator
	consumer   *rabbit.Consumer
	logger     observability.Logger
}

func NewStatusWorker(repo *crdb.Repository, aggregator *status.Aggregator, consumer *rabbit.Consumer, logger observability.Logger) *StatusWorker {
	return &StatusWorker{repo: repo, aggregator: aggregator, consumer: consumer, logger: logger}
}

// Run refreshes the snapshot on every feed event and on a slow ticker.
// The ticker covers dropped events; the feed is at-least-once with no
// ordering guarantee, so the refresh re-derives from the store instead of
// applying deltas.
func (w *StatusWorker) Run(ctx context.Context, tidyInterval time.Duration) {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		w.logger.Error("failed to start consuming: ", err)
		return
	}

	ticker := time.NewTicker(tidyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("change feed closed")
				return
			}
			if err := w.aggregator.Refresh(ctx); err != nil {
				w.logger.Error("failed to refresh seat status: ", err)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		case <-ticker.C:
			flipped, err := w.repo.ExpireDue(ctx)
			if err != nil {
				w.logger.Error("failed to expire due rows: ", err)
				continue
			}
			if flipped > 0 {
				w.logger.WithField("count", flipped).Info("expired due bookings")
			}
			if err := w.aggregator.Refresh(ctx); err != nil {
				w.logger.Error("failed to refresh seat status: ", err)
			}
		}
	}
}
