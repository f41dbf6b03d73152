// Package outbox drains change-notification records from the store into
// the message broker. The feed is best-effort: subscribers re-derive
// state from the store, so a lost or repeated event is harmless.
package outbox

import (
	"context"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/crdb"
	"github.com/Destroyerg0d/studyhub-reservations/internal/adapters/rabbit"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	pollInterval   = 5 * time.Second
	batchSize      = 50
	publishRetries = 3
)

type Publisher struct {
	repo   *crdb.Repository
	pub    *rabbit.Publisher
	logger observability.Logger
}

func NewPublisher(repo *crdb.Repository, pub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, pub: pub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.repo.GetUnpublishedOutbox(ctx, batchSize)
	if err != nil {
		p.logger.Error("failed to read outbox: ", err)
		return
	}
	if len(records) > 0 {
		observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())
	} else {
		observability.OutboxLag.Set(0)
	}

	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.publishWithRetry(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("event_id", rec.ID).Error("failed to publish change event: ", err)
			if err := p.repo.MarkFailed(ctx, rec.ID); err != nil {
				p.logger.Error("failed to park outbox record: ", err)
			}
			continue
		}
		if err := p.repo.MarkPublished(ctx, rec.ID, time.Now(), rec.DedupeKey); err != nil {
			// Re-delivery on the next drain; consumers dedupe on MessageId.
			p.logger.Error("failed to mark outbox record published: ", err)
		}
	}
}

func (p *Publisher) publishWithRetry(ctx context.Context, key string, msg amqp.Publishing) error {
	var err error
	for i := 0; i < publishRetries; i++ {
		if err = p.pub.Publish(ctx, key, msg); err == nil {
			return nil
		}
		observability.PublishRetries.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * time.Second):
		}
	}
	return err
}
