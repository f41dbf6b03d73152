package mongo

import (
	"context"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditLogger appends booking state changes to a capped-growth audit
// collection. Terminal booking rows may be purged from the store on
// re-insert, so the audit trail is the durable history.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	UserID    uuid.UUID `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log: ", err)
		return err
	}
	return nil
}

func (a *AuditLogger) BookingCreated(ctx context.Context, b domain.Booking) error {
	return a.LogEvent(ctx, "booking.created", b.UserID, bookingData(b))
}

func (a *AuditLogger) BookingCancelled(ctx context.Context, b domain.Booking) error {
	return a.LogEvent(ctx, "booking.cancelled", b.UserID, bookingData(b))
}

func (a *AuditLogger) SubscriptionActivated(ctx context.Context, sub domain.Subscription) error {
	return a.LogEvent(ctx, "subscription.activated", sub.UserID, map[string]interface{}{
		"subscription_id": sub.ID.String(),
		"plan_type":       string(sub.PlanType),
		"start_date":      sub.StartDate.Format("2006-01-02"),
		"end_date":        sub.EndDate.Format("2006-01-02"),
	})
}

func bookingData(b domain.Booking) map[string]interface{} {
	return map[string]interface{}{
		"booking_id":      b.ID.String(),
		"seat_number":     b.SeatNumber,
		"time_band":       string(b.Band),
		"subscription_id": b.SubscriptionID.String(),
		"start_date":      b.StartDate.Format("2006-01-02"),
		"end_date":        b.EndDate.Format("2006-01-02"),
		"status":          string(b.Status),
	}
}
