package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a user's paid membership window. StartDate and EndDate
// are inclusive dates; the engine considers only the most recently created
// active row per user.
type Subscription struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PlanID    uuid.UUID
	PlanType  PlanType
	Status    SubscriptionStatus
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the subscription's end date has passed at the
// given instant. Expiry is evaluated lazily on read, there is no sweeper.
func (s Subscription) ExpiredAt(now time.Time) bool {
	return DateOf(now).After(DateOf(s.EndDate))
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
