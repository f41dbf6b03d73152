package domain

import "errors"

// Booking attempt rejections. All are expected, user-recoverable outcomes
// returned as values; none is retried automatically.
var (
	ErrNoActivePlan       = errors.New("no active plan")
	ErrPlanIncompatible   = errors.New("plan incompatible with requested band")
	ErrAlreadyHasBandSlot = errors.New("subscription already backs a booking in this band")
	ErrSeatAlreadyMine    = errors.New("seat already held by caller")
	ErrSeatConflict       = errors.New("seat conflict")
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSerializationFailure = errors.New("serialization failure")

	// ErrStoreUnavailable wraps persistence or notification collaborator
	// failures. Transient and retryable, unlike the domain rejections.
	ErrStoreUnavailable = errors.New("store unavailable")
)
