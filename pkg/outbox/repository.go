package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox event persistence.
// Save and SaveAll honor mongo session contexts, so inserts join the
// caller's transaction when one is active.
type Repository interface {
	// Save saves an outbox event
	Save(ctx context.Context, event *Event) error

	// SaveAll saves multiple outbox events in a single operation
	SaveAll(ctx context.Context, events []*Event) error

	// FindPending retrieves PENDING events, oldest first, up to limit
	FindPending(ctx context.Context, limit int) ([]*Event, error)

	// FindFailedForRetry retrieves FAILED events whose retry count is
	// still below maxRetries, oldest first
	FindFailedForRetry(ctx context.Context, maxRetries, limit int) ([]*Event, error)

	// MarkPublished marks an event as published
	MarkPublished(ctx context.Context, eventID string) error

	// MarkFailed increments the retry count, stores the error, and flips
	// the record to FAILED once the retry budget is spent
	MarkFailed(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublishedBefore deletes PUBLISHED events older than the cutoff
	// and returns the number removed
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByStatus returns the number of events in the given status
	CountByStatus(ctx context.Context, status Status) (int64, error)

	// FindByAggregateID retrieves all events for a specific aggregate
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*Event, error)

	// EnsureIndexes creates the indexes the other operations rely on
	EnsureIndexes(ctx context.Context) error
}
