package repository

import (
	"context"

	"carpool/internal/domain"
)

// RideRepository defines the persistence operations for the ride aggregate.
// GetByID and UpdateAggregate operate on the ride together with its
// memberships; listings are snapshot reads and need not be linearizable
// with concurrent writes.
type RideRepository interface {
	// Create persists a new ride advertisement.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride with its memberships.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListAvailable retrieves rides with status AVAILABLE ordered by
	// pickup time ascending, creation time as tiebreak.
	ListAvailable(ctx context.Context) ([]*domain.Ride, error)

	// ListByDriver retrieves the rides advertised by a driver, same order.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ListByStudent retrieves the rides the student currently holds a seat
	// on, whether as sole rider or group member, same order. Released
	// seats leave no trace, so those rides drop out of the result.
	ListByStudent(ctx context.Context, studentID string) ([]*domain.Ride, error)

	// UpdateAggregate persists the ride row together with its membership
	// delta in a single atomic write, guarded by the aggregate version.
	// Returns ErrVersionConflict when the stored version has moved on and
	// ErrDuplicateMembership when a membership insert collides.
	UpdateAggregate(ctx context.Context, ride *domain.Ride) error
}
