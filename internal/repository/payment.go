package repository

import (
	"context"

	"carpool/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
// Payment rows are append-only apart from the single status flip.
type PaymentRepository interface {
	// Create persists a new payment intent.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// UpdateStatusFromPending flips a payment out of PENDING. The update
	// is conditional on the stored status still being PENDING; returns
	// ErrNotFound when no pending payment with the id exists.
	UpdateStatusFromPending(ctx context.Context, id string, status domain.PaymentStatus) error
}
