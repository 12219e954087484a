package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// Create persists a new payment intent.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, ride_id, student_id, amount, method, status, qr_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.StudentID,
		payment.Amount,
		payment.Method,
		payment.Status,
		nullString(payment.QRPayload),
		payment.CreatedAt,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `
		SELECT id, ride_id, student_id, amount, method, status, qr_payload, created_at
		FROM payments WHERE id = $1
	`

	var payment domain.Payment
	var qrPayload sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&payment.ID,
		&payment.RideID,
		&payment.StudentID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&qrPayload,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if qrPayload.Valid {
		payment.QRPayload = qrPayload.String
	}

	return &payment, nil
}

// UpdateStatusFromPending flips a payment out of PENDING. The WHERE clause
// makes the flip race-safe: a payment already marked terminal is not touched.
func (r *PaymentRepository) UpdateStatusFromPending(ctx context.Context, id string, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, status, id, domain.PaymentStatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
