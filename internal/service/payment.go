package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// PaymentService records payment intents against rides. It never settles
// money: a payment is an obligation snapshot, settled out of band and marked
// completed or failed afterwards.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	rideRepo    repository.RideRepository
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, rideRepo repository.RideRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		rideRepo:    rideRepo,
		now:         time.Now,
	}
}

// RecordPaymentIntentRequest contains the parameters for recording an intent.
type RecordPaymentIntentRequest struct {
	RideID    string
	StudentID string
	Method    domain.PaymentMethod
}

// RecordPaymentIntent creates a PENDING payment whose amount snapshots the
// ride fare at this moment. For UPI the QR payload is serialized exactly once
// here; it is never recomputed from later ride state.
func (s *PaymentService) RecordPaymentIntent(ctx context.Context, req RecordPaymentIntentRequest) (*domain.Payment, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.StudentID == "" {
		return nil, ErrInvalidStudentID
	}
	if req.Method != domain.PaymentMethodUPI && req.Method != domain.PaymentMethodCash {
		return nil, ErrInvalidPaymentMethod
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	payment := &domain.Payment{
		ID:        uuid.New().String(),
		RideID:    ride.ID,
		StudentID: req.StudentID,
		Amount:    ride.Fare,
		Method:    req.Method,
		Status:    domain.PaymentStatusPending,
		CreatedAt: createdAt,
	}

	if req.Method == domain.PaymentMethodUPI {
		payload, err := json.Marshal(domain.QRPayload{
			RideID:    ride.ID,
			DriverID:  ride.DriverID,
			Amount:    ride.Fare,
			Timestamp: createdAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		payment.QRPayload = string(payload)
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// MarkPaymentStatus flips a payment from PENDING to COMPLETED or FAILED.
// Any other transition, including re-marking a terminal payment, fails with
// ErrInvalidPaymentState.
func (s *PaymentService) MarkPaymentStatus(ctx context.Context, paymentID string, status domain.PaymentStatus) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}
	if status != domain.PaymentStatusCompleted && status != domain.PaymentStatusFailed {
		return nil, ErrInvalidPaymentState
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusPending {
		return nil, ErrInvalidPaymentState
	}

	if err := s.paymentRepo.UpdateStatusFromPending(ctx, paymentID, status); err != nil {
		// The conditional update lost a race against another marker.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidPaymentState
		}
		return nil, err
	}

	payment.Status = status
	return payment, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}
