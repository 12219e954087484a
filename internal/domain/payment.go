package domain

import "time"

// PaymentMethod represents the payment method for a ride.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "UPI"
	PaymentMethodCash PaymentMethod = "CASH"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment records a student's intent to pay for a ride. Amount is a snapshot
// of the ride fare at creation and never changes afterwards. The only legal
// mutation is a single status flip away from PENDING.
type Payment struct {
	ID        string
	RideID    string
	StudentID string
	Amount    float64
	Method    PaymentMethod
	Status    PaymentStatus
	QRPayload string // serialized once at creation for UPI, empty for cash
	CreatedAt time.Time
}

// QRPayload is the immutable snapshot rendered into a payment QR code.
// The field set and names are part of the external contract and must not
// change between serialization and rendering.
type QRPayload struct {
	RideID    string  `json:"ride_id"`
	DriverID  string  `json:"driver_id"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}
