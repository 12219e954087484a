package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidStudentID is returned when student ID is empty.
	ErrInvalidStudentID = errors.New("invalid student id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidLocations is returned when pickup or dropoff is empty or
	// pickup equals dropoff.
	ErrInvalidLocations = errors.New("invalid pickup/dropoff locations")

	// ErrInvalidFare is returned when the fare is not positive.
	ErrInvalidFare = errors.New("fare must be positive")

	// ErrInvalidCapacity is returned when max passengers is below one.
	ErrInvalidCapacity = errors.New("max passengers must be at least 1")

	// ErrPickupTimeNotFuture is returned when the pickup time is not
	// strictly in the future.
	ErrPickupTimeNotFuture = errors.New("pickup time must be in the future")

	// ErrInvalidPaymentMethod is returned when the payment method is
	// neither UPI nor cash.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidRole is returned when the actor role is unknown.
	ErrInvalidRole = errors.New("invalid actor role")

	// ErrRideNotAvailable is returned when booking a non-group ride that
	// has already been claimed or moved past AVAILABLE.
	ErrRideNotAvailable = errors.New("ride not available")

	// ErrRideFull is returned when a group ride has no remaining seats.
	ErrRideFull = errors.New("ride is full")

	// ErrDuplicateMembership is returned when a student tries to claim a
	// second seat on the same group ride.
	ErrDuplicateMembership = errors.New("student already joined this ride")

	// ErrNotRideOwner is returned when a driver operates on a ride they
	// do not own.
	ErrNotRideOwner = errors.New("driver does not own this ride")

	// ErrNoSeatHeld is returned when a student cancels a ride they hold
	// no seat on.
	ErrNoSeatHeld = errors.New("student holds no seat on this ride")

	// ErrRideBusy is returned when the per-ride lock could not be
	// acquired within the bounded window. Callers may retry.
	ErrRideBusy = errors.New("ride is being modified by another request")

	// ErrInvalidPaymentState is returned when a payment status change is
	// not a PENDING -> COMPLETED/FAILED flip.
	ErrInvalidPaymentState = errors.New("payment is not in a state that allows this transition")
)
