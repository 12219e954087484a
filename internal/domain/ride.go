package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusAvailable  RideStatus = "AVAILABLE"
	RideStatusBooked     RideStatus = "BOOKED"
	RideStatusInProgress RideStatus = "IN_PROGRESS"
	RideStatusCompleted  RideStatus = "COMPLETED"
	RideStatusCancelled  RideStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride is an advertised trip offered by a driver. It is the aggregate root:
// its memberships are loaded and persisted together with the ride row, and
// all mutations go through the booking coordinator.
type Ride struct {
	ID                string
	DriverID          string
	StudentID         string // sole rider on a non-group ride, empty otherwise
	PickupLocation    string
	DropoffLocation   string
	PickupTime        time.Time
	Fare              float64
	IsGroup           bool
	MaxPassengers     int
	CurrentPassengers int
	Status            RideStatus
	Version           int64 // optimistic write guard, bumped on every update
	CreatedAt         time.Time
	Members           []Membership // populated for group rides
}

// Membership is a student's claim on one seat of a group ride. Rows are
// created on booking, never mutated, and deleted only when the seat is
// released.
type Membership struct {
	ID        string
	RideID    string
	StudentID string
	JoinedAt  time.Time
}

// MemberIndex returns the position of the student's membership, or -1.
func (r *Ride) MemberIndex(studentID string) int {
	for i, m := range r.Members {
		if m.StudentID == studentID {
			return i
		}
	}
	return -1
}

// HasRider reports whether the student currently holds a seat on the ride,
// either as the sole rider or as a group member.
func (r *Ride) HasRider(studentID string) bool {
	if !r.IsGroup {
		return r.StudentID == studentID
	}
	return r.MemberIndex(studentID) >= 0
}
