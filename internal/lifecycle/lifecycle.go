// Package lifecycle holds the ride status transition rules. The table is the
// single source of truth for which status changes are legal; it never touches
// storage and carries no guards that depend on aggregate state (capacity and
// ownership checks belong to the booking coordinator).
package lifecycle

import (
	"errors"
	"fmt"

	"carpool/internal/domain"
)

// Event identifies an operation attempting to move a ride between statuses.
type Event string

const (
	// EventBook claims a seat. From AVAILABLE it books the ride; from
	// BOOKED it is legal only for group rides with remaining capacity,
	// which the coordinator checks before consulting the table.
	EventBook Event = "book"

	// EventStart begins the trip. Driver-only.
	EventStart Event = "start"

	// EventComplete ends an in-progress trip. Driver-only, terminal.
	EventComplete Event = "complete"

	// EventCancel cancels the whole ride. Driver-only, terminal.
	EventCancel Event = "cancel"

	// EventRelease returns a ride to AVAILABLE after the last seat is
	// released. Fired by the coordinator only when the passenger count
	// reaches zero.
	EventRelease Event = "release"
)

// ErrInvalidTransition is the sentinel matched by errors.Is for every
// rejected transition, including any event fired at a terminal status.
var ErrInvalidTransition = errors.New("invalid ride status transition")

// TransitionError reports the exact rejected (status, event) pair.
type TransitionError struct {
	From  domain.RideStatus
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q not allowed from status %q", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var transitions = map[domain.RideStatus]map[Event]domain.RideStatus{
	domain.RideStatusAvailable: {
		EventBook:   domain.RideStatusBooked,
		EventCancel: domain.RideStatusCancelled,
	},
	domain.RideStatusBooked: {
		EventBook:    domain.RideStatusBooked,
		EventStart:   domain.RideStatusInProgress,
		EventCancel:  domain.RideStatusCancelled,
		EventRelease: domain.RideStatusAvailable,
	},
	domain.RideStatusInProgress: {
		EventComplete: domain.RideStatusCompleted,
	},
	// COMPLETED and CANCELLED are terminal: no outgoing edges.
}

// Next returns the status a ride moves to when event fires from current.
// A rejected transition returns a *TransitionError; callers match it with
// errors.Is(err, ErrInvalidTransition).
func Next(current domain.RideStatus, event Event) (domain.RideStatus, error) {
	if next, ok := transitions[current][event]; ok {
		return next, nil
	}
	return current, &TransitionError{From: current, Event: event}
}

// Allowed reports whether event is legal from the current status.
func Allowed(current domain.RideStatus, event Event) bool {
	_, ok := transitions[current][event]
	return ok
}
