package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/lifecycle"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const (
	// rideLockTTL bounds how long a crashed holder can block a ride.
	rideLockTTL = 5 * time.Second

	// Bounded acquisition: a contended caller polls briefly, then fails
	// fast with ErrRideBusy instead of queuing.
	lockAcquireAttempts = 25
	lockRetryDelay      = 20 * time.Millisecond
)

// BookingService orchestrates seat allocation and ride status transitions.
// Every mutating operation serializes on the per-ride lock, reloads the
// aggregate under it, consults the lifecycle table, and commits the full
// effect set in one repository write. Concurrent losers observe fresh state
// and fail with the typed business error; counts are never corrupted.
type BookingService struct {
	rideRepo   repository.RideRepository
	lockStore  redis.LockStoreInterface
	cacheStore redis.CacheStoreInterface
	now        func() time.Time
}

// NewBookingService creates a new BookingService. cacheStore may be nil.
func NewBookingService(
	rideRepo repository.RideRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
) *BookingService {
	return &BookingService{
		rideRepo:   rideRepo,
		lockStore:  lockStore,
		cacheStore: cacheStore,
		now:        time.Now,
	}
}

// BookingConfirmation references the booked ride and, for group rides, the
// membership created for the student.
type BookingConfirmation struct {
	Ride         *domain.Ride
	MembershipID string
}

// BookSeat claims one seat on a ride for a student.
//
// Non-group rides move AVAILABLE -> BOOKED with the student as sole rider.
// Group rides insert a membership and bump the passenger count; the first
// member moves the ride to BOOKED, later members keep it there. A full group
// ride fails with ErrRideFull, a second claim by the same student with
// ErrDuplicateMembership.
func (s *BookingService) BookSeat(ctx context.Context, rideID, studentID string) (*BookingConfirmation, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}

	var confirmation *BookingConfirmation
	err := s.withRideLock(ctx, rideID, func() error {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}

		var membershipID string
		if ride.IsGroup {
			membershipID, err = s.bookGroupSeat(ride, studentID)
		} else {
			err = s.bookSoloSeat(ride, studentID)
		}
		if err != nil {
			return err
		}

		if err := s.rideRepo.UpdateAggregate(ctx, ride); err != nil {
			return err
		}

		confirmation = &BookingConfirmation{Ride: ride, MembershipID: membershipID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	return confirmation, nil
}

func (s *BookingService) bookSoloSeat(ride *domain.Ride, studentID string) error {
	// A solo ride that left AVAILABLE is gone for new riders; terminal
	// and in-progress statuses surface as lifecycle rejections.
	if ride.Status == domain.RideStatusBooked {
		return ErrRideNotAvailable
	}

	next, err := lifecycle.Next(ride.Status, lifecycle.EventBook)
	if err != nil {
		return err
	}

	ride.StudentID = studentID
	ride.CurrentPassengers = 1
	ride.Status = next
	return nil
}

func (s *BookingService) bookGroupSeat(ride *domain.Ride, studentID string) (string, error) {
	next, err := lifecycle.Next(ride.Status, lifecycle.EventBook)
	if err != nil {
		return "", err
	}

	if ride.MemberIndex(studentID) >= 0 {
		return "", ErrDuplicateMembership
	}

	if ride.CurrentPassengers >= ride.MaxPassengers {
		return "", ErrRideFull
	}

	membership := domain.Membership{
		ID:        uuid.New().String(),
		RideID:    ride.ID,
		StudentID: studentID,
		JoinedAt:  s.now(),
	}
	ride.Members = append(ride.Members, membership)
	ride.CurrentPassengers++
	ride.Status = next
	return membership.ID, nil
}

// StartRide moves a booked ride to IN_PROGRESS. Only the owning driver may
// start it.
func (s *BookingService) StartRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	return s.driverTransition(ctx, rideID, driverID, lifecycle.EventStart)
}

// CompleteRide moves an in-progress ride to COMPLETED, a terminal state.
// Only the owning driver may complete it.
func (s *BookingService) CompleteRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	return s.driverTransition(ctx, rideID, driverID, lifecycle.EventComplete)
}

func (s *BookingService) driverTransition(ctx context.Context, rideID, driverID string, event lifecycle.Event) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var updated *domain.Ride
	err := s.withRideLock(ctx, rideID, func() error {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}

		if ride.DriverID != driverID {
			return ErrNotRideOwner
		}

		next, err := lifecycle.Next(ride.Status, event)
		if err != nil {
			return err
		}

		ride.Status = next
		if err := s.rideRepo.UpdateAggregate(ctx, ride); err != nil {
			return err
		}

		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CancelRide cancels a ride or releases a seat, depending on the actor.
//
// The owning driver cancels the whole ride (terminal CANCELLED) while it is
// AVAILABLE or BOOKED. A student releases only their own seat; when the last
// seat is released the ride reverts to AVAILABLE.
func (s *BookingService) CancelRide(ctx context.Context, rideID string, actor domain.Actor) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if actor.ID == "" {
		return nil, ErrInvalidStudentID
	}

	var updated *domain.Ride
	err := s.withRideLock(ctx, rideID, func() error {
		ride, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}

		switch actor.Role {
		case domain.RoleDriver:
			err = s.cancelByDriver(ride, actor.ID)
		case domain.RoleStudent:
			err = s.releaseSeat(ride, actor.ID)
		default:
			err = ErrInvalidRole
		}
		if err != nil {
			return err
		}

		if err := s.rideRepo.UpdateAggregate(ctx, ride); err != nil {
			return err
		}

		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)
	return updated, nil
}

func (s *BookingService) cancelByDriver(ride *domain.Ride, driverID string) error {
	if ride.DriverID != driverID {
		return ErrNotRideOwner
	}

	next, err := lifecycle.Next(ride.Status, lifecycle.EventCancel)
	if err != nil {
		return err
	}

	ride.Status = next
	return nil
}

func (s *BookingService) releaseSeat(ride *domain.Ride, studentID string) error {
	switch ride.Status {
	case domain.RideStatusBooked:
		// Seats exist only while the ride is booked.
	case domain.RideStatusAvailable:
		return ErrNoSeatHeld
	default:
		return &lifecycle.TransitionError{From: ride.Status, Event: lifecycle.EventRelease}
	}

	if !ride.HasRider(studentID) {
		return ErrNoSeatHeld
	}

	if ride.IsGroup {
		i := ride.MemberIndex(studentID)
		ride.Members = append(ride.Members[:i], ride.Members[i+1:]...)
	} else {
		ride.StudentID = ""
	}
	ride.CurrentPassengers--

	if ride.CurrentPassengers == 0 {
		next, err := lifecycle.Next(ride.Status, lifecycle.EventRelease)
		if err != nil {
			return err
		}
		ride.Status = next
	}

	return nil
}

// withRideLock runs fn while holding the per-ride lock. Acquisition is a
// bounded poll; a caller that cannot get the lock in time fails fast with
// ErrRideBusy rather than queuing behind the holder.
func (s *BookingService) withRideLock(ctx context.Context, rideID string, fn func() error) error {
	acquired := false
	for attempt := 0; attempt < lockAcquireAttempts; attempt++ {
		ok, err := s.lockStore.AcquireRideLock(ctx, rideID, rideLockTTL)
		if err != nil {
			return err
		}
		if ok {
			acquired = true
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	if !acquired {
		return ErrRideBusy
	}

	defer func() {
		// Release even when the request context was cancelled mid-flight.
		_ = s.lockStore.ReleaseRideLock(context.WithoutCancel(ctx), rideID)
	}()

	return fn()
}

func (s *BookingService) invalidateListing(ctx context.Context) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateAvailableRides(ctx)
	}
}
