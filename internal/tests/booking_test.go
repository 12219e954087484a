package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/lifecycle"
	"carpool/internal/repository"
	"carpool/internal/service"
)

func newBookingFixture() (*service.BookingService, *MockRideRepository, *MockLockStore) {
	rideRepo := NewMockRideRepository()
	lockStore := NewMockLockStore()
	svc := service.NewBookingService(rideRepo, lockStore, NewMockCacheStore())
	return svc, rideRepo, lockStore
}

func seedSoloRide(repo *MockRideRepository, id, driverID string) *domain.Ride {
	ride := &domain.Ride{
		ID:              id,
		DriverID:        driverID,
		PickupLocation:  "North Campus",
		DropoffLocation: "City Station",
		PickupTime:      time.Now().Add(2 * time.Hour),
		Fare:            120.0,
		IsGroup:         false,
		MaxPassengers:   1,
		Status:          domain.RideStatusAvailable,
		CreatedAt:       time.Now(),
	}
	repo.AddRide(ride)
	return ride
}

func seedGroupRide(repo *MockRideRepository, id, driverID string, capacity int) *domain.Ride {
	ride := &domain.Ride{
		ID:              id,
		DriverID:        driverID,
		PickupLocation:  "Hostel Gate",
		DropoffLocation: "Airport",
		PickupTime:      time.Now().Add(3 * time.Hour),
		Fare:            300.0,
		IsGroup:         true,
		MaxPassengers:   capacity,
		Status:          domain.RideStatusAvailable,
		CreatedAt:       time.Now(),
	}
	repo.AddRide(ride)
	return ride
}

func TestBookSeat_SoloRide(t *testing.T) {
	t.Parallel()
	svc, rideRepo, lockStore := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	confirmation, err := svc.BookSeat(context.Background(), "ride-1", "student-1")
	if err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}

	if confirmation.Ride.Status != domain.RideStatusBooked {
		t.Errorf("expected status %s, got %s", domain.RideStatusBooked, confirmation.Ride.Status)
	}
	if confirmation.Ride.StudentID != "student-1" {
		t.Errorf("expected student-1 as rider, got %q", confirmation.Ride.StudentID)
	}
	if confirmation.Ride.CurrentPassengers != 1 {
		t.Errorf("expected 1 passenger, got %d", confirmation.Ride.CurrentPassengers)
	}
	if confirmation.MembershipID != "" {
		t.Errorf("solo booking should not create a membership, got %q", confirmation.MembershipID)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusBooked {
		t.Errorf("stored status = %s, want %s", stored.Status, domain.RideStatusBooked)
	}
	if lockStore.IsLocked("ride-1") {
		t.Error("ride lock not released after booking")
	}
}

func TestBookSeat_SoloRideAlreadyBooked(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("first BookSeat failed: %v", err)
	}

	_, err := svc.BookSeat(context.Background(), "ride-1", "student-2")
	if !errors.Is(err, service.ErrRideNotAvailable) {
		t.Errorf("expected ErrRideNotAvailable, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.StudentID != "student-1" {
		t.Errorf("losing caller must not displace the rider, got %q", stored.StudentID)
	}
	if stored.CurrentPassengers != 1 {
		t.Errorf("passenger count corrupted: %d", stored.CurrentPassengers)
	}
}

func TestBookSeat_CompletedRideRejected(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	ride := seedSoloRide(rideRepo, "ride-1", "driver-1")
	ride.Status = domain.RideStatusCompleted
	ride.Version = 0
	rideRepo.AddRide(ride)

	_, err := svc.BookSeat(context.Background(), "ride-1", "student-1")
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected invalid transition error, got %v", err)
	}

	var transitionErr *lifecycle.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected *lifecycle.TransitionError, got %T", err)
	}
	if transitionErr.From != domain.RideStatusCompleted {
		t.Errorf("transition error From = %s, want %s", transitionErr.From, domain.RideStatusCompleted)
	}
}

func TestBookSeat_RideNotFound(t *testing.T) {
	t.Parallel()
	svc, _, _ := newBookingFixture()

	_, err := svc.BookSeat(context.Background(), "no-such-ride", "student-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBookSeat_GroupRide(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedGroupRide(rideRepo, "ride-1", "driver-1", 3)

	first, err := svc.BookSeat(context.Background(), "ride-1", "student-1")
	if err != nil {
		t.Fatalf("first group booking failed: %v", err)
	}
	if first.MembershipID == "" {
		t.Error("group booking must return a membership ID")
	}
	if first.Ride.Status != domain.RideStatusBooked {
		t.Errorf("first member should move ride to %s, got %s", domain.RideStatusBooked, first.Ride.Status)
	}

	second, err := svc.BookSeat(context.Background(), "ride-1", "student-2")
	if err != nil {
		t.Fatalf("second group booking failed: %v", err)
	}
	if second.Ride.Status != domain.RideStatusBooked {
		t.Errorf("later members keep the ride %s, got %s", domain.RideStatusBooked, second.Ride.Status)
	}
	if second.Ride.CurrentPassengers != 2 {
		t.Errorf("expected 2 passengers, got %d", second.Ride.CurrentPassengers)
	}

	stored := rideRepo.GetRide("ride-1")
	if len(stored.Members) != 2 {
		t.Errorf("expected 2 memberships, got %d", len(stored.Members))
	}
}

func TestBookSeat_GroupRideDuplicateStudent(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedGroupRide(rideRepo, "ride-1", "driver-1", 3)

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.BookSeat(context.Background(), "ride-1", "student-1")
	if !errors.Is(err, service.ErrDuplicateMembership) {
		t.Errorf("expected ErrDuplicateMembership, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.CurrentPassengers != 1 {
		t.Errorf("duplicate claim must not change the count, got %d", stored.CurrentPassengers)
	}
}

func TestBookSeat_GroupRideFull(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedGroupRide(rideRepo, "ride-1", "driver-1", 2)

	for _, student := range []string{"student-1", "student-2"} {
		if _, err := svc.BookSeat(context.Background(), "ride-1", student); err != nil {
			t.Fatalf("booking for %s failed: %v", student, err)
		}
	}

	_, err := svc.BookSeat(context.Background(), "ride-1", "student-3")
	if !errors.Is(err, service.ErrRideFull) {
		t.Errorf("expected ErrRideFull, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.CurrentPassengers != 2 {
		t.Errorf("overbooking corrupted the count: %d", stored.CurrentPassengers)
	}
}

func TestBookSeat_ValidatesInput(t *testing.T) {
	t.Parallel()
	svc, _, _ := newBookingFixture()

	if _, err := svc.BookSeat(context.Background(), "", "student-1"); !errors.Is(err, service.ErrInvalidRideID) {
		t.Errorf("expected ErrInvalidRideID, got %v", err)
	}
	if _, err := svc.BookSeat(context.Background(), "ride-1", ""); !errors.Is(err, service.ErrInvalidStudentID) {
		t.Errorf("expected ErrInvalidStudentID, got %v", err)
	}
}

// Concurrent callers on a group ride with k seats: exactly k succeed, the
// rest fail with ErrRideFull, and the stored count ends at k.
func TestBookSeat_ConcurrentGroupBooking(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()

	const callers = 8
	const capacity = 3
	seedGroupRide(rideRepo, "ride-1", "driver-1", capacity)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			student := "student-" + string(rune('a'+n))
			_, results[n] = svc.BookSeat(context.Background(), "ride-1", student)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrRideFull):
		default:
			t.Errorf("unexpected error from concurrent booking: %v", err)
		}
	}
	if successes != capacity {
		t.Errorf("expected exactly %d successful bookings, got %d", capacity, successes)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.CurrentPassengers != capacity {
		t.Errorf("final passenger count = %d, want %d", stored.CurrentPassengers, capacity)
	}
	if len(stored.Members) != capacity {
		t.Errorf("final membership count = %d, want %d", len(stored.Members), capacity)
	}
	if stored.Status != domain.RideStatusBooked {
		t.Errorf("final status = %s, want %s", stored.Status, domain.RideStatusBooked)
	}
}

// Concurrent callers on a solo ride: exactly one wins the seat.
func TestBookSeat_ConcurrentSoloBooking(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()

	const callers = 6
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			student := "student-" + string(rune('a'+n))
			_, results[n] = svc.BookSeat(context.Background(), "ride-1", student)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrRideNotAvailable):
		default:
			t.Errorf("unexpected error from concurrent booking: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 successful booking, got %d", successes)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.CurrentPassengers != 1 {
		t.Errorf("final passenger count = %d, want 1", stored.CurrentPassengers)
	}
}

func TestBookSeat_RideBusyWhenLockHeld(t *testing.T) {
	t.Parallel()
	svc, rideRepo, lockStore := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	// Simulate a holder that never releases within the polling window.
	ok, err := lockStore.AcquireRideLock(context.Background(), "ride-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("could not pre-acquire lock: ok=%v err=%v", ok, err)
	}

	_, err = svc.BookSeat(context.Background(), "ride-1", "student-1")
	if !errors.Is(err, service.ErrRideBusy) {
		t.Errorf("expected ErrRideBusy, got %v", err)
	}
}

func TestStartRide(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}

	ride, err := svc.StartRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("StartRide failed: %v", err)
	}
	if ride.Status != domain.RideStatusInProgress {
		t.Errorf("expected status %s, got %s", domain.RideStatusInProgress, ride.Status)
	}
}

func TestStartRide_NotOwner(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}

	_, err := svc.StartRide(context.Background(), "ride-1", "driver-2")
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusBooked {
		t.Errorf("rejected start must not change status, got %s", stored.Status)
	}
}

func TestStartRide_NotBooked(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	_, err := svc.StartRide(context.Background(), "ride-1", "driver-1")
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected invalid transition error, got %v", err)
	}
}

func TestCompleteRide(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}
	if _, err := svc.StartRide(context.Background(), "ride-1", "driver-1"); err != nil {
		t.Fatalf("StartRide failed: %v", err)
	}

	ride, err := svc.CompleteRide(context.Background(), "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("CompleteRide failed: %v", err)
	}
	if ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.RideStatusCompleted, ride.Status)
	}

	// A completed ride is terminal: completing it again is a state conflict,
	// not a silent success.
	_, err = svc.CompleteRide(context.Background(), "ride-1", "driver-1")
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected invalid transition on repeat completion, got %v", err)
	}
}

func TestCancelRide_ByDriver(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	driver := domain.Actor{ID: "driver-1", Role: domain.RoleDriver}
	ride, err := svc.CancelRide(context.Background(), "ride-1", driver)
	if err != nil {
		t.Fatalf("CancelRide failed: %v", err)
	}
	if ride.Status != domain.RideStatusCancelled {
		t.Errorf("expected status %s, got %s", domain.RideStatusCancelled, ride.Status)
	}

	// Cancellation is terminal.
	_, err = svc.CancelRide(context.Background(), "ride-1", driver)
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected invalid transition on repeat cancel, got %v", err)
	}
	if stored := rideRepo.GetRide("ride-1"); stored.Status != domain.RideStatusCancelled {
		t.Errorf("stored status = %s, want %s", stored.Status, domain.RideStatusCancelled)
	}
}

func TestCancelRide_DriverNotOwner(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	_, err := svc.CancelRide(context.Background(), "ride-1", domain.Actor{ID: "driver-2", Role: domain.RoleDriver})
	if !errors.Is(err, service.ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
}

func TestCancelRide_StudentReleasesSoloSeat(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}

	student := domain.Actor{ID: "student-1", Role: domain.RoleStudent}
	ride, err := svc.CancelRide(context.Background(), "ride-1", student)
	if err != nil {
		t.Fatalf("CancelRide failed: %v", err)
	}

	if ride.Status != domain.RideStatusAvailable {
		t.Errorf("released solo ride should revert to %s, got %s", domain.RideStatusAvailable, ride.Status)
	}
	if ride.StudentID != "" {
		t.Errorf("rider not cleared, got %q", ride.StudentID)
	}
	if ride.CurrentPassengers != 0 {
		t.Errorf("expected 0 passengers, got %d", ride.CurrentPassengers)
	}

	// The seat is open again for a different student.
	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-2"); err != nil {
		t.Errorf("rebooking a released ride failed: %v", err)
	}
}

func TestCancelRide_StudentReleasesGroupSeat(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedGroupRide(rideRepo, "ride-1", "driver-1", 3)

	for _, student := range []string{"student-1", "student-2"} {
		if _, err := svc.BookSeat(context.Background(), "ride-1", student); err != nil {
			t.Fatalf("booking for %s failed: %v", student, err)
		}
	}

	ride, err := svc.CancelRide(context.Background(), "ride-1", domain.Actor{ID: "student-1", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("CancelRide failed: %v", err)
	}

	// One member remains, so the ride stays booked.
	if ride.Status != domain.RideStatusBooked {
		t.Errorf("expected status %s, got %s", domain.RideStatusBooked, ride.Status)
	}
	if ride.CurrentPassengers != 1 {
		t.Errorf("expected 1 passenger, got %d", ride.CurrentPassengers)
	}
	if ride.HasRider("student-1") {
		t.Error("released member still listed on the ride")
	}

	// Releasing the last seat reverts the ride to available.
	ride, err = svc.CancelRide(context.Background(), "ride-1", domain.Actor{ID: "student-2", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("second CancelRide failed: %v", err)
	}
	if ride.Status != domain.RideStatusAvailable {
		t.Errorf("expected status %s, got %s", domain.RideStatusAvailable, ride.Status)
	}
}

func TestCancelRide_StudentWithoutSeat(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}

	_, err := svc.CancelRide(context.Background(), "ride-1", domain.Actor{ID: "student-2", Role: domain.RoleStudent})
	if !errors.Is(err, service.ErrNoSeatHeld) {
		t.Errorf("expected ErrNoSeatHeld, got %v", err)
	}

	// No seat exists on an available ride either.
	svc2, rideRepo2, _ := newBookingFixture()
	seedSoloRide(rideRepo2, "ride-2", "driver-1")
	_, err = svc2.CancelRide(context.Background(), "ride-2", domain.Actor{ID: "student-1", Role: domain.RoleStudent})
	if !errors.Is(err, service.ErrNoSeatHeld) {
		t.Errorf("expected ErrNoSeatHeld on available ride, got %v", err)
	}
}

func TestCancelRide_StudentOnInProgressRide(t *testing.T) {
	t.Parallel()
	svc, rideRepo, _ := newBookingFixture()
	seedSoloRide(rideRepo, "ride-1", "driver-1")

	if _, err := svc.BookSeat(context.Background(), "ride-1", "student-1"); err != nil {
		t.Fatalf("BookSeat failed: %v", err)
	}
	if _, err := svc.StartRide(context.Background(), "ride-1", "driver-1"); err != nil {
		t.Fatalf("StartRide failed: %v", err)
	}

	_, err := svc.CancelRide(context.Background(), "ride-1", domain.Actor{ID: "student-1", Role: domain.RoleStudent})
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("expected invalid transition error, got %v", err)
	}
}
