package tests

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/service"
)

func newNotificationFixture() (*service.NotificationService, *MockRideRepository) {
	rideRepo := NewMockRideRepository()
	svc := service.NewNotificationService(rideRepo)
	return svc, rideRepo
}

func seedRideWithStatus(repo *MockRideRepository, id, driverID, studentID string, status domain.RideStatus, createdAt time.Time) {
	passengers := 0
	if studentID != "" {
		passengers = 1
	}
	repo.AddRide(&domain.Ride{
		ID:                id,
		DriverID:          driverID,
		StudentID:         studentID,
		PickupLocation:    "North Campus",
		DropoffLocation:   "City Station",
		PickupTime:        createdAt.Add(2 * time.Hour),
		Fare:              120,
		MaxPassengers:     1,
		CurrentPassengers: passengers,
		Status:            status,
		CreatedAt:         createdAt,
	})
}

func TestProjectNotifications_Student(t *testing.T) {
	t.Parallel()
	svc, rideRepo := newNotificationFixture()
	base := time.Now()

	seedRideWithStatus(rideRepo, "ride-1", "driver-1", "student-1", domain.RideStatusBooked, base)
	seedRideWithStatus(rideRepo, "ride-2", "driver-2", "student-1", domain.RideStatusInProgress, base.Add(time.Minute))
	// Completed and cancelled rides produce no student notification.
	seedRideWithStatus(rideRepo, "ride-3", "driver-3", "student-1", domain.RideStatusCompleted, base.Add(2*time.Minute))
	seedRideWithStatus(rideRepo, "ride-4", "driver-4", "student-1", domain.RideStatusCancelled, base.Add(3*time.Minute))

	feed, err := svc.ProjectNotifications(context.Background(), "student-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("ProjectNotifications failed: %v", err)
	}

	if len(feed) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(feed))
	}
	// Newest ride first.
	if feed[0].Kind != service.NotificationSuccess || feed[0].Message != "Your ride is on the way!" {
		t.Errorf("unexpected first notification: %+v", feed[0])
	}
	if feed[1].Kind != service.NotificationInfo || !strings.Contains(feed[1].Message, "confirmed") {
		t.Errorf("unexpected second notification: %+v", feed[1])
	}
	if !strings.Contains(feed[1].Message, "North Campus") || !strings.Contains(feed[1].Message, "City Station") {
		t.Errorf("confirmation message missing route: %q", feed[1].Message)
	}
}

func TestProjectNotifications_Driver(t *testing.T) {
	t.Parallel()
	svc, rideRepo := newNotificationFixture()
	base := time.Now()

	seedRideWithStatus(rideRepo, "ride-1", "driver-1", "student-1", domain.RideStatusBooked, base)
	seedRideWithStatus(rideRepo, "ride-2", "driver-1", "", domain.RideStatusAvailable, base.Add(time.Minute))
	seedRideWithStatus(rideRepo, "ride-3", "driver-2", "student-2", domain.RideStatusBooked, base.Add(2*time.Minute))

	feed, err := svc.ProjectNotifications(context.Background(), "driver-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("ProjectNotifications failed: %v", err)
	}

	if len(feed) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(feed))
	}
	if !strings.Contains(feed[0].Message, "New booking") {
		t.Errorf("unexpected driver notification: %q", feed[0].Message)
	}
}

// The feed considers only the five most recent rides.
func TestProjectNotifications_Bounded(t *testing.T) {
	t.Parallel()
	svc, rideRepo := newNotificationFixture()
	base := time.Now()

	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("ride-%d", i)
		seedRideWithStatus(rideRepo, id, "driver-1", "student-1", domain.RideStatusBooked, base.Add(time.Duration(i)*time.Minute))
	}

	feed, err := svc.ProjectNotifications(context.Background(), "student-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("ProjectNotifications failed: %v", err)
	}
	if len(feed) != 5 {
		t.Fatalf("expected feed capped at 5, got %d", len(feed))
	}

	for i := 1; i < len(feed); i++ {
		if feed[i].Timestamp.After(feed[i-1].Timestamp) {
			t.Errorf("feed not ordered newest first at index %d", i)
		}
	}
}

// Same stored state, same feed.
func TestProjectNotifications_Deterministic(t *testing.T) {
	t.Parallel()
	svc, rideRepo := newNotificationFixture()
	base := time.Now()

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("ride-%d", i)
		seedRideWithStatus(rideRepo, id, "driver-1", "student-1", domain.RideStatusBooked, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.ProjectNotifications(context.Background(), "student-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("first projection failed: %v", err)
	}
	second, err := svc.ProjectNotifications(context.Background(), "student-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("second projection failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("projections differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestProjectNotifications_EmptyFeed(t *testing.T) {
	t.Parallel()
	svc, _ := newNotificationFixture()

	feed, err := svc.ProjectNotifications(context.Background(), "student-1", domain.RoleStudent)
	if err != nil {
		t.Fatalf("ProjectNotifications failed: %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("expected empty feed, got %d notifications", len(feed))
	}
}

func TestProjectNotifications_InvalidInput(t *testing.T) {
	t.Parallel()
	svc, _ := newNotificationFixture()

	if _, err := svc.ProjectNotifications(context.Background(), "", domain.RoleStudent); err == nil {
		t.Error("expected error for empty user ID")
	}
	if _, err := svc.ProjectNotifications(context.Background(), "user-1", "ADMIN"); !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}
