package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// maxNotifications bounds the projected feed to the most recent rides.
const maxNotifications = 5

// NotificationKind classifies a projected notification.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
)

// Notification is a derived, non-persisted view of a recent ride event.
// Feeds are recomputed from stored ride state on every call; there is no
// notification log and no delivery side effect.
type Notification struct {
	Kind      NotificationKind
	Message   string
	Timestamp time.Time
}

// NotificationService projects per-user notification feeds from ride history.
type NotificationService struct {
	rideRepo repository.RideRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(rideRepo repository.RideRepository) *NotificationService {
	return &NotificationService{rideRepo: rideRepo}
}

// ProjectNotifications derives the feed for a user. Rides are considered in
// creation order, newest first, at most maxNotifications of them. The result
// is deterministic for identical stored state.
func (s *NotificationService) ProjectNotifications(ctx context.Context, userID string, role domain.Role) ([]Notification, error) {
	if userID == "" {
		return nil, ErrInvalidStudentID
	}

	switch role {
	case domain.RoleStudent:
		rides, err := s.rideRepo.ListByStudent(ctx, userID)
		if err != nil {
			return nil, err
		}
		return projectFeed(rides, studentNotification), nil

	case domain.RoleDriver:
		rides, err := s.rideRepo.ListByDriver(ctx, userID)
		if err != nil {
			return nil, err
		}
		return projectFeed(rides, driverNotification), nil

	default:
		return nil, ErrInvalidRole
	}
}

// projectFeed orders rides by creation time descending and keeps the
// notifications derived from the first maxNotifications of them.
func projectFeed(rides []*domain.Ride, derive func(*domain.Ride) *Notification) []Notification {
	sorted := make([]*domain.Ride, len(rides))
	copy(sorted, rides)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if len(sorted) > maxNotifications {
		sorted = sorted[:maxNotifications]
	}

	notifications := make([]Notification, 0, len(sorted))
	for _, ride := range sorted {
		if n := derive(ride); n != nil {
			notifications = append(notifications, *n)
		}
	}
	return notifications
}

func studentNotification(ride *domain.Ride) *Notification {
	switch ride.Status {
	case domain.RideStatusBooked:
		return &Notification{
			Kind:      NotificationInfo,
			Message:   fmt.Sprintf("Your ride from %s to %s is confirmed!", ride.PickupLocation, ride.DropoffLocation),
			Timestamp: ride.CreatedAt,
		}
	case domain.RideStatusInProgress:
		return &Notification{
			Kind:      NotificationSuccess,
			Message:   "Your ride is on the way!",
			Timestamp: ride.CreatedAt,
		}
	}
	return nil
}

func driverNotification(ride *domain.Ride) *Notification {
	if ride.Status != domain.RideStatusBooked {
		return nil
	}
	return &Notification{
		Kind:      NotificationInfo,
		Message:   fmt.Sprintf("New booking: %s to %s", ride.PickupLocation, ride.DropoffLocation),
		Timestamp: ride.CreatedAt,
	}
}
