package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

// CatalogService handles ride advertisement creation and queries.
type CatalogService struct {
	rideRepo   repository.RideRepository
	cacheStore redis.CacheStoreInterface
	now        func() time.Time
}

// NewCatalogService creates a new CatalogService. cacheStore may be nil, in
// which case listings always hit the repository.
func NewCatalogService(rideRepo repository.RideRepository, cacheStore redis.CacheStoreInterface) *CatalogService {
	return &CatalogService{
		rideRepo:   rideRepo,
		cacheStore: cacheStore,
		now:        time.Now,
	}
}

// CreateRideRequest contains the parameters for advertising a ride.
type CreateRideRequest struct {
	DriverID        string
	PickupLocation  string
	DropoffLocation string
	PickupTime      time.Time
	Fare            float64
	IsGroup         bool
	MaxPassengers   int
}

// CreateRide validates and persists a new ride advertisement in AVAILABLE
// state with zero passengers.
func (s *CatalogService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	maxPassengers := req.MaxPassengers
	if !req.IsGroup {
		// A solo ride carries exactly one seat regardless of input.
		maxPassengers = 1
	}

	ride := &domain.Ride{
		ID:                uuid.New().String(),
		DriverID:          req.DriverID,
		PickupLocation:    req.PickupLocation,
		DropoffLocation:   req.DropoffLocation,
		PickupTime:        req.PickupTime,
		Fare:              req.Fare,
		IsGroup:           req.IsGroup,
		MaxPassengers:     maxPassengers,
		CurrentPassengers: 0,
		Status:            domain.RideStatusAvailable,
		CreatedAt:         s.now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	s.invalidateListing(ctx)

	return ride, nil
}

// GetRide retrieves a ride by ID.
func (s *CatalogService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	return s.rideRepo.GetByID(ctx, rideID)
}

// ListAvailable returns rides open for booking, pickup time ascending. The
// result is served from the short-lived cache when possible; the cache is a
// snapshot and may trail recent mutations by its TTL.
func (s *CatalogService) ListAvailable(ctx context.Context) ([]*domain.Ride, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetAvailableRides(ctx); err == nil && cached != nil {
			return cachedToRides(cached), nil
		}
	}

	rides, err := s.rideRepo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetAvailableRides(ctx, ridesToCached(rides))
	}

	return rides, nil
}

// RidesForDriver returns the rides advertised by a driver.
func (s *CatalogService) RidesForDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.rideRepo.ListByDriver(ctx, driverID)
}

// RidesForStudent returns the rides the student currently holds a seat on.
func (s *CatalogService) RidesForStudent(ctx context.Context, studentID string) ([]*domain.Ride, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}

	return s.rideRepo.ListByStudent(ctx, studentID)
}

func (s *CatalogService) validateCreateRequest(req CreateRideRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	if req.PickupLocation == "" || req.DropoffLocation == "" || req.PickupLocation == req.DropoffLocation {
		return ErrInvalidLocations
	}

	if req.Fare <= 0 {
		return ErrInvalidFare
	}

	if req.IsGroup && req.MaxPassengers < 1 {
		return ErrInvalidCapacity
	}

	if !req.PickupTime.After(s.now()) {
		return ErrPickupTimeNotFuture
	}

	return nil
}

func (s *CatalogService) invalidateListing(ctx context.Context) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateAvailableRides(ctx)
	}
}

func ridesToCached(rides []*domain.Ride) []redis.CachedRide {
	cached := make([]redis.CachedRide, 0, len(rides))
	for _, r := range rides {
		cached = append(cached, redis.CachedRide{
			ID:                r.ID,
			DriverID:          r.DriverID,
			PickupLocation:    r.PickupLocation,
			DropoffLocation:   r.DropoffLocation,
			PickupTime:        r.PickupTime.Format(time.RFC3339),
			Fare:              r.Fare,
			IsGroup:           r.IsGroup,
			MaxPassengers:     r.MaxPassengers,
			CurrentPassengers: r.CurrentPassengers,
			CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		})
	}
	return cached
}

func cachedToRides(cached []redis.CachedRide) []*domain.Ride {
	rides := make([]*domain.Ride, 0, len(cached))
	for _, c := range cached {
		pickupTime, _ := time.Parse(time.RFC3339, c.PickupTime)
		createdAt, _ := time.Parse(time.RFC3339, c.CreatedAt)
		rides = append(rides, &domain.Ride{
			ID:                c.ID,
			DriverID:          c.DriverID,
			PickupLocation:    c.PickupLocation,
			DropoffLocation:   c.DropoffLocation,
			PickupTime:        pickupTime,
			Fare:              c.Fare,
			IsGroup:           c.IsGroup,
			MaxPassengers:     c.MaxPassengers,
			CurrentPassengers: c.CurrentPassengers,
			Status:            domain.RideStatusAvailable,
			CreatedAt:         createdAt,
		})
	}
	return rides
}
