package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, driver_id, student_id, pickup_location, dropoff_location, pickup_time, fare, is_group, max_passengers, current_passengers, status, version, created_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
// It owns the transaction for aggregate writes: the ride row and its
// membership rows commit or roll back together.
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create persists a new ride advertisement.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		nullString(ride.StudentID),
		ride.PickupLocation,
		ride.DropoffLocation,
		ride.PickupTime,
		ride.Fare,
		ride.IsGroup,
		ride.MaxPassengers,
		ride.CurrentPassengers,
		ride.Status,
		ride.Version,
		ride.CreatedAt,
	)

	return err
}

// GetByID retrieves a ride together with its memberships.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if ride.IsGroup {
		if err := r.loadMembers(ctx, ride); err != nil {
			return nil, err
		}
	}

	return ride, nil
}

// ListAvailable retrieves rides open for booking, pickup time ascending.
func (r *RideRepository) ListAvailable(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE status = $1
		ORDER BY pickup_time ASC, created_at ASC
	`
	return r.list(ctx, query, domain.RideStatusAvailable)
}

// ListByDriver retrieves the rides advertised by a driver.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE driver_id = $1
		ORDER BY pickup_time ASC, created_at ASC
	`
	return r.list(ctx, query, driverID)
}

// ListByStudent retrieves rides the student currently holds a seat on, as
// sole rider or group member.
func (r *RideRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE student_id = $1
		   OR id IN (SELECT ride_id FROM ride_members WHERE student_id = $1)
		ORDER BY pickup_time ASC, created_at ASC
	`
	return r.list(ctx, query, studentID)
}

// UpdateAggregate persists the ride row and replaces its membership rows in
// one transaction, guarded by the aggregate version. On success the
// in-memory version is advanced to match the stored row.
func (r *RideRepository) UpdateAggregate(ctx context.Context, ride *domain.Ride) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		UPDATE rides
		SET student_id = $1, status = $2, current_passengers = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`

	result, err := tx.ExecContext(ctx, query,
		nullString(ride.StudentID),
		ride.Status,
		ride.CurrentPassengers,
		ride.ID,
		ride.Version,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Row missing or version moved on; distinguish the two.
		var exists bool
		if scanErr := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rides WHERE id = $1)`, ride.ID).Scan(&exists); scanErr != nil {
			return scanErr
		}
		if !exists {
			err = repository.ErrNotFound
			return err
		}
		err = repository.ErrVersionConflict
		return err
	}

	if ride.IsGroup {
		if err = replaceMembers(ctx, tx, ride); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	ride.Version++
	return nil
}

// replaceMembers rewrites the membership rows from the aggregate state.
func replaceMembers(ctx context.Context, tx *sql.Tx, ride *domain.Ride) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ride_members WHERE ride_id = $1`, ride.ID); err != nil {
		return err
	}

	for _, m := range ride.Members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ride_members (id, ride_id, student_id, joined_at)
			VALUES ($1, $2, $3, $4)
		`, m.ID, m.RideID, m.StudentID, m.JoinedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicateMembership
			}
			return err
		}
	}

	return nil
}

func (r *RideRepository) loadMembers(ctx context.Context, ride *domain.Ride) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ride_id, student_id, joined_at
		FROM ride_members WHERE ride_id = $1
		ORDER BY joined_at ASC
	`, ride.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.RideID, &m.StudentID, &m.JoinedAt); err != nil {
			return err
		}
		ride.Members = append(ride.Members, m)
	}
	return rows.Err()
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRideRow(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInto(s rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var studentID sql.NullString

	err := s.Scan(
		&ride.ID,
		&ride.DriverID,
		&studentID,
		&ride.PickupLocation,
		&ride.DropoffLocation,
		&ride.PickupTime,
		&ride.Fare,
		&ride.IsGroup,
		&ride.MaxPassengers,
		&ride.CurrentPassengers,
		&ride.Status,
		&ride.Version,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if studentID.Valid {
		ride.StudentID = studentID.String
	}
	return &ride, nil
}

func scanRide(row *sql.Row) (*domain.Ride, error) {
	ride, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func scanRideRow(rows *sql.Rows) (*domain.Ride, error) {
	return scanInto(rows)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
