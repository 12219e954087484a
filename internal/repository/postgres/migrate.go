package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is a named, idempotent schema step. Applied migrations are
// recorded in _migrations so a restart never re-runs or drops anything.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{
		name: "001_create_rides",
		stmt: `
			CREATE TABLE IF NOT EXISTS rides (
				id UUID PRIMARY KEY,
				driver_id TEXT NOT NULL,
				student_id TEXT,
				pickup_location TEXT NOT NULL,
				dropoff_location TEXT NOT NULL,
				pickup_time TIMESTAMPTZ NOT NULL,
				fare DOUBLE PRECISION NOT NULL,
				is_group BOOLEAN NOT NULL DEFAULT FALSE,
				max_passengers INTEGER NOT NULL DEFAULT 1,
				current_passengers INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL,
				version BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL,
				CONSTRAINT rides_capacity CHECK (current_passengers >= 0 AND current_passengers <= max_passengers)
			)`,
	},
	{
		name: "002_create_ride_members",
		stmt: `
			CREATE TABLE IF NOT EXISTS ride_members (
				id UUID PRIMARY KEY,
				ride_id UUID NOT NULL REFERENCES rides(id),
				student_id TEXT NOT NULL,
				joined_at TIMESTAMPTZ NOT NULL,
				CONSTRAINT ride_members_one_seat UNIQUE (ride_id, student_id)
			)`,
	},
	{
		name: "003_create_payments",
		stmt: `
			CREATE TABLE IF NOT EXISTS payments (
				id UUID PRIMARY KEY,
				ride_id UUID NOT NULL REFERENCES rides(id),
				student_id TEXT NOT NULL,
				amount DOUBLE PRECISION NOT NULL,
				method TEXT NOT NULL,
				status TEXT NOT NULL,
				qr_payload TEXT,
				created_at TIMESTAMPTZ NOT NULL
			)`,
	},
	{
		name: "004_index_rides_listing",
		stmt: `CREATE INDEX IF NOT EXISTS rides_status_pickup_idx ON rides (status, pickup_time, created_at)`,
	},
	{
		name: "005_index_rides_driver",
		stmt: `CREATE INDEX IF NOT EXISTS rides_driver_idx ON rides (driver_id)`,
	},
}

// RunMigrations applies any pending schema migrations. Safe to run on every
// startup.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			id SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure _migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.QueryContext(ctx, `SELECT name FROM _migrations`)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations (name) VALUES ($1)`, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
