package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"school-route-service/internal/platform/obs"
)

// SQL-backed implementation of the RiderRepository port.
type SQLRiderRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLRiderRepository(db *sql.DB, dialect Dialect) *SQLRiderRepository {
	return &SQLRiderRepository{DB: db, Dialect: dialect}
}

// Return all riders ordered by rider ID.
func (s *SQLRiderRepository) ListRiders(ctx context.Context) (_ []*domain.Rider, err error) {
	defer obs.Time(ctx, "riders.List")(&err)

	if s.DB == nil {
		return nil, errors.New("rider repository: DB is nil")
	}

	query := `
	SELECT
		rider_id,
		name,
		street,
		city,
		state,
		postal_code,
		home_lat,
		home_lon,
		is_excluded
	FROM riders
	ORDER BY rider_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list riders: query riders table: %w", err)
	}
	defer rows.Close()

	riders := make([]*domain.Rider, 0, 64)
	for rows.Next() {
		var r domain.Rider
		var lat, lon sql.NullFloat64
		err := rows.Scan(
			&r.RiderID,
			&r.Name,
			&r.Address.Street,
			&r.Address.City,
			&r.Address.State,
			&r.Address.PostalCode,
			&lat,
			&lon,
			&r.Excluded,
		)
		if err != nil {
			return nil, fmt.Errorf("list riders: scan row: %w", err)
		}
		if lat.Valid && lon.Valid {
			r.Home = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		riders = append(riders, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list riders: row iteration: %w", err)
	}

	return riders, nil
}

// Insert or update riders keyed by rider ID.
func (s *SQLRiderRepository) UpsertRiders(ctx context.Context, riders []*domain.Rider) error {
	if s.DB == nil {
		return errors.New("rider repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert riders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.rebind(`
	INSERT INTO riders (
		rider_id, name, street, city, state, postal_code, home_lat, home_lon, is_excluded
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (rider_id) DO UPDATE
	SET name = excluded.name,
		street = excluded.street,
		city = excluded.city,
		state = excluded.state,
		postal_code = excluded.postal_code,
		home_lat = excluded.home_lat,
		home_lon = excluded.home_lon,
		is_excluded = excluded.is_excluded;
	`))
	if err != nil {
		return fmt.Errorf("upsert riders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range riders {
		var lat, lon sql.NullFloat64
		if r.Home != nil {
			lat = sql.NullFloat64{Float64: r.Home.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: r.Home.Lon, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			r.RiderID,
			r.Name,
			r.Address.Street,
			r.Address.City,
			r.Address.State,
			r.Address.PostalCode,
			lat,
			lon,
			r.Excluded,
		)
		if err != nil {
			return fmt.Errorf("upsert riders: rider_id=%d: %w", r.RiderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert riders: commit tx: %w", err)
	}

	return nil
}
