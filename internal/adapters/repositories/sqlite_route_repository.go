package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
)

// SQLite-backed implementation of the RouteRepository port.
type SqliteRouteRepository struct{ DB *sql.DB }

func NewSqliteRouteRepository(db *sql.DB) *SqliteRouteRepository {
	return &SqliteRouteRepository{DB: db}
}

// SaveRoutes persists the routes with their ordered stops and materializes
// a route assignment row for every active student at each stop's school.
// The whole batch commits atomically.
func (r *SqliteRouteRepository) SaveRoutes(ctx context.Context, routes []domain.Route) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "routes.Save")(&err)

	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	if len(routes) == 0 {
		return []domain.Route{}, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]domain.Route, 0, len(routes))
	for _, route := range routes {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO routes (name, driver_id) VALUES (?, ?);`,
			route.Name, route.DriverID,
		)
		if err != nil {
			return nil, fmt.Errorf("save routes: insert route %q: %w", route.Name, err)
		}

		routeID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("save routes: route %q id: %w", route.Name, err)
		}
		route.RouteID = routeID

		for _, stop := range route.Stops {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO route_stops (route_id, order_index, school_id, estimated_arrival)
				 VALUES (?, ?, ?, ?);`,
				routeID, stop.OrderIndex, stop.School.SchoolID, stop.EstimatedArrival.String(),
			); err != nil {
				return nil, fmt.Errorf("save routes: insert stop %d of route %d: %w", stop.OrderIndex, routeID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO route_students (route_id, student_id, school_id)
				 SELECT ?, student_id, school_id FROM students
				 WHERE school_id = ? AND active = 1;`,
				routeID, stop.School.SchoolID,
			); err != nil {
				return nil, fmt.Errorf("save routes: assign students of school %d: %w", stop.School.SchoolID, err)
			}
		}

		saved = append(saved, route)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save routes: commit tx: %w", err)
	}

	return saved, nil
}

// GetRoute loads one route with its stops in order. Each stop carries the
// full school record and its current active student count.
func (r *SqliteRouteRepository) GetRoute(ctx context.Context, routeID int64) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "routes.Get")(&err)

	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	route := domain.Route{RouteID: routeID}
	var driverID sql.NullInt64
	err = r.DB.QueryRowContext(ctx,
		`SELECT name, driver_id FROM routes WHERE route_id = ?;`, routeID,
	).Scan(&route.Name, &driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get route %d: %w", routeID, err)
	}
	if driverID.Valid {
		route.DriverID = &driverID.Int64
	}

	route.Stops, err = r.stopsForRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route %d: %w", routeID, err)
	}

	return &route, nil
}

// ListRoutes returns every committed route with its stops, ordered by id.
func (r *SqliteRouteRepository) ListRoutes(ctx context.Context) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "routes.List")(&err)

	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT route_id, name, driver_id FROM routes ORDER BY route_id;`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0, 8)
	for rows.Next() {
		var (
			route    domain.Route
			driverID sql.NullInt64
		)
		if err := rows.Scan(&route.RouteID, &route.Name, &driverID); err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		if driverID.Valid {
			route.DriverID = &driverID.Int64
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	for i := range routes {
		routes[i].Stops, err = r.stopsForRoute(ctx, routes[i].RouteID)
		if err != nil {
			return nil, fmt.Errorf("list routes: route %d: %w", routes[i].RouteID, err)
		}
	}

	return routes, nil
}

func (r *SqliteRouteRepository) stopsForRoute(ctx context.Context, routeID int64) ([]domain.Stop, error) {
	query := `
	SELECT
		rs.order_index,
		rs.estimated_arrival,
		sc.school_id,
		sc.name,
		sc.lat,
		sc.lon,
		sc.dismissal_time,
		(SELECT COUNT(*) FROM students st WHERE st.school_id = sc.school_id AND st.active = 1)
	FROM route_stops rs
	JOIN schools sc ON sc.school_id = rs.school_id
	WHERE rs.route_id = ?
	ORDER BY rs.order_index;
	`
	rows, err := r.DB.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("load stops: query: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 8)
	for rows.Next() {
		var (
			stop               domain.Stop
			arrival, dismissal string
			lat, lon           sql.NullFloat64
		)
		if err := rows.Scan(
			&stop.OrderIndex, &arrival,
			&stop.School.SchoolID, &stop.School.Name, &lat, &lon, &dismissal,
			&stop.School.StudentCount,
		); err != nil {
			return nil, fmt.Errorf("load stops: scan row: %w", err)
		}

		if lat.Valid && lon.Valid {
			stop.School.Coords = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}

		stop.EstimatedArrival, err = domain.ParseClock(arrival)
		if err != nil {
			return nil, fmt.Errorf("load stops: stop %d arrival: %w", stop.OrderIndex, err)
		}
		stop.School.Dismissal, err = domain.ParseClock(dismissal)
		if err != nil {
			return nil, fmt.Errorf("load stops: school %d dismissal: %w", stop.School.SchoolID, err)
		}

		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load stops: row iteration: %w", err)
	}

	return stops, nil
}
