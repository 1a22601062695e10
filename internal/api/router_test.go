package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"pickup-route-service/internal/adapters/notify"
	"pickup-route-service/internal/adapters/repositories"
	"pickup-route-service/internal/services"
)

type apiFixture struct {
	handler http.Handler
	db      *sql.DB
	now     time.Time
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repositories.InitSchema(db))

	for _, stmt := range []string{
		`INSERT INTO schools (school_id, name, lat, lon, dismissal_time) VALUES
			(1, 'Lincoln Elementary', 33.4484, -112.0740, '14:50'),
			(2, 'Washington Middle', 33.5000, -112.0500, '15:00');`,
		`INSERT INTO students (student_id, name, school_id, active) VALUES
			(101, 'Ana', 1, 1),
			(102, 'Ben', 1, 1),
			(201, 'Dev', 2, 1);`,
		`INSERT INTO absences (student_id, absence_date) VALUES (201, '2026-09-14');`,
	} {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	f := &apiFixture{
		db:  db,
		now: time.Date(2026, 9, 14, 14, 30, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	roster := repositories.NewSqliteRoster(db)
	absences := repositories.NewSqliteAbsences(db)
	routes := repositories.NewSqliteRouteRepository(db)
	store := repositories.NewSqliteSessionStore(db)
	history := repositories.NewSqliteHistorySink(db)
	fixes := repositories.NewSqliteFixLog(db)

	f.handler = NewRouter(Dependencies{
		Roster:   roster,
		Routes:   routes,
		Store:    store,
		Fixes:    fixes,
		Sessions: services.NewSessionManager(store, routes, roster, absences, history, fixes, clock),
		Tracker: services.NewTracker(store, routes, fixes, nil, notify.NewCollector(),
			services.DefaultTrackerConfig(), clock),
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// Commits a one-vehicle route over both schools and returns its id.
func (f *apiFixture) commitRoute(t *testing.T) int64 {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/routes/commit", map[string]any{
		"routes": []map[string]any{{
			"name": "Route 1",
			"stops": []map[string]any{
				{"school_id": 1, "order_index": 0, "estimated_arrival": "14:45"},
				{"school_id": 2, "order_index": 1, "estimated_arrival": "14:55"},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		Routes []struct {
			RouteID int64 `json:"route_id"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Routes, 1)
	return res.Routes[0].RouteID
}

func (f *apiFixture) startSession(t *testing.T, routeID int64) int64 {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/sessions/start", map[string]any{
		"route_id": routeID, "driver_id": 7, "date": "2026-09-14",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	return int64(body["session_id"].(float64))
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestListSchools(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/schools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Schools []struct {
			SchoolID     int64  `json:"school_id"`
			Name         string `json:"name"`
			Dismissal    string `json:"dismissal"`
			StudentCount int    `json:"student_count"`
		} `json:"schools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Schools, 2)
	assert.Equal(t, "Lincoln Elementary", res.Schools[0].Name)
	assert.Equal(t, 2, res.Schools[0].StudentCount)
	assert.Equal(t, "14:50", res.Schools[0].Dismissal)
}

func TestOptimizeEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/optimize", map[string]any{
		"vehicle_count":     1,
		"seats_per_vehicle": 30,
		"buffer_minutes":    3,
		"day_start":         "14:30",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Proposals []struct {
			Route struct {
				Name  string `json:"name"`
				Stops []struct {
					SchoolID         int64  `json:"school_id"`
					OrderIndex       int    `json:"order_index"`
					EstimatedArrival string `json:"estimated_arrival"`
				} `json:"stops"`
			} `json:"route"`
			Metrics struct {
				TotalStudents int `json:"total_students"`
			} `json:"metrics"`
		} `json:"proposals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Proposals, 1)
	require.Len(t, res.Proposals[0].Route.Stops, 2)
	assert.Equal(t, int64(1), res.Proposals[0].Route.Stops[0].SchoolID)
	assert.Equal(t, "14:45", res.Proposals[0].Route.Stops[0].EstimatedArrival)
	assert.Equal(t, 3, res.Proposals[0].Metrics.TotalStudents)
}

func TestOptimizeRejectsBadConstraints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/optimize", map[string]any{
		"vehicle_count":     0,
		"seats_per_vehicle": 30,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/optimize", map[string]any{
		"vehicle_count": 1, "seats_per_vehicle": 30, "day_start": "25:99",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitAndGetRoute(t *testing.T) {
	f := newAPIFixture(t)
	routeID := f.commitRoute(t)

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/routes/%d", routeID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Name  string `json:"name"`
		Stops []struct {
			SchoolName   string `json:"school_name"`
			StudentCount int    `json:"student_count"`
		} `json:"stops"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Route 1", res.Name)
	require.Len(t, res.Stops, 2)
	assert.Equal(t, "Lincoln Elementary", res.Stops[0].SchoolName)
	assert.Equal(t, 2, res.Stops[0].StudentCount)

	rec = f.do(t, http.MethodGet, "/routes/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	routeID := f.commitRoute(t)
	sessionID := f.startSession(t, routeID)

	// A second start for the same route and date conflicts.
	rec := f.do(t, http.MethodPost, "/sessions/start", map[string]any{
		"route_id": routeID, "driver_id": 8, "date": "2026-09-14",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Three pending pickups were seeded.
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/sessions/%d", sessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Pickups []struct {
			StudentID int64  `json:"student_id"`
			Status    string `json:"status"`
		} `json:"pickups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "in_progress", detail.Session.Status)
	require.Len(t, detail.Pickups, 3)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/pickups", sessionID), map[string]any{
		"student_id": 101, "status": "picked_up",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "picked_up", body["status"])
	assert.NotEmpty(t, body["picked_up_at"])

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/pickups", sessionID), map[string]any{
		"student_id": 101, "status": "vanished",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Student 102 is pending with no absence record: completion refuses
	// and names the offender. 201 is auto-resolved from the absence list.
	f.now = f.now.Add(14 * time.Minute)
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/complete", sessionID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decodeBody(t, rec)
	require.Len(t, conflict["student_ids"], 1)
	assert.Equal(t, float64(102), conflict["student_ids"].([]any)[0])

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/pickups", sessionID), map[string]any{
		"student_id": 102, "status": "no_show", "note": "not at pickup point",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/complete", sessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decodeBody(t, rec)
	assert.Equal(t, "completed", completed["status"])
	assert.Equal(t, float64(14), completed["duration_minutes"])

	// The permanent record reflects the final pickup tallies.
	var pickedUp, absent, noShow int
	require.NoError(t, f.db.QueryRow(
		`SELECT picked_up, absent, no_show FROM session_history WHERE session_id = ?;`, sessionID,
	).Scan(&pickedUp, &absent, &noShow))
	assert.Equal(t, 1, pickedUp)
	assert.Equal(t, 1, absent)
	assert.Equal(t, 1, noShow)

	// No further mutations once terminal.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%d/pickups", sessionID), map[string]any{
		"student_id": 101, "status": "pending",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/sessions/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions/999/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	routeID := f.commitRoute(t)
	sessionID := f.startSession(t, routeID)

	// 14:44, six minutes before Lincoln's dismissal, 3.5 miles out.
	f.now = time.Date(2026, 9, 14, 14, 44, 0, 0, time.UTC)
	rec := f.do(t, http.MethodPost, "/tracking/fixes", map[string]any{
		"driver_id":  7,
		"session_id": sessionID,
		"lat":        33.4484 - 3.5/69.097,
		"lon":        -112.0740,
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var ingest struct {
		Recorded  bool `json:"recorded"`
		Evaluated bool `json:"evaluated"`
		NextStop  *struct {
			SchoolID int64 `json:"school_id"`
		} `json:"next_stop"`
		DistanceMiles *float64 `json:"distance_miles"`
		Alert         *struct {
			Severity              string `json:"severity"`
			MinutesUntilDismissal int    `json:"minutes_until_dismissal"`
		} `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingest))
	assert.True(t, ingest.Recorded)
	assert.True(t, ingest.Evaluated)
	require.NotNil(t, ingest.NextStop)
	assert.Equal(t, int64(1), ingest.NextStop.SchoolID)
	require.NotNil(t, ingest.DistanceMiles)
	assert.InDelta(t, 3.5, *ingest.DistanceMiles, 0.05)
	require.NotNil(t, ingest.Alert)
	assert.Equal(t, "warning", ingest.Alert.Severity)
	assert.Equal(t, 6, ingest.Alert.MinutesUntilDismissal)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/sessions/%d/track", sessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var track struct {
		Status    string `json:"status"`
		LatestFix *struct {
			Lat float64 `json:"lat"`
		} `json:"latest_fix"`
		NextStop *struct {
			SchoolID int64 `json:"school_id"`
		} `json:"next_stop"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &track))
	assert.Equal(t, "in_progress", track.Status)
	require.NotNil(t, track.LatestFix)
	require.NotNil(t, track.NextStop)
	assert.Equal(t, int64(1), track.NextStop.SchoolID)
}

func TestTrackingRejectsBadFix(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/tracking/fixes", map[string]any{
		"driver_id": 7, "session_id": 1, "lat": 123.0, "lon": 0.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
