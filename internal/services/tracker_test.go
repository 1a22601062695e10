package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/geo"
)

type trackerFixture struct {
	*sessionFixture
	tracker  *Tracker
	notifier *memNotifier
	session  *domain.Session
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()

	f := newSessionFixture(t)
	tf := &trackerFixture{
		sessionFixture: f,
		notifier:       &memNotifier{},
	}
	tf.tracker = NewTracker(f.store, f.routes, f.fixes, nil, tf.notifier,
		DefaultTrackerConfig(), func() time.Time { return f.now })
	tf.session = tf.start(t)
	return tf
}

// setNow pins the wall clock to the given time of day on the service date.
func (tf *trackerFixture) setNow(t *testing.T, hhmm string) {
	t.Helper()
	m := clock(t, hhmm)
	tf.now = time.Date(2026, 9, 14, int(m)/60, int(m)%60, 0, 0, time.UTC)
}

// fixAtMiles returns a fix the given number of miles due south of the
// session's first stop (Washington, dismissal 14:50).
func (tf *trackerFixture) fixAtMiles(miles float64) domain.LocationFix {
	school := domain.Coordinates{Lat: 33.46, Lon: -112.07}
	return domain.LocationFix{
		DriverID:   55,
		SessionID:  tf.session.SessionID,
		Coords:     domain.Coordinates{Lat: school.Lat - miles/69.097, Lon: school.Lon},
		RecordedAt: tf.now,
	}
}

func TestIngestRaisesProximityAlert(t *testing.T) {
	tf := newTrackerFixture(t)
	tf.setNow(t, "14:42") // 8 minutes to the 14:50 dismissal

	result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)

	assert.True(t, result.Recorded)
	assert.True(t, result.Evaluated)
	require.NotNil(t, result.Alert)
	assert.InDelta(t, 3.5, result.Alert.DistanceMiles, 0.05)
	assert.Equal(t, 8, result.Alert.MinutesUntilDismissal)
	assert.Equal(t, int64(1), result.Alert.SchoolID)
	assert.Equal(t, domain.SeverityWarning, result.Alert.Severity)

	require.Len(t, tf.notifier.alerts, 1)
	assert.Equal(t, *result.Alert, tf.notifier.alerts[0])
}

func TestIngestEscalatesToCritical(t *testing.T) {
	tf := newTrackerFixture(t)
	tf.setNow(t, "14:46") // 4 minutes left

	result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Equal(t, domain.SeverityCritical, result.Alert.Severity)
}

func TestNoAlertWhenVehicleIsClose(t *testing.T) {
	tf := newTrackerFixture(t)
	tf.setNow(t, "14:42")

	result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(1.5))
	require.NoError(t, err)
	assert.Nil(t, result.Alert)
	assert.Empty(t, tf.notifier.alerts)
}

func TestNoAlertAtExactDistanceThreshold(t *testing.T) {
	tf := newTrackerFixture(t)
	tf.setNow(t, "14:42")

	// Pin the threshold to the fix's exact computed distance: the
	// condition is strictly greater-than, so no alert fires.
	fix := tf.fixAtMiles(2)
	school := domain.Coordinates{Lat: 33.46, Lon: -112.07}
	cfg := DefaultTrackerConfig()
	cfg.DistanceThresholdMiles = geo.Miles(fix.Coords, school)

	tracker := NewTracker(tf.store, tf.routes, tf.fixes, nil, tf.notifier, cfg,
		func() time.Time { return tf.now })

	result, err := tracker.Ingest(context.Background(), fix)
	require.NoError(t, err)
	assert.Nil(t, result.Alert)
}

func TestNoAlertAtDismissalOrAfter(t *testing.T) {
	tf := newTrackerFixture(t)

	tf.setNow(t, "14:50") // zero minutes left
	result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)
	assert.Nil(t, result.Alert)

	tf.setNow(t, "14:55") // already past dismissal
	result, err = tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)
	assert.Nil(t, result.Alert)
}

func TestNoAlertOutsideTimeWindow(t *testing.T) {
	tf := newTrackerFixture(t)

	tf.setNow(t, "14:39") // 11 minutes out, one past the window
	result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)
	assert.Nil(t, result.Alert)

	tf.setNow(t, "14:40") // exactly 10 minutes: inside
	result, err = tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
	require.NoError(t, err)
	assert.NotNil(t, result.Alert)
}

func TestIngestStaleFixRecordedNotEvaluated(t *testing.T) {
	tf := newTrackerFixture(t)
	ctx := context.Background()

	for _, id := range []int64{101, 102, 103, 104, 105} {
		_, err := tf.manager.RecordPickup(ctx, tf.session.SessionID, id, domain.PickupPickedUp, "")
		require.NoError(t, err)
	}
	_, err := tf.manager.Complete(ctx, tf.session.SessionID, nil)
	require.NoError(t, err)

	tf.setNow(t, "14:42")
	result, err := tf.tracker.Ingest(ctx, tf.fixAtMiles(3.5))
	require.NoError(t, err)

	// Late fixes after completion are kept for the trail but never
	// rejected and never alerted on.
	assert.True(t, result.Recorded)
	assert.False(t, result.Evaluated)
	assert.Nil(t, result.Alert)

	fixes, err := tf.fixes.ListForSession(ctx, tf.session.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, fixes)
}

func TestIngestUnknownSessionRecorded(t *testing.T) {
	tf := newTrackerFixture(t)

	fix := tf.fixAtMiles(1)
	fix.SessionID = 999

	result, err := tf.tracker.Ingest(context.Background(), fix)
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.False(t, result.Evaluated)
}

func TestNextStopAdvancesAsPickupsResolve(t *testing.T) {
	tf := newTrackerFixture(t)
	ctx := context.Background()

	stop, err := tf.tracker.NextStop(ctx, tf.session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Equal(t, int64(1), stop.School.SchoolID)

	// Resolving all of school 1 moves the target to school 2.
	for _, id := range []int64{101, 102, 103} {
		_, err := tf.manager.RecordPickup(ctx, tf.session.SessionID, id, domain.PickupPickedUp, "")
		require.NoError(t, err)
	}
	stop, err = tf.tracker.NextStop(ctx, tf.session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Equal(t, int64(2), stop.School.SchoolID)

	// Absences count as resolved too.
	for _, id := range []int64{104, 105} {
		_, err := tf.manager.RecordPickup(ctx, tf.session.SessionID, id, domain.PickupAbsent, "sick")
		require.NoError(t, err)
	}
	stop, err = tf.tracker.NextStop(ctx, tf.session.SessionID)
	require.NoError(t, err)
	assert.Nil(t, stop, "route is logically complete")
}

func TestAlertNotDebounced(t *testing.T) {
	tf := newTrackerFixture(t)
	tf.setNow(t, "14:42")

	for i := 0; i < 3; i++ {
		result, err := tf.tracker.Ingest(context.Background(), tf.fixAtMiles(3.5))
		require.NoError(t, err)
		require.NotNil(t, result.Alert)
	}

	// Severity is recomputed from current position every fix; a prior
	// alert never suppresses the next one.
	assert.Len(t, tf.notifier.alerts, 3)
}
