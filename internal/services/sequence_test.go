package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickup-route-service/internal/domain"
)

func TestSequenceStopsOrdersByDismissal(t *testing.T) {
	cluster := domain.NewCluster(1, 30)
	// Deliberately out of order: the sequencer owns the authoritative
	// ordering, clustering order is only a hint.
	require.NoError(t, cluster.Add(domain.School{SchoolID: 3, Name: "C", Dismissal: clock(t, "15:10"), StudentCount: 12}))
	require.NoError(t, cluster.Add(domain.School{SchoolID: 1, Name: "A", Dismissal: clock(t, "14:50"), StudentCount: 10}))
	require.NoError(t, cluster.Add(domain.School{SchoolID: 2, Name: "B", Dismissal: clock(t, "15:00"), StudentCount: 8}))

	stops := SequenceStops(cluster, DefaultArrivalLeadMinutes)
	require.Len(t, stops, 3)

	assert.Equal(t, int64(1), stops[0].School.SchoolID)
	assert.Equal(t, int64(2), stops[1].School.SchoolID)
	assert.Equal(t, int64(3), stops[2].School.SchoolID)

	for i, stop := range stops {
		assert.Equal(t, i, stop.OrderIndex)
	}

	// Arrival targets sit five minutes ahead of dismissal and never
	// decrease across the route.
	assert.Equal(t, clock(t, "14:45"), stops[0].EstimatedArrival)
	assert.Equal(t, clock(t, "14:55"), stops[1].EstimatedArrival)
	assert.Equal(t, clock(t, "15:05"), stops[2].EstimatedArrival)
	for i := 1; i < len(stops); i++ {
		assert.GreaterOrEqual(t, stops[i].EstimatedArrival, stops[i-1].EstimatedArrival)
	}
}

func TestSequenceStopsSingleSchool(t *testing.T) {
	cluster := domain.NewCluster(1, 30)
	require.NoError(t, cluster.Add(domain.School{SchoolID: 1, Dismissal: clock(t, "15:00"), StudentCount: 5}))

	stops := SequenceStops(cluster, 5)
	require.Len(t, stops, 1)
	assert.Equal(t, 0, stops[0].OrderIndex)
	assert.Equal(t, clock(t, "14:55"), stops[0].EstimatedArrival)
}

func TestSequenceStopsEmptyCluster(t *testing.T) {
	stops := SequenceStops(domain.NewCluster(1, 30), 5)
	assert.Empty(t, stops)
}

func TestSequenceStopsClampsArrivalAtMidnight(t *testing.T) {
	cluster := domain.NewCluster(1, 30)
	require.NoError(t, cluster.Add(domain.School{SchoolID: 1, Dismissal: domain.MinuteOfDay(3), StudentCount: 5}))

	stops := SequenceStops(cluster, 5)
	assert.Equal(t, domain.MinuteOfDay(0), stops[0].EstimatedArrival)
}

func TestSequenceStopsStableForEqualDismissals(t *testing.T) {
	cluster := domain.NewCluster(1, 30)
	require.NoError(t, cluster.Add(domain.School{SchoolID: 7, Name: "First In", Dismissal: clock(t, "15:00"), StudentCount: 5}))
	require.NoError(t, cluster.Add(domain.School{SchoolID: 4, Name: "Second In", Dismissal: clock(t, "15:00"), StudentCount: 5}))

	stops := SequenceStops(cluster, 5)
	assert.Equal(t, int64(7), stops[0].School.SchoolID)
	assert.Equal(t, int64(4), stops[1].School.SchoolID)
}
