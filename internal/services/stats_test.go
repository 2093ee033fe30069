package services

import (
	"context"
	"testing"
	"time"

	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statsNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, statsNow)

	assert.Zero(t, stats.WeeklyDistance)
	assert.Zero(t, stats.AvgSpeed)
	assert.Zero(t, stats.Elevation)
	require.Len(t, stats.WeeklyData, 4)
	for _, point := range stats.WeeklyData {
		assert.Zero(t, point.Distance)
		assert.Zero(t, point.Speed)
	}
	assert.Equal(t, "Week 4", stats.WeeklyData[0].Week)
	assert.Equal(t, "Week 1", stats.WeeklyData[3].Week)
}

func TestSummarizeWeeklyFigures(t *testing.T) {
	activities := []models.Activity{
		{Distance: 20124, AverageSpeed: SpeedToStored(5.0), ElevationGain: 210, StartTime: statsNow.Add(-24 * time.Hour)},
		{Distance: 15050, AverageSpeed: 250, ElevationGain: 95, StartTime: statsNow.Add(-6 * 24 * time.Hour)},
		// 10 days ago: outside the weekly figures, inside week 2 of the chart
		{Distance: 40000, AverageSpeed: 300, ElevationGain: 500, StartTime: statsNow.Add(-10 * 24 * time.Hour)},
		// 40 days ago: outside everything
		{Distance: 99000, AverageSpeed: 400, ElevationGain: 900, StartTime: statsNow.Add(-40 * 24 * time.Hour)},
	}

	stats := Summarize(activities, statsNow)

	assert.Equal(t, 35.2, stats.WeeklyDistance)
	assert.Equal(t, 21.5, stats.AvgSpeed)
	assert.Equal(t, 305, stats.Elevation)

	require.Len(t, stats.WeeklyData, 4)
	assert.Equal(t, WeeklyPoint{Week: "Week 4", Distance: 0, Speed: 0}, stats.WeeklyData[0])
	assert.Equal(t, WeeklyPoint{Week: "Week 3", Distance: 0, Speed: 0}, stats.WeeklyData[1])
	assert.Equal(t, WeeklyPoint{Week: "Week 2", Distance: 40, Speed: 30}, stats.WeeklyData[2])
	assert.Equal(t, WeeklyPoint{Week: "Week 1", Distance: 35.2, Speed: 21.5}, stats.WeeklyData[3])
}

func TestSummarizeSpeedRoundTrip(t *testing.T) {
	activities := []models.Activity{
		{Distance: 1000, AverageSpeed: SpeedToStored(5.0), StartTime: statsNow.Add(-time.Hour)},
	}

	stats := Summarize(activities, statsNow)
	assert.Equal(t, 18.0, stats.AvgSpeed)
}

func TestSummarizeWindowBoundaries(t *testing.T) {
	activities := []models.Activity{
		// exactly one week ago belongs to the weekly figures and to week 1
		{Distance: 1000, AverageSpeed: 100, StartTime: statsNow.Add(-week)},
		// exactly now is past the end of week 1
		{Distance: 2000, AverageSpeed: 200, StartTime: statsNow},
	}

	stats := Summarize(activities, statsNow)

	assert.Equal(t, 3.0, stats.WeeklyDistance)
	assert.Equal(t, 1.0, stats.WeeklyData[3].Distance)
	assert.Zero(t, stats.WeeklyData[2].Distance)
}

func TestComputeStatsReadsStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	user := &models.User{Email: "rider@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateActivity(ctx, &models.Activity{
		UserID:       user.ID,
		Title:        "Ride",
		Distance:     12345,
		AverageSpeed: 245,
		StartTime:    statsNow.Add(-2 * time.Hour),
	}))

	stats, err := NewStatsService(s).ComputeStats(ctx, user.ID, statsNow)
	require.NoError(t, err)
	assert.Equal(t, 12.3, stats.WeeklyDistance)
	assert.Equal(t, 24.5, stats.AvgSpeed)
}
