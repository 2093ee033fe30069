package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
)

const (
	week  = 7 * 24 * time.Hour
	month = 30 * 24 * time.Hour

	chartWeeks = 4
)

type WeeklyPoint struct {
	Week     string  `json:"week"`
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
}

type Stats struct {
	WeeklyDistance float64       `json:"weeklyDistance"`
	AvgSpeed       float64       `json:"avgSpeed"`
	Elevation      int           `json:"elevation"`
	WeeklyData     []WeeklyPoint `json:"weeklyData"`
}

type StatsService struct {
	store store.Store
}

func NewStatsService(s store.Store) *StatsService {
	return &StatsService{store: s}
}

func (s *StatsService) ComputeStats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	activities, err := s.store.GetActivitiesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(activities, now), nil
}

// Summarize aggregates rides over the last week plus a four week chart,
// oldest week first.
func Summarize(activities []models.Activity, now time.Time) *Stats {
	weekly := between(activities, now.Add(-week), time.Time{})

	// The 30 day partition is not reported yet.
	monthly := between(activities, now.Add(-month), time.Time{})
	log.WithField("rides", len(monthly)).Debug("Monthly partition computed")

	stats := &Stats{
		WeeklyDistance: round1(totalKilometers(weekly)),
		AvgSpeed:       round1(meanSpeed(weekly)),
		WeeklyData:     make([]WeeklyPoint, 0, chartWeeks),
	}

	for _, a := range weekly {
		stats.Elevation += a.ElevationGain
	}

	for i := chartWeeks - 1; i >= 0; i-- {
		start := now.Add(-time.Duration(i+1) * week)
		end := now.Add(-time.Duration(i) * week)
		window := between(activities, start, end)

		stats.WeeklyData = append(stats.WeeklyData, WeeklyPoint{
			Week:     fmt.Sprintf("Week %d", i+1),
			Distance: round1(totalKilometers(window)),
			Speed:    round1(meanSpeed(window)),
		})
	}

	return stats
}

// between keeps rides with from <= start < to. A zero to means no upper bound.
func between(activities []models.Activity, from, to time.Time) []models.Activity {
	var out []models.Activity
	for _, a := range activities {
		if a.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && !a.StartTime.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func totalKilometers(activities []models.Activity) float64 {
	meters := 0
	for _, a := range activities {
		meters += a.Distance
	}
	return float64(meters) / 1000
}

func meanSpeed(activities []models.Activity) float64 {
	if len(activities) == 0 {
		return 0
	}
	sum := 0
	for _, a := range activities {
		sum += a.AverageSpeed
	}
	return float64(sum) / float64(len(activities)) / 10
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
