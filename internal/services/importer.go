package services

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/observability"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
)

type ActivityFetcher interface {
	FetchActivities(ctx context.Context, accessToken string, page, perPage int) ([]providers.RemoteActivity, error)
}

// ImportService copies remote rides into the store. Every sync inserts what
// it fetched; rides imported by an earlier sync are inserted again.
type ImportService struct {
	store   store.Store
	fetcher ActivityFetcher
}

func NewImportService(s store.Store, fetcher ActivityFetcher) *ImportService {
	return &ImportService{store: s, fetcher: fetcher}
}

// SyncActivities imports the first page of the user's remote activities and
// returns how many rides were stored. An expired token surfaces as an
// UpstreamAuthError; no refresh is attempted here.
func (s *ImportService) SyncActivities(ctx context.Context, user *models.User) (int, error) {
	if user == nil || user.StravaAccessToken == "" {
		return 0, ErrNotConnected
	}

	remote, err := s.fetcher.FetchActivities(ctx, user.StravaAccessToken, providers.DefaultActivityPage, providers.DefaultActivityPageSize)
	if err != nil {
		observability.RecordSyncFailure()
		return 0, err
	}

	var rides []models.Activity
	for _, r := range remote {
		if r.Type != providers.StravaRideType {
			continue
		}

		activity, err := MapRemoteActivity(user.ID, r)
		if err != nil {
			observability.RecordSyncFailure()
			return 0, err
		}
		rides = append(rides, activity)
	}

	for i := range rides {
		if err := s.store.CreateActivity(ctx, &rides[i]); err != nil {
			observability.RecordSyncFailure()
			return 0, errors.Wrap(err, "store imported ride")
		}
	}

	observability.RecordImported(len(rides))
	log.WithFields(log.Fields{
		"user_id": user.ID,
		"fetched": len(remote),
		"stored":  len(rides),
	}).Info("Strava activities synced")

	return len(rides), nil
}

// MapRemoteActivity converts provider units to the stored ones. Speeds go
// from m/s to km/h scaled by 10.
func MapRemoteActivity(userID string, r providers.RemoteActivity) (models.Activity, error) {
	startTime, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return models.Activity{}, errors.Wrapf(err, "parse start date of remote activity %d", r.ID)
	}

	return models.Activity{
		UserID:        userID,
		Title:         r.Name,
		Distance:      int(math.Round(r.Distance)),
		Duration:      r.MovingTime,
		ElevationGain: int(math.Round(r.TotalElevationGain)),
		AverageSpeed:  SpeedToStored(r.AverageSpeed),
		MaxSpeed:      SpeedToStored(r.MaxSpeed),
		ActivityType:  models.ActivityTypeRide,
		StartTime:     startTime,
	}, nil
}

func SpeedToStored(metersPerSecond float64) int {
	return int(math.Round(metersPerSecond * 36))
}
