package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/store"
)

type ActivityInput struct {
	Title         string
	Distance      int
	Duration      int
	ElevationGain int
	AverageSpeed  int
	MaxSpeed      int
	ActivityType  string
	StartTime     time.Time
}

func (in ActivityInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || in.StartTime.IsZero() {
		return ErrInvalidInput
	}
	if in.Distance < 0 || in.Duration < 0 || in.ElevationGain < 0 || in.AverageSpeed < 0 || in.MaxSpeed < 0 {
		return ErrInvalidInput
	}
	return nil
}

type ActivityService struct {
	store  store.Store
	groups *GroupService
}

func NewActivityService(s store.Store, groups *GroupService) *ActivityService {
	return &ActivityService{store: s, groups: groups}
}

func (s *ActivityService) List(ctx context.Context, userID string) ([]models.Activity, error) {
	return s.store.GetActivitiesByUserID(ctx, userID)
}

func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.store.GetActivity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrActivityNotFound
	}
	return activity, err
}

// Create records a manual ride and announces it to the rider's groups.
func (s *ActivityService) Create(ctx context.Context, user *models.User, input ActivityInput) (*models.Activity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	activityType := input.ActivityType
	if activityType == "" {
		activityType = models.ActivityTypeRide
	}

	activity := &models.Activity{
		UserID:        user.ID,
		Title:         strings.TrimSpace(input.Title),
		Distance:      input.Distance,
		Duration:      input.Duration,
		ElevationGain: input.ElevationGain,
		AverageSpeed:  input.AverageSpeed,
		MaxSpeed:      input.MaxSpeed,
		ActivityType:  activityType,
		StartTime:     input.StartTime,
	}

	if err := s.store.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}

	if s.groups != nil {
		s.groups.AnnounceRide(ctx, user, activity)
	}

	return activity, nil
}
