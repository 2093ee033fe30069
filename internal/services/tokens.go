package services

import (
	"context"
	"time"

	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/observability"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
)

type TokenRefresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*providers.Tokens, error)
}

// TokenService renews fitness provider tokens ahead of expiry. It runs on a
// schedule and never on the sync path.
type TokenService struct {
	store     store.Store
	refresher TokenRefresher
	window    time.Duration
}

func NewTokenService(s store.Store, refresher TokenRefresher, window time.Duration) *TokenService {
	return &TokenService{store: s, refresher: refresher, window: window}
}

// RefreshExpiring renews every token expiring before now+window and reports
// how many were renewed. A failure for one user does not stop the others.
func (s *TokenService) RefreshExpiring(ctx context.Context, now time.Time) (int, error) {
	users, err := s.store.ListStravaConnectedUsers(ctx)
	if err != nil {
		return 0, err
	}

	deadline := now.Add(s.window)
	refreshed := 0

	for i := range users {
		user := &users[i]
		if user.StravaTokenExpiry != nil && user.StravaTokenExpiry.After(deadline) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		err := s.refresh(ctx, user)
		observability.RecordTokenRefresh(err)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("Failed to refresh Strava token")
			continue
		}
		refreshed++
	}

	return refreshed, nil
}

func (s *TokenService) refresh(ctx context.Context, user *models.User) error {
	tokens, err := s.refresher.RefreshTokens(ctx, user.StravaRefreshToken)
	if err != nil {
		return err
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		// provider kept the old refresh token
		refreshToken = user.StravaRefreshToken
	}

	var expiry *time.Time
	if !tokens.ExpiresAt.IsZero() {
		expiry = &tokens.ExpiresAt
	}

	// Only the token columns: the row read above may be stale by now.
	return s.store.UpdateStravaTokens(ctx, user.ID, tokens.AccessToken, refreshToken, expiry)
}
