package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls []string
}

func (f *fakeRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*providers.Tokens, error) {
	f.calls = append(f.calls, refreshToken)
	if refreshToken == "revoked" {
		return nil, errors.New("revoked")
	}
	return &providers.Tokens{
		AccessToken: "new-" + refreshToken,
		ExpiresAt:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func TestRefreshExpiring(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	soon := now.Add(30 * time.Minute)
	later := now.Add(5 * time.Hour)

	fixtures := []*models.User{
		{Email: "soon@example.com", StravaAccessToken: "a1", StravaRefreshToken: "r-soon", StravaTokenExpiry: &soon},
		{Email: "later@example.com", StravaAccessToken: "a2", StravaRefreshToken: "r-later", StravaTokenExpiry: &later},
		{Email: "revoked@example.com", StravaAccessToken: "a3", StravaRefreshToken: "revoked", StravaTokenExpiry: &soon},
		{Email: "plain@example.com"},
	}
	for _, u := range fixtures {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	refresher := &fakeRefresher{}
	svc := NewTokenService(s, refresher, time.Hour)

	n, err := svc.RefreshExpiring(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ElementsMatch(t, []string{"r-soon", "revoked"}, refresher.calls)

	refreshed, err := s.GetUser(ctx, fixtures[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "new-r-soon", refreshed.StravaAccessToken)
	assert.Equal(t, "r-soon", refreshed.StravaRefreshToken)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), *refreshed.StravaTokenExpiry)

	untouched, err := s.GetUser(ctx, fixtures[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", untouched.StravaAccessToken)
}

type renamingRefresher struct {
	store  store.Store
	userID string
}

func (r *renamingRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*providers.Tokens, error) {
	user, err := r.store.GetUser(ctx, r.userID)
	if err != nil {
		return nil, err
	}

	googleID := "g-42"
	user.Name = "Renamed Mid Refresh"
	user.GoogleID = &googleID
	user.Provider = models.ProviderGoogle
	if err := r.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return &providers.Tokens{AccessToken: "fresh", RefreshToken: "fresh-refresh"}, nil
}

func TestRefreshExpiringKeepsConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	soon := now.Add(10 * time.Minute)

	user := &models.User{
		Email:              "sam@example.com",
		Name:               "Sam Spinner",
		Provider:           models.ProviderStrava,
		StravaAccessToken:  "stale",
		StravaRefreshToken: "r-sam",
		StravaTokenExpiry:  &soon,
	}
	require.NoError(t, s.CreateUser(ctx, user))

	svc := NewTokenService(s, &renamingRefresher{store: s, userID: user.ID}, time.Hour)

	n, err := svc.RefreshExpiring(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Mid Refresh", stored.Name)
	assert.Equal(t, models.ProviderGoogle, stored.Provider)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "g-42", *stored.GoogleID)

	assert.Equal(t, "fresh", stored.StravaAccessToken)
	assert.Equal(t, "fresh-refresh", stored.StravaRefreshToken)
	require.NotNil(t, stored.StravaTokenExpiry)
	assert.Equal(t, soon, *stored.StravaTokenExpiry)
}
