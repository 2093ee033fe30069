package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

func newUser(t *testing.T, s Store, username, email string) *models.User {
	t.Helper()

	user := &models.User{Username: strPtr(username), Email: email, Name: username}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestMemoryStoreUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice := newUser(t, s, "alice", "alice@example.com")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, models.ProviderLocal, alice.Provider)
	assert.False(t, alice.CreatedAt.IsZero())

	err := s.CreateUser(ctx, &models.User{Username: strPtr("other"), Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.CreateUser(ctx, &models.User{Username: strPtr("alice"), Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	alice.StravaID = int64Ptr(42)
	require.NoError(t, s.UpdateUser(ctx, alice))

	err = s.CreateUser(ctx, &models.User{Email: "bob@example.com", StravaID: int64Ptr(42)})
	assert.ErrorIs(t, err, ErrDuplicate)

	// users without a username never collide on it
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "c@example.com"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "d@example.com"}))

	found, err := s.GetUserByStravaID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUpdateUserConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	newUser(t, s, "alice", "alice@example.com")
	bob := newUser(t, s, "bob", "bob@example.com")

	bob.Email = "alice@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, bob), ErrDuplicate)

	stored, err := s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", stored.Email)

	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{BaseModel: models.BaseModel{ID: "missing"}}), ErrNotFound)
}

func TestMemoryStoreConcurrentSignupKeepsEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.CreateUser(ctx, &models.User{Email: "race@example.com"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryStoreCreateGroupAddsOwner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := newUser(t, s, "owner", "owner@example.com")

	group := &models.Group{Name: "Sunday Riders", OwnerID: owner.ID}
	require.NoError(t, s.CreateGroup(ctx, group))
	assert.Equal(t, models.VisibilityPublic, group.Visibility)

	members, err := s.GetGroupMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleOwner, members[0].Role)
	assert.Equal(t, owner.ID, members[0].UserID)
	require.NotNil(t, members[0].User)
	assert.Equal(t, "owner@example.com", members[0].User.Email)

	groups, err := s.GetGroupsByUserID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)

	err = s.CreateGroup(ctx, &models.Group{Name: "Orphan", OwnerID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMembershipUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := newUser(t, s, "owner", "owner@example.com")
	rider := newUser(t, s, "rider", "rider@example.com")

	group := &models.Group{Name: "Gravel", OwnerID: owner.ID}
	require.NoError(t, s.CreateGroup(ctx, group))

	membership := &models.GroupMembership{GroupID: group.ID, UserID: rider.ID}
	require.NoError(t, s.CreateGroupMembership(ctx, membership))
	assert.Equal(t, models.RoleMember, membership.Role)

	err := s.CreateGroupMembership(ctx, &models.GroupMembership{GroupID: group.ID, UserID: rider.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.CreateGroupMembership(ctx, &models.GroupMembership{GroupID: group.ID, UserID: owner.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, s.DeleteGroupMembership(ctx, group.ID, rider.ID))
	assert.ErrorIs(t, s.DeleteGroupMembership(ctx, group.ID, rider.ID), ErrNotFound)
}

func TestMemoryStoreDeleteGroupCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := newUser(t, s, "owner", "owner@example.com")

	group := &models.Group{Name: "Club", OwnerID: owner.ID}
	require.NoError(t, s.CreateGroup(ctx, group))
	require.NoError(t, s.CreateGroupActivity(ctx, &models.GroupActivity{
		GroupID:      group.ID,
		UserID:       owner.ID,
		ActivityType: models.FeedJoinedGroup,
		Message:      "joined",
	}))

	require.NoError(t, s.DeleteGroup(ctx, group.ID))

	_, err := s.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetGroupMembership(ctx, group.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	feed, err := s.GetGroupActivities(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, feed)

	assert.ErrorIs(t, s.DeleteGroup(ctx, group.ID), ErrNotFound)
}

func TestMemoryStoreActivityOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := newUser(t, s, "owner", "owner@example.com")
	rider := newUser(t, s, "rider", "rider@example.com")
	outsider := newUser(t, s, "outsider", "outsider@example.com")

	group := &models.Group{Name: "Club", OwnerID: owner.ID}
	require.NoError(t, s.CreateGroup(ctx, group))
	require.NoError(t, s.CreateGroupMembership(ctx, &models.GroupMembership{GroupID: group.ID, UserID: rider.ID}))

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, userID := range []string{owner.ID, rider.ID, owner.ID, outsider.ID} {
		require.NoError(t, s.CreateActivity(ctx, &models.Activity{
			UserID:    userID,
			Title:     "Ride",
			StartTime: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	mine, err := s.GetActivitiesByUserID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].StartTime.After(mine[1].StartTime))
	assert.Equal(t, models.ActivityTypeRide, mine[0].ActivityType)

	groupRides, err := s.GetActivitiesByGroupID(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, groupRides, 3)
	for i := 1; i < len(groupRides); i++ {
		assert.False(t, groupRides[i].StartTime.After(groupRides[i-1].StartTime))
	}

	err = s.CreateActivity(ctx, &models.Activity{UserID: "missing", Title: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFeedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := newUser(t, s, "owner", "owner@example.com")

	group := &models.Group{Name: "Club", OwnerID: owner.ID}
	require.NoError(t, s.CreateGroup(ctx, group))

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateGroupActivity(ctx, &models.GroupActivity{
			GroupID:      group.ID,
			UserID:       owner.ID,
			ActivityType: models.FeedRideCompleted,
			Message:      msg,
		}))
	}

	feed, err := s.GetGroupActivities(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "third", feed[0].Message)
	assert.Equal(t, "first", feed[2].Message)
	require.NotNil(t, feed[0].User)
	assert.Equal(t, owner.ID, feed[0].User.ID)
}

func TestMemoryStoreListStravaConnectedUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	linked := newUser(t, s, "linked", "linked@example.com")
	newUser(t, s, "plain", "plain@example.com")

	linked.StravaRefreshToken = "refresh"
	require.NoError(t, s.UpdateUser(ctx, linked))

	users, err := s.ListStravaConnectedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, linked.ID, users[0].ID)
}

func TestMemoryStoreUpdateStravaTokensTouchesOnlyTokens(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user := newUser(t, s, "rider", "rider@example.com")

	expiry := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateStravaTokens(ctx, user.ID, "access", "refresh", &expiry))

	stored, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rider", stored.Name)
	assert.Equal(t, "access", stored.StravaAccessToken)
	assert.Equal(t, "refresh", stored.StravaRefreshToken)
	assert.Equal(t, expiry, *stored.StravaTokenExpiry)

	require.NoError(t, s.UpdateStravaTokens(ctx, user.ID, "access2", "refresh", nil))
	stored, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "access2", stored.StravaAccessToken)
	assert.Equal(t, expiry, *stored.StravaTokenExpiry)

	assert.ErrorIs(t, s.UpdateStravaTokens(ctx, "missing", "a", "r", nil), ErrNotFound)
}
