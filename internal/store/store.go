// Package store holds users, groups, memberships, rides and group feed entries.
//
// Every implementation enforces the uniqueness invariants itself (email,
// username, fitness provider athlete id, identity provider id and one
// membership per group and user) and reports a violation as ErrDuplicate.
// Callers never rely on a lookup followed by an insert to keep them.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record violates a uniqueness constraint")
)

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByStravaID(ctx context.Context, stravaID int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	// UpdateStravaTokens writes only the token columns of one user. A nil
	// expiry leaves the stored expiry as it is.
	UpdateStravaTokens(ctx context.Context, userID, accessToken, refreshToken string, expiry *time.Time) error
	ListStravaConnectedUsers(ctx context.Context) ([]models.User, error)

	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetGroupsByUserID(ctx context.Context, userID string) ([]models.Group, error)
	// CreateGroup stores the group together with an owner membership for group.OwnerID.
	CreateGroup(ctx context.Context, group *models.Group) error
	UpdateGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes the group, its memberships and its feed.
	DeleteGroup(ctx context.Context, id string) error

	GetGroupMembership(ctx context.Context, groupID, userID string) (*models.GroupMembership, error)
	// GetGroupMembers returns memberships with User populated.
	GetGroupMembers(ctx context.Context, groupID string) ([]models.GroupMembership, error)
	CreateGroupMembership(ctx context.Context, membership *models.GroupMembership) error
	DeleteGroupMembership(ctx context.Context, groupID, userID string) error

	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	// GetActivitiesByUserID orders by start time, newest first.
	GetActivitiesByUserID(ctx context.Context, userID string) ([]models.Activity, error)
	GetActivitiesByGroupID(ctx context.Context, groupID string) ([]models.Activity, error)
	CreateActivity(ctx context.Context, activity *models.Activity) error

	// GetGroupActivities returns the feed newest first with User populated.
	GetGroupActivities(ctx context.Context, groupID string) ([]models.GroupActivity, error)
	CreateGroupActivity(ctx context.Context, entry *models.GroupActivity) error

	Ping(ctx context.Context) error
}
