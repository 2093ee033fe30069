package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
)

// FeedNotifier is told when a group's feed gains an entry.
type FeedNotifier interface {
	NotifyGroup(groupID string)
}

type GroupInput struct {
	Name        string
	Description string
	Visibility  string
	Avatar      string
}

// GroupPatch holds the fields an owner may change; nil means unchanged.
type GroupPatch struct {
	Name        *string
	Description *string
	Visibility  *string
	Avatar      *string
}

type GroupService struct {
	store    store.Store
	notifier FeedNotifier
}

func NewGroupService(s store.Store, notifier FeedNotifier) *GroupService {
	return &GroupService{store: s, notifier: notifier}
}

func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.GetGroupsByUserID(ctx, userID)
}

func (s *GroupService) Create(ctx context.Context, ownerID string, input GroupInput) (*models.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !models.ValidVisibility(visibility) {
		return nil, ErrInvalidInput
	}

	group := &models.Group{
		Name:        name,
		Description: input.Description,
		Visibility:  visibility,
		OwnerID:     ownerID,
		Avatar:      input.Avatar,
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"group_id": group.ID,
		"owner_id": ownerID,
	}).Info("Group created")

	return group, nil
}

func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	return group, err
}

func (s *GroupService) ownedGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != userID {
		return nil, ErrForbidden
	}
	return group, nil
}

func (s *GroupService) Update(ctx context.Context, userID, groupID string, patch GroupPatch) (*models.Group, error) {
	group, err := s.ownedGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		group.Name = name
	}
	if patch.Description != nil {
		group.Description = *patch.Description
	}
	if patch.Visibility != nil {
		if !models.ValidVisibility(*patch.Visibility) {
			return nil, ErrInvalidInput
		}
		group.Visibility = *patch.Visibility
	}
	if patch.Avatar != nil {
		group.Avatar = *patch.Avatar
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	if _, err := s.ownedGroup(ctx, userID, groupID); err != nil {
		return err
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	log.WithField("group_id", groupID).Info("Group deleted")
	return nil
}

// Join adds the user to a public group and announces it in the feed.
func (s *GroupService) Join(ctx context.Context, user *models.User, groupID string) (*models.GroupMembership, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Visibility != models.VisibilityPublic {
		return nil, ErrForbidden
	}

	membership := &models.GroupMembership{
		GroupID: group.ID,
		UserID:  user.ID,
		Role:    models.RoleMember,
	}

	if err := s.store.CreateGroupMembership(ctx, membership); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.postFeed(ctx, &models.GroupActivity{
		GroupID:      group.ID,
		UserID:       user.ID,
		ActivityType: models.FeedJoinedGroup,
		Message:      fmt.Sprintf("%s joined %s", displayName(user), group.Name),
	})

	return membership, nil
}

func (s *GroupService) Leave(ctx context.Context, userID, groupID string) error {
	membership, err := s.store.GetGroupMembership(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	if membership.Role == models.RoleOwner {
		return ErrForbidden
	}

	if err := s.store.DeleteGroupMembership(ctx, groupID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.GroupMembership, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.GetGroupMembers(ctx, groupID)
}

func (s *GroupService) Feed(ctx context.Context, groupID string) ([]models.GroupActivity, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.GetGroupActivities(ctx, groupID)
}

func (s *GroupService) Rides(ctx context.Context, groupID string) ([]models.Activity, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.GetActivitiesByGroupID(ctx, groupID)
}

// AnnounceRide posts a ride_completed entry to every group the rider belongs to.
func (s *GroupService) AnnounceRide(ctx context.Context, user *models.User, activity *models.Activity) {
	groups, err := s.store.GetGroupsByUserID(ctx, user.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to load groups for ride announcement")
		return
	}

	message := fmt.Sprintf("%s completed %s (%.1f km)", displayName(user), activity.Title, float64(activity.Distance)/1000)

	for _, group := range groups {
		s.postFeed(ctx, &models.GroupActivity{
			GroupID:      group.ID,
			UserID:       user.ID,
			ActivityType: models.FeedRideCompleted,
			Message:      message,
		})
	}
}

// postFeed is best effort; the membership or ride it describes is already stored.
func (s *GroupService) postFeed(ctx context.Context, entry *models.GroupActivity) {
	if err := s.store.CreateGroupActivity(ctx, entry); err != nil {
		log.WithError(err).WithField("group_id", entry.GroupID).Warn("Failed to write feed entry")
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyGroup(entry.GroupID)
	}
}

func displayName(user *models.User) string {
	if user.Name != "" {
		return user.Name
	}
	if name := user.UsernameValue(); name != "" {
		return name
	}
	return emailLocalPart(user.Email)
}
