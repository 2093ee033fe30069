package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"gorm.io/gorm"
)

// GormStore persists to a relational database. Uniqueness is enforced by
// the indexes declared on the models; the connection must be opened with
// TranslateError so violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// referenced user or group is gone
		return ErrNotFound
	default:
		return err
	}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) firstUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.firstUser(ctx, "username = ?", username)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.firstUser(ctx, "email = ?", email)
}

func (s *GormStore) GetUserByStravaID(ctx context.Context, stravaID int64) (*models.User, error) {
	return s.firstUser(ctx, "strava_id = ?", stravaID)
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.Provider == "" {
		user.Provider = models.ProviderLocal
	}
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	result := s.db.WithContext(ctx).Omit("OwnedGroups", "GroupMemberships", "Activities").Save(user)
	if result.Error != nil {
		return translate(result.Error)
	}
	return nil
}

func (s *GormStore) UpdateStravaTokens(ctx context.Context, userID, accessToken, refreshToken string, expiry *time.Time) error {
	columns := map[string]interface{}{
		"strava_access_token":  accessToken,
		"strava_refresh_token": refreshToken,
	}
	if expiry != nil {
		columns["strava_token_expiry"] = *expiry
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(columns)

	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListStravaConnectedUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	err := s.db.WithContext(ctx).
		Where("strava_refresh_token <> ''").
		Order("created_at").
		Find(&users).Error

	return users, translate(err)
}

func (s *GormStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, translate(err)
	}

	return &group, nil
}

func (s *GormStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group

	err := s.db.WithContext(ctx).Order("created_at").Find(&groups).Error

	return groups, translate(err)
}

func (s *GormStore) GetGroupsByUserID(ctx context.Context, userID string) ([]models.Group, error) {
	groups := []models.Group{}

	err := s.db.WithContext(ctx).
		Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
		Where("group_memberships.user_id = ?", userID).
		Order("groups.created_at").
		Find(&groups).Error

	return groups, translate(err)
}

func (s *GormStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.Visibility == "" {
		group.Visibility = models.VisibilityPublic
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "GroupMemberships", "Feed").Create(group).Error; err != nil {
			return err
		}

		owner := models.GroupMembership{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    models.RoleOwner,
		}

		return tx.Create(&owner).Error
	})

	return translate(err)
}

func (s *GormStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	result := s.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
			"visibility":  group.Visibility,
			"avatar":      group.Avatar,
		})

	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteGroup(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupActivity{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Group{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	return translate(err)
}

func (s *GormStore) GetGroupMembership(ctx context.Context, groupID, userID string) (*models.GroupMembership, error) {
	var membership models.GroupMembership

	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error
	if err != nil {
		return nil, translate(err)
	}

	return &membership, nil
}

func (s *GormStore) GetGroupMembers(ctx context.Context, groupID string) ([]models.GroupMembership, error) {
	members := []models.GroupMembership{}

	err := s.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at").
		Find(&members).Error

	return members, translate(err)
}

func (s *GormStore) CreateGroupMembership(ctx context.Context, membership *models.GroupMembership) error {
	if membership.Role == "" {
		membership.Role = models.RoleMember
	}
	return translate(s.db.WithContext(ctx).Omit("User", "Group").Create(membership).Error)
}

func (s *GormStore) DeleteGroupMembership(ctx context.Context, groupID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})

	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	var activity models.Activity

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error; err != nil {
		return nil, translate(err)
	}

	return &activity, nil
}

func (s *GormStore) GetActivitiesByUserID(ctx context.Context, userID string) ([]models.Activity, error) {
	activities := []models.Activity{}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Find(&activities).Error

	return activities, translate(err)
}

func (s *GormStore) GetActivitiesByGroupID(ctx context.Context, groupID string) ([]models.Activity, error) {
	activities := []models.Activity{}

	err := s.db.WithContext(ctx).
		Joins("JOIN group_memberships ON group_memberships.user_id = activities.user_id").
		Where("group_memberships.group_id = ?", groupID).
		Order("activities.start_time DESC").
		Find(&activities).Error

	return activities, translate(err)
}

func (s *GormStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ActivityType == "" {
		activity.ActivityType = models.ActivityTypeRide
	}
	return translate(s.db.WithContext(ctx).Omit("User").Create(activity).Error)
}

func (s *GormStore) GetGroupActivities(ctx context.Context, groupID string) ([]models.GroupActivity, error) {
	feed := []models.GroupActivity{}

	err := s.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&feed).Error

	return feed, translate(err)
}

func (s *GormStore) CreateGroupActivity(ctx context.Context, entry *models.GroupActivity) error {
	return translate(s.db.WithContext(ctx).Omit("User", "Group").Create(entry).Error)
}
