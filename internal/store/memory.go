package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ridecrew/ridecrew/internal/models"
)

// MemoryStore keeps everything in process maps. Data does not survive a
// restart. A single lock covers each check-and-write so the uniqueness
// invariants hold under concurrent requests.
type MemoryStore struct {
	mu sync.RWMutex

	users            map[string]models.User
	groups           map[string]models.Group
	groupMemberships map[string]models.GroupMembership
	activities       map[string]models.Activity
	groupActivities  map[string]models.GroupActivity

	// insertion order, used to break timestamp ties
	seq   map[string]uint64
	clock uint64

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            make(map[string]models.User),
		groups:           make(map[string]models.Group),
		groupMemberships: make(map[string]models.GroupMembership),
		activities:       make(map[string]models.Activity),
		groupActivities:  make(map[string]models.GroupActivity),
		seq:              make(map[string]uint64),
		now:              time.Now,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) track(id string) {
	s.clock++
	s.seq[id] = s.clock
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool {
		return username != "" && u.UsernameValue() == username
	})
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool {
		return u.Email == email
	})
}

func (s *MemoryStore) GetUserByStravaID(ctx context.Context, stravaID int64) (*models.User, error) {
	return s.findUser(func(u *models.User) bool {
		return u.StravaID != nil && *u.StravaID == stravaID
	})
}

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(&user) {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// conflicts reports whether candidate collides with any other stored user.
// Caller must hold the lock.
func (s *MemoryStore) conflicts(candidate *models.User) bool {
	for id, existing := range s.users {
		if id == candidate.ID {
			continue
		}
		if existing.Email == candidate.Email {
			return true
		}
		if candidate.UsernameValue() != "" && existing.UsernameValue() == candidate.UsernameValue() {
			return true
		}
		if candidate.StravaID != nil && existing.StravaID != nil && *existing.StravaID == *candidate.StravaID {
			return true
		}
		if candidate.GoogleID != nil && existing.GoogleID != nil && *existing.GoogleID == *candidate.GoogleID {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := s.users[user.ID]; exists {
		return ErrDuplicate
	}
	if s.conflicts(user) {
		return ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	if user.Provider == "" {
		user.Provider = models.ProviderLocal
	}

	s.users[user.ID] = *user
	s.track(user.ID)
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	if s.conflicts(user) {
		return ErrDuplicate
	}

	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) UpdateStravaTokens(ctx context.Context, userID, accessToken, refreshToken string, expiry *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}

	user.StravaAccessToken = accessToken
	user.StravaRefreshToken = refreshToken
	if expiry != nil {
		at := *expiry
		user.StravaTokenExpiry = &at
	}

	s.users[userID] = user
	return nil
}

func (s *MemoryStore) ListStravaConnectedUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	for _, user := range s.users {
		if user.StravaRefreshToken != "" {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return s.seq[users[i].ID] < s.seq[users[j].ID]
	})
	return users, nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &group, nil
}

func (s *MemoryStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.Group, 0, len(s.groups))
	for _, group := range s.groups {
		groups = append(groups, group)
	}
	s.sortGroups(groups)
	return groups, nil
}

func (s *MemoryStore) GetGroupsByUserID(ctx context.Context, userID string) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := []models.Group{}
	for _, membership := range s.groupMemberships {
		if membership.UserID != userID {
			continue
		}
		if group, ok := s.groups[membership.GroupID]; ok {
			groups = append(groups, group)
		}
	}
	s.sortGroups(groups)
	return groups, nil
}

func (s *MemoryStore) sortGroups(groups []models.Group) {
	sort.Slice(groups, func(i, j int) bool {
		return s.seq[groups[i].ID] < s.seq[groups[j].ID]
	})
}

func (s *MemoryStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[group.OwnerID]; !ok {
		return ErrNotFound
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = s.now()
	}
	if group.Visibility == "" {
		group.Visibility = models.VisibilityPublic
	}

	s.groups[group.ID] = *group
	s.track(group.ID)

	owner := models.GroupMembership{
		ID:       uuid.NewString(),
		GroupID:  group.ID,
		UserID:   group.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: group.CreatedAt,
	}
	s.groupMemberships[owner.ID] = owner
	s.track(owner.ID)
	return nil
}

func (s *MemoryStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; !ok {
		return ErrNotFound
	}
	s.groups[group.ID] = *group
	return nil
}

func (s *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)

	for key, membership := range s.groupMemberships {
		if membership.GroupID == id {
			delete(s.groupMemberships, key)
		}
	}
	for key, entry := range s.groupActivities {
		if entry.GroupID == id {
			delete(s.groupActivities, key)
		}
	}
	return nil
}

func (s *MemoryStore) GetGroupMembership(ctx context.Context, groupID, userID string) (*models.GroupMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, membership := range s.groupMemberships {
		if membership.GroupID == groupID && membership.UserID == userID {
			return &membership, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetGroupMembers(ctx context.Context, groupID string) ([]models.GroupMembership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := []models.GroupMembership{}
	for _, membership := range s.groupMemberships {
		if membership.GroupID != groupID {
			continue
		}
		user, ok := s.users[membership.UserID]
		if !ok {
			continue
		}
		membership.User = &user
		members = append(members, membership)
	}
	sort.Slice(members, func(i, j int) bool {
		return s.seq[members[i].ID] < s.seq[members[j].ID]
	})
	return members, nil
}

func (s *MemoryStore) CreateGroupMembership(ctx context.Context, membership *models.GroupMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[membership.GroupID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[membership.UserID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.groupMemberships {
		if existing.GroupID == membership.GroupID && existing.UserID == membership.UserID {
			return ErrDuplicate
		}
	}

	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	if membership.Role == "" {
		membership.Role = models.RoleMember
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = s.now()
	}

	stored := *membership
	stored.User = nil
	stored.Group = nil
	s.groupMemberships[stored.ID] = stored
	s.track(stored.ID)
	return nil
}

func (s *MemoryStore) DeleteGroupMembership(ctx context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, membership := range s.groupMemberships {
		if membership.GroupID == groupID && membership.UserID == userID {
			delete(s.groupMemberships, key)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &activity, nil
}

func (s *MemoryStore) GetActivitiesByUserID(ctx context.Context, userID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activitiesFor(map[string]bool{userID: true}), nil
}

func (s *MemoryStore) GetActivitiesByGroupID(ctx context.Context, groupID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make(map[string]bool)
	for _, membership := range s.groupMemberships {
		if membership.GroupID == groupID {
			members[membership.UserID] = true
		}
	}
	return s.activitiesFor(members), nil
}

// Caller must hold the lock.
func (s *MemoryStore) activitiesFor(userIDs map[string]bool) []models.Activity {
	activities := []models.Activity{}
	for _, activity := range s.activities {
		if userIDs[activity.UserID] {
			activities = append(activities, activity)
		}
	}
	sort.SliceStable(activities, func(i, j int) bool {
		if !activities[i].StartTime.Equal(activities[j].StartTime) {
			return activities[i].StartTime.After(activities[j].StartTime)
		}
		return s.seq[activities[i].ID] > s.seq[activities[j].ID]
	})
	return activities
}

func (s *MemoryStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[activity.UserID]; !ok {
		return ErrNotFound
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.now()
	}
	if activity.ActivityType == "" {
		activity.ActivityType = models.ActivityTypeRide
	}

	stored := *activity
	stored.User = nil
	s.activities[stored.ID] = stored
	s.track(stored.ID)
	return nil
}

func (s *MemoryStore) GetGroupActivities(ctx context.Context, groupID string) ([]models.GroupActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feed := []models.GroupActivity{}
	for _, entry := range s.groupActivities {
		if entry.GroupID != groupID {
			continue
		}
		user, ok := s.users[entry.UserID]
		if !ok {
			continue
		}
		entry.User = &user
		feed = append(feed, entry)
	}
	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return s.seq[feed[i].ID] > s.seq[feed[j].ID]
	})
	return feed, nil
}

func (s *MemoryStore) CreateGroupActivity(ctx context.Context, entry *models.GroupActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[entry.GroupID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[entry.UserID]; !ok {
		return ErrNotFound
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	stored := *entry
	stored.User = nil
	stored.Group = nil
	s.groupActivities[stored.ID] = stored
	s.track(stored.ID)
	return nil
}
