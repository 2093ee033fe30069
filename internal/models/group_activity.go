package models

const (
	FeedRideCompleted  = "ride_completed"
	FeedJoinedGroup    = "joined_group"
	FeedPersonalRecord = "personal_record"
)

// GroupActivity is a feed entry, not a ride.
type GroupActivity struct {
	BaseModel

	GroupID      string `gorm:"type:uuid;not null;index" json:"groupId"`
	UserID       string `gorm:"type:uuid;not null;index" json:"userId"`
	ActivityType string `gorm:"not null" json:"activityType"`
	Message      string `gorm:"not null" json:"message"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"user,omitempty"`
	Group *Group `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func ValidFeedType(t string) bool {
	switch t {
	case FeedRideCompleted, FeedJoinedGroup, FeedPersonalRecord:
		return true
	}
	return false
}
