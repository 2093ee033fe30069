package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderStrava = "strava"
)

type User struct {
	BaseModel

	Username     *string `gorm:"uniqueIndex" json:"username"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	Name         string  `gorm:"not null" json:"name"`
	Avatar       string  `json:"avatar"`
	Provider     string  `gorm:"not null;default:'local'" json:"provider"`
	PasswordHash string  `json:"-"`

	GoogleID           *string    `gorm:"uniqueIndex" json:"-"`
	StravaID           *int64     `gorm:"uniqueIndex" json:"stravaId,omitempty"`
	StravaAccessToken  string     `json:"-"`
	StravaRefreshToken string     `json:"-"`
	StravaTokenExpiry  *time.Time `json:"-"`

	// City, state and country reported by the fitness provider.
	Location datatypes.JSON `gorm:"type:jsonb" json:"location,omitempty"`

	// Relationships
	OwnedGroups      []Group           `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	GroupMemberships []GroupMembership `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Activities       []Activity        `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// StravaConnected reports whether the user holds a fitness provider access token.
func (u *User) StravaConnected() bool {
	return u.StravaAccessToken != ""
}

func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}
