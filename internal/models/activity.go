package models

import "time"

const ActivityTypeRide = "ride"

// Activity speeds are stored as km/h multiplied by 10.
type Activity struct {
	BaseModel

	UserID        string    `gorm:"type:uuid;not null;index" json:"userId"`
	Title         string    `gorm:"not null" json:"title"`
	Distance      int       `gorm:"not null" json:"distance"`       // meters
	Duration      int       `gorm:"not null" json:"duration"`       // seconds
	ElevationGain int       `gorm:"default:0" json:"elevationGain"` // meters
	AverageSpeed  int       `gorm:"not null" json:"averageSpeed"`
	MaxSpeed      int       `json:"maxSpeed"`
	ActivityType  string    `gorm:"not null;default:'ride'" json:"activityType"`
	StartTime     time.Time `gorm:"not null;index" json:"startTime"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
