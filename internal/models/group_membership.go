package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type GroupMembership struct {
	ID       string    `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_user" json:"groupId"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_group_user" json:"userId"`
	Role     string    `gorm:"not null;default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`

	// Relationships
	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"user,omitempty"`
	Group *Group `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (m *GroupMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
