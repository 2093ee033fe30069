package models

const (
	VisibilityPublic     = "public"
	VisibilityPrivate    = "private"
	VisibilityInviteOnly = "invite_only"
)

type Group struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Visibility  string `gorm:"not null;default:'public'" json:"visibility"`
	OwnerID     string `gorm:"type:uuid;not null;index" json:"ownerId"`
	Avatar      string `json:"avatar"`

	// Relationships
	Owner            User              `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	GroupMemberships []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Feed             []GroupActivity   `gorm:"foreignKey:GroupID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityInviteOnly:
		return true
	}
	return false
}
