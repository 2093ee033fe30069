package types

import (
	"time"

	"github.com/ridecrew/ridecrew/internal/models"
	"gorm.io/datatypes"
)

// UserResponse is the public view of a user. Provider tokens never leave the server.
type UserResponse struct {
	ID              string         `json:"id"`
	Username        *string        `json:"username"`
	Email           string         `json:"email"`
	Name            string         `json:"name"`
	Avatar          string         `json:"avatar"`
	Provider        string         `json:"provider"`
	StravaConnected bool           `json:"stravaConnected"`
	StravaID        *int64         `json:"stravaId,omitempty"`
	Location        datatypes.JSON `json:"location,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Name:            user.Name,
		Avatar:          user.Avatar,
		Provider:        user.Provider,
		StravaConnected: user.StravaConnected(),
		StravaID:        user.StravaID,
		Location:        user.Location,
		CreatedAt:       user.CreatedAt,
	}
}
