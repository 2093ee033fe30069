package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func GetGroupID(ctx *gin.Context) (string, error) {
	if ctx.Param("group_id") != "" {
		return idParam(ctx, "group_id", "Group")
	}
	return idParam(ctx, "id", "Group")
}

func GetActivityID(ctx *gin.Context) (string, error) {
	return idParam(ctx, "id", "Activity")
}

func idParam(ctx *gin.Context, name, label string) (string, error) {
	value := ctx.Param(name)

	if value == "" {
		return "", errors.New(label + " ID not found")
	}

	if _, err := uuid.Parse(value); err != nil {
		return "", errors.New("Invalid " + label + " ID")
	}

	return value, nil
}
