package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/utils"
)

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	Avatar      string `json:"avatar"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	Avatar      *string `json:"avatar"`
}

func (h *Handler) ListGroups(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groups, err := h.Groups.ListForUser(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve groups")
		return
	}

	ctx.JSON(http.StatusOK, groups)
}

func (h *Handler) CreateGroup(ctx *gin.Context) {
	var body CreateGroupRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group data"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	group, err := h.Groups.Create(ctx.Request.Context(), userID, services.GroupInput{
		Name:        body.Name,
		Description: body.Description,
		Visibility:  body.Visibility,
		Avatar:      body.Avatar,
	})

	if err != nil {
		respondError(ctx, err, "Failed to create group")
		return
	}

	ctx.JSON(http.StatusCreated, group)
}

func (h *Handler) GetGroup(ctx *gin.Context) {
	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	group, err := h.Groups.Get(ctx.Request.Context(), groupID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve group")
		return
	}

	ctx.JSON(http.StatusOK, group)
}

func (h *Handler) UpdateGroup(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	var body UpdateGroupRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	group, err := h.Groups.Update(ctx.Request.Context(), userID, groupID, services.GroupPatch{
		Name:        body.Name,
		Description: body.Description,
		Visibility:  body.Visibility,
		Avatar:      body.Avatar,
	})

	if err != nil {
		respondError(ctx, err, "Failed to update group")
		return
	}

	ctx.JSON(http.StatusOK, group)
}

func (h *Handler) DeleteGroup(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if err := h.Groups.Delete(ctx.Request.Context(), userID, groupID); err != nil {
		respondError(ctx, err, "Failed to delete group")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

func (h *Handler) GetGroupMembers(ctx *gin.Context) {
	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	members, err := h.Groups.Members(ctx.Request.Context(), groupID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve members")
		return
	}

	ctx.JSON(http.StatusOK, members)
}

func (h *Handler) GetGroupFeed(ctx *gin.Context) {
	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	feed, err := h.Groups.Feed(ctx.Request.Context(), groupID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve group feed")
		return
	}

	ctx.JSON(http.StatusOK, feed)
}

func (h *Handler) GetGroupRides(ctx *gin.Context) {
	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	rides, err := h.Groups.Rides(ctx.Request.Context(), groupID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve group rides")
		return
	}

	ctx.JSON(http.StatusOK, rides)
}

func (h *Handler) JoinGroup(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	membership, err := h.Groups.Join(ctx.Request.Context(), currentUser, groupID)

	if err != nil {
		respondError(ctx, err, "Failed to join group")
		return
	}

	ctx.JSON(http.StatusCreated, membership)
}

func (h *Handler) LeaveGroup(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	groupID, err := utils.GetGroupID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if err := h.Groups.Leave(ctx.Request.Context(), userID, groupID); err != nil {
		respondError(ctx, err, "Failed to leave group")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}
