package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/utils"
)

type CreateActivityRequest struct {
	Title         string    `json:"title" binding:"required"`
	Distance      int       `json:"distance"`
	Duration      int       `json:"duration"`
	ElevationGain int       `json:"elevationGain"`
	AverageSpeed  int       `json:"averageSpeed"`
	MaxSpeed      int       `json:"maxSpeed"`
	ActivityType  string    `json:"activityType"`
	StartTime     time.Time `json:"startTime" binding:"required"`
}

func (h *Handler) ListActivities(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	activities, err := h.Activities.List(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve activities")
		return
	}

	ctx.JSON(http.StatusOK, activities)
}

func (h *Handler) CreateActivity(ctx *gin.Context) {
	var body CreateActivityRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity data"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	activity, err := h.Activities.Create(ctx.Request.Context(), currentUser, services.ActivityInput{
		Title:         body.Title,
		Distance:      body.Distance,
		Duration:      body.Duration,
		ElevationGain: body.ElevationGain,
		AverageSpeed:  body.AverageSpeed,
		MaxSpeed:      body.MaxSpeed,
		ActivityType:  body.ActivityType,
		StartTime:     body.StartTime,
	})

	if err != nil {
		respondError(ctx, err, "Failed to create activity")
		return
	}

	ctx.JSON(http.StatusCreated, activity)
}

func (h *Handler) GetActivity(ctx *gin.Context) {
	activityID, err := utils.GetActivityID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
		return
	}

	activity, err := h.Activities.Get(ctx.Request.Context(), activityID)

	if err != nil {
		respondError(ctx, err, "Failed to retrieve activity")
		return
	}

	ctx.JSON(http.StatusOK, activity)
}

func (h *Handler) GetStats(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	stats, err := h.Stats.ComputeStats(ctx.Request.Context(), userID, h.now())

	if err != nil {
		respondError(ctx, err, "Failed to compute statistics")
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
