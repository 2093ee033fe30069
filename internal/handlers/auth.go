package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/types"
	"github.com/ridecrew/ridecrew/internal/utils"
	log "github.com/sirupsen/logrus"
)

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(ctx *gin.Context) {
	var body SignupRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Identity.LocalSignup(ctx.Request.Context(), services.SignupInput{
		Username: body.Username,
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})

	if err != nil {
		respondError(ctx, err, "Failed to create account")
		return
	}

	h.respondWithSession(ctx, http.StatusCreated, user)
}

func (h *Handler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Identity.LocalLogin(ctx.Request.Context(), body.Email, body.Password)

	if err != nil {
		respondError(ctx, err, "Failed to log in")
		return
	}

	h.respondWithSession(ctx, http.StatusOK, user)
}

func (h *Handler) DemoLogin(ctx *gin.Context) {
	user, err := h.Identity.DemoLogin(ctx.Request.Context())

	if err != nil {
		respondError(ctx, err, "Failed to start demo session")
		return
	}

	h.respondWithSession(ctx, http.StatusOK, user)
}

func (h *Handler) respondWithSession(ctx *gin.Context, status int, user *models.User) {
	if err := h.startSession(ctx, user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to start session")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(status, gin.H{"user": types.NewUserResponse(user)})
}

func (h *Handler) Logout(ctx *gin.Context) {
	if sessionID := utils.GetSessionID(ctx); sessionID != "" {
		if err := h.Sessions.Destroy(ctx.Request.Context(), sessionID); err != nil {
			log.WithError(err).Error("Failed to destroy session")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
			return
		}
	}

	h.clearCookie(ctx, types.SessionCookieName)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(currentUser))
}
