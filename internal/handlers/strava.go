package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/utils"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) StravaAuth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"authUrl": h.Strava.AuthorizationURL()})
}

// StravaConnect is StravaAuth for a signed-in user linking an existing account.
func (h *Handler) StravaConnect(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"authUrl": h.Strava.AuthorizationURL()})
}

// StravaCallback finishes the connect flow. Every failure, including a
// declined consent, redirects with ?strava=error.
func (h *Handler) StravaCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	if code == "" {
		// declined on the consent screen, or a bare hit on the callback
		log.WithField("error", ctx.Query("error")).Warn("Strava callback without authorization code")
		h.redirect(ctx, "/?strava=error")
		return
	}

	tokens, err := h.Strava.ExchangeCodeForTokens(ctx.Request.Context(), code)
	if err != nil {
		log.WithError(err).Warn("Strava code exchange failed")
		h.redirect(ctx, "/?strava=error")
		return
	}

	athlete, err := h.Strava.FetchProfile(ctx.Request.Context(), tokens.AccessToken)
	if err != nil {
		log.WithError(err).Warn("Strava profile fetch failed")
		h.redirect(ctx, "/?strava=error")
		return
	}

	claim := services.StravaClaim{Tokens: *tokens, Athlete: *athlete}
	if currentUserID, err := utils.GetCurrentUserID(ctx); err == nil {
		claim.SessionUserID = currentUserID
	}

	user, err := h.Identity.Resolve(ctx.Request.Context(), claim)
	if err != nil {
		log.WithError(err).WithField("athlete_id", athlete.ID).Warn("Strava athlete could not be resolved")
		h.redirect(ctx, "/?strava=error")
		return
	}

	if claim.SessionUserID != user.ID {
		if err := h.startSession(ctx, user.ID); err != nil {
			log.WithError(err).Error("Failed to start session")
			h.redirect(ctx, "/?strava=error")
			return
		}
	}

	h.redirect(ctx, "/?strava=connected")
}

func (h *Handler) StravaSync(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.Importer.SyncActivities(ctx.Request.Context(), currentUser)

	if err != nil {
		respondError(ctx, err, "Failed to sync activities")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Activities synced successfully",
		"count":   count,
	})
}
