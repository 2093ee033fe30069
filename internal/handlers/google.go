package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/types"
	log "github.com/sirupsen/logrus"
)

const stateCookieTTL = 10 * 60

// GoogleAuth stores a random state in a cookie and redirects to the consent screen.
func (h *Handler) GoogleAuth(ctx *gin.Context) {
	state, err := providers.NewState()
	if err != nil {
		log.WithError(err).Error("Failed to generate OAuth state")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setCookie(ctx, types.StateCookieName, state, stateCookieTTL)
	ctx.Redirect(http.StatusFound, h.Google.AuthorizationURL(state))
}

func (h *Handler) GoogleCallback(ctx *gin.Context) {
	state, err := ctx.Cookie(types.StateCookieName)
	if err != nil || state == "" || ctx.Query("state") != state {
		log.Warn("Google callback state mismatch")
		h.redirect(ctx, "/login?error=google")
		return
	}
	h.clearCookie(ctx, types.StateCookieName)

	code := ctx.Query("code")
	if code == "" {
		h.redirect(ctx, "/login?error=google")
		return
	}

	profile, err := h.Google.Authenticate(ctx.Request.Context(), code)
	if err != nil {
		log.WithError(err).Warn("Google authentication failed")
		h.redirect(ctx, "/login?error=google")
		return
	}

	user, err := h.Identity.Resolve(ctx.Request.Context(), services.GoogleClaim{Profile: *profile})
	if err != nil {
		log.WithError(err).Warn("Google identity could not be resolved")
		h.redirect(ctx, "/login?error=google")
		return
	}

	if err := h.startSession(ctx, user.ID); err != nil {
		log.WithError(err).Error("Failed to start session")
		h.redirect(ctx, "/login?error=google")
		return
	}

	h.redirect(ctx, "/dashboard")
}
