package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridecrew/ridecrew/internal/auth"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/types"
	log "github.com/sirupsen/logrus"
)

type SessionLookup interface {
	Lookup(ctx context.Context, sessionID string) (string, error)
}

type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware rejects requests without a live session.
func AuthMiddleware(sessions SessionLookup, users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := sessionToken(ctx)

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		if !attach(ctx, sessions, users, tokenString) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		ctx.Next()
	}
}

// OptionalAuth attaches the session user when there is one and never rejects.
func OptionalAuth(sessions SessionLookup, users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString := sessionToken(ctx); tokenString != "" {
			attach(ctx, sessions, users, tokenString)
		}
		ctx.Next()
	}
}

func attach(ctx *gin.Context, sessions SessionLookup, users UserLoader, tokenString string) bool {
	sessionID, err := auth.VerifySessionToken(tokenString)
	if err != nil {
		return false
	}

	userID, err := sessions.Lookup(ctx.Request.Context(), sessionID)
	if err != nil {
		log.WithError(err).Debug("Session lookup failed")
		return false
	}

	user, err := users.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Session points at a missing user")
		return false
	}

	ctx.Set(types.ContextSessionKey, sessionID)
	ctx.Set(types.ContextUserKey, user)
	return true
}

// sessionToken reads the session cookie, falling back to a Bearer header.
func sessionToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(types.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}
