package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/auth"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/services"
	"github.com/ridecrew/ridecrew/internal/store"
	"github.com/ridecrew/ridecrew/internal/types"
	log "github.com/sirupsen/logrus"
)

type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Destroy(ctx context.Context, sessionID string) error
	TTL() time.Duration
	Ping(ctx context.Context) error
}

type StravaProvider interface {
	AuthorizationURL() string
	ExchangeCodeForTokens(ctx context.Context, code string) (*providers.Tokens, error)
	FetchProfile(ctx context.Context, accessToken string) (*providers.Athlete, error)
}

type GoogleProvider interface {
	AuthorizationURL(state string) string
	Authenticate(ctx context.Context, code string) (*providers.GoogleProfile, error)
}

type CookieConfig struct {
	Domain string
	Secure bool
}

type Handler struct {
	Store      store.Store
	Sessions   Sessions
	Identity   *services.IdentityService
	Importer   *services.ImportService
	Stats      *services.StatsService
	Groups     *services.GroupService
	Activities *services.ActivityService
	Strava     StravaProvider
	Google     GoogleProvider
	Hub        *FeedHub
	Cookies    CookieConfig
	// ClientURL prefixes the redirects that end OAuth flows.
	ClientURL string
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// startSession creates a server-side session for userID and sets the cookie.
func (h *Handler) startSession(ctx *gin.Context, userID string) error {
	sessionID, err := h.Sessions.Create(ctx.Request.Context(), userID)
	if err != nil {
		return err
	}

	token, err := auth.GenerateSessionToken(sessionID, h.Sessions.TTL())
	if err != nil {
		return errors.Wrap(err, "sign session token")
	}

	h.setCookie(ctx, types.SessionCookieName, token, int(h.Sessions.TTL().Seconds()))
	return nil
}

func (h *Handler) setCookie(ctx *gin.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.Cookies.Secure {
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.Cookies.Domain,
		MaxAge:   maxAge,
		Secure:   h.Cookies.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

func (h *Handler) clearCookie(ctx *gin.Context, name string) {
	h.setCookie(ctx, name, "", -1)
}

func (h *Handler) redirect(ctx *gin.Context, path string) {
	ctx.Redirect(http.StatusFound, h.ClientURL+path)
}

// respondError maps service and store errors onto HTTP responses.
func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrDuplicateAccount):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Account already exists"})
	case errors.Is(err, services.ErrNotConnected):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Strava not connected"})
	case errors.Is(err, services.ErrInvalidInput):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, services.ErrAlreadyMember):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Already a member of this group"})
	case errors.Is(err, services.ErrStravaAlreadyLinked):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Strava account already linked"})
	case errors.Is(err, services.ErrMissingEmail):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrGroupNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
	case errors.Is(err, services.ErrActivityNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
	case errors.Is(err, services.ErrNotMember):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
	case errors.Is(err, store.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case providers.IsUpstreamAuthError(err):
		log.WithError(err).Warn(fallback)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	default:
		log.WithError(err).Error(fallback)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
