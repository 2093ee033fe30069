package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ridecrew/ridecrew/internal/handlers"
	"github.com/ridecrew/ridecrew/internal/middleware"
)

func NewRouter(h *handlers.Handler, sessions middleware.SessionLookup, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	requireAuth := middleware.AuthMiddleware(sessions, h.Store)
	optionalAuth := middleware.OptionalAuth(sessions, h.Store)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws/groups/:group_id", requireAuth, h.WebSocket)

		api.POST("/logout", optionalAuth, h.Logout)
		api.GET("/user", requireAuth, h.Me)
		api.GET("/stats", requireAuth, h.GetStats)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Signup)
			auth.POST("/login", h.Login)
			auth.POST("/demo", h.DemoLogin)
			auth.GET("/google", h.GoogleAuth)
			auth.GET("/google/callback", h.GoogleCallback)
		}

		strava := api.Group("/strava")
		{
			strava.GET("/auth", h.StravaAuth)
			strava.POST("/connect", requireAuth, h.StravaConnect)
			strava.GET("/callback", optionalAuth, h.StravaCallback)
			strava.POST("/sync", requireAuth, h.StravaSync)
		}

		groups := api.Group("/groups")
		{
			groups.GET("", requireAuth, h.ListGroups)
			groups.POST("", requireAuth, h.CreateGroup)
			groups.GET("/:id", h.GetGroup)
			groups.PATCH("/:id", requireAuth, h.UpdateGroup)
			groups.DELETE("/:id", requireAuth, h.DeleteGroup)
			groups.GET("/:id/members", h.GetGroupMembers)
			groups.GET("/:id/activities", h.GetGroupFeed)
			groups.GET("/:id/rides", h.GetGroupRides)
			groups.POST("/:id/join", requireAuth, h.JoinGroup)
			groups.DELETE("/:id/membership", requireAuth, h.LeaveGroup)
		}

		activities := api.Group("/activities")
		{
			activities.GET("", requireAuth, h.ListActivities)
			activities.POST("", requireAuth, h.CreateActivity)
			activities.GET("/:id", h.GetActivity)
		}
	}

	return r
}
