// Package server composes the gin engine: sessions, auth, and every API
// route group.
package server

import (
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/announcements"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/calendar"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/config"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/health"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/leaderboard"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/links"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/mail"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/notifications"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/onboarding"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/training"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/users"
)

// New builds the router with all middleware and routes attached.
func New(cfg *config.Config, db *gorm.DB, svc *leaderboard.Service, mailer *mail.Service, log *slog.Logger) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
	})
	r.Use(sessions.Sessions("repdash_session", store))

	r.GET("/health", gin.WrapF(health.Handler))

	// Public auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.HandleRegister(db, mailer))
		authGroup.POST("/login", auth.HandleLogin(db))
		authGroup.GET("/:provider", auth.HandleOAuthLogin)
		authGroup.GET("/:provider/callback", auth.HandleOAuthCallback(db, mailer))
		authGroup.POST("/logout", auth.HandleLogout)
	}

	api := r.Group("/api")
	api.Use(auth.RequireAuth(db))
	{
		api.GET("/me", auth.HandleMe)
		api.PUT("/me", users.UpdateProfileHandler(db))

		api.GET("/leaderboards", leaderboard.ListLeaderboardsHandler(db))
		api.GET("/leaderboards/:id", leaderboard.GetLeaderboardHandler(db))
		api.GET("/leaderboards/:id/entries", leaderboard.ListEntriesHandler(svc))

		api.GET("/announcements", announcements.ListHandler(db))
		api.GET("/announcements/:id", announcements.GetHandler(db))

		api.GET("/links", links.ListHandler(db))

		api.GET("/calendar", calendar.ListHandler(db))
		api.GET("/calendar/:id", calendar.GetHandler(db))

		api.GET("/training", training.ListModulesHandler(db))
		api.GET("/training/:id", training.GetModuleHandler(db))
		api.POST("/training/:id/quiz", training.SubmitQuizHandler(db, svc, log))
		api.GET("/training/:id/attempts", training.ListAttemptsHandler(db))

		api.GET("/onboarding", onboarding.ListTracksHandler(db))
		api.GET("/onboarding/:id", onboarding.GetTrackHandler(db))
		api.POST("/onboarding/steps/:stepId/complete", onboarding.CompleteStepHandler(db))
		api.GET("/onboarding/progress", onboarding.ProgressHandler(db))

		api.GET("/notifications", notifications.ListHandler(db))
		api.GET("/notifications/unread", notifications.UnreadCountHandler(db))
		api.POST("/notifications/:id/read", notifications.MarkReadHandler(db))
		api.POST("/notifications/read-all", notifications.MarkAllReadHandler(db))
	}

	manage := api.Group("")
	manage.Use(auth.RequireManager())
	{
		manage.POST("/leaderboards", leaderboard.CreateLeaderboardHandler(db))
		manage.PUT("/leaderboards/:id", leaderboard.UpdateLeaderboardHandler(db))
		manage.DELETE("/leaderboards/:id", leaderboard.DeleteLeaderboardHandler(db))
		manage.POST("/leaderboards/:id/entries/import", leaderboard.BulkImportHandler(svc))
		manage.POST("/leaderboards/:id/sync", syncLeaderboardHandler(db))
		manage.POST("/leaderboards/:id/entries", leaderboard.CreateEntryHandler(svc))
		manage.PUT("/leaderboards/entries/:entryId", leaderboard.UpdateEntryHandler(svc))
		manage.DELETE("/leaderboards/entries/:entryId", leaderboard.DeleteEntryHandler(svc))

		manage.POST("/announcements", announcements.CreateHandler(db))
		manage.PUT("/announcements/:id", announcements.UpdateHandler(db))
		manage.POST("/announcements/:id/publish", announcements.PublishHandler(db))
		manage.DELETE("/announcements/:id", announcements.DeleteHandler(db))

		manage.POST("/links", links.CreateHandler(db))
		manage.PUT("/links/:id", links.UpdateHandler(db))
		manage.DELETE("/links/:id", links.DeleteHandler(db))

		manage.POST("/calendar", calendar.CreateHandler(db))
		manage.PUT("/calendar/:id", calendar.UpdateHandler(db))
		manage.DELETE("/calendar/:id", calendar.DeleteHandler(db))
	}

	admin := api.Group("")
	admin.Use(auth.RequireAdmin())
	{
		admin.POST("/training", training.CreateModuleHandler(db))
		admin.PUT("/training/:id", training.UpdateModuleHandler(db))
		admin.DELETE("/training/:id", training.DeleteModuleHandler(db))

		admin.POST("/onboarding", onboarding.CreateTrackHandler(db))
		admin.PUT("/onboarding/:id", onboarding.UpdateTrackHandler(db))
		admin.DELETE("/onboarding/:id", onboarding.DeleteTrackHandler(db))

		admin.GET("/users", users.ListHandler(db))
		admin.GET("/users/:id", users.GetHandler(db))
		admin.PUT("/users/:id", users.AdminUpdateHandler(db))
	}

	return r
}
