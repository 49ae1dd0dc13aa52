package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/internal/middleware"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	Teachers  *TeacherHandler
	Stats     *StatsHandler
	Favorites *FavoriteHandler
	Bookings  *BookingHandler
	Reviews   *ReviewHandler
	Metrics   *MetricsHandler
}

// RouteConfig carries the router's cross-cutting dependencies.
type RouteConfig struct {
	Prefix     string
	CookieName string
	Auth       middleware.Authenticator
	Logger     *zap.Logger
}

// Register mounts the API on r.
func Register(r *gin.Engine, h Handlers, cfg RouteConfig) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/api"
	}
	requireAuth := middleware.JWT(cfg.Auth, cfg.CookieName)
	optionalAuth := middleware.OptionalJWT(cfg.Auth, cfg.CookieName)
	adminOnly := middleware.RBAC(models.RoleAdmin)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(cfg.Prefix)

	api.GET("/teachers", h.Teachers.List)
	api.GET("/teachers/:id", h.Teachers.Get)
	api.POST("/teachers/:id/reviews", requireAuth, middleware.Audit(cfg.Logger, "review.create"), h.Reviews.Create)
	api.DELETE("/teachers/:id/reviews/:index", requireAuth, adminOnly, middleware.Audit(cfg.Logger, "review.delete"), h.Reviews.Delete)

	api.GET("/stats", h.Stats.Summary)
	api.GET("/stats/details", h.Stats.Details)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/google", h.Auth.Google)
	auth.POST("/logout", requireAuth, h.Auth.Logout)
	auth.GET("/me", requireAuth, h.Auth.Me)

	favorites := api.Group("/favorites", requireAuth)
	favorites.GET("", h.Favorites.List)
	favorites.GET("/teachers", h.Favorites.Teachers)
	favorites.POST("/:teacherId/toggle", h.Favorites.Toggle)
	favorites.DELETE("", h.Favorites.Clear)

	api.POST("/bookings", optionalAuth, h.Bookings.Create)
	api.GET("/bookings", requireAuth, h.Bookings.List)
	api.GET("/bookings/export", requireAuth, h.Bookings.Export)

	api.GET("/admin/metrics", requireAuth, adminOnly, h.Metrics.Snapshot)
}
