package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cibilbank/backend/internal/auth"
	"github.com/cibilbank/backend/internal/config"
	"github.com/cibilbank/backend/internal/http/handlers"
	"github.com/cibilbank/backend/internal/http/middleware"
	"github.com/cibilbank/backend/internal/observability"
	"github.com/cibilbank/backend/internal/version"
	"github.com/cibilbank/backend/internal/ws"
)

type Dependencies struct {
	DBPinger           handlers.Pinger
	CachePinger        handlers.Pinger
	AuthHandler        *handlers.AuthHandler
	ApplicationHandler *handlers.ApplicationHandler
	StepsHandler       *handlers.StepsHandler
	DocumentHandler    *handlers.DocumentHandler
	EligibilityHandler *handlers.EligibilityHandler
	WSHandler          *ws.Handler
	JWTManager         *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestMetrics())
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.DBPinger, deps.CachePinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/v1/meta", meta.GetMeta)

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/register", deps.AuthHandler.Register)
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)

		if deps.ApplicationHandler != nil {
			apps := r.Group("/v1/applications")
			apps.Use(middleware.RequireAuth(deps.JWTManager))
			if cfg.MaxDocumentBytes > 0 {
				// Uploads are multipart, so the cap carries headroom
				// over the per-document limit.
				apps.Use(middleware.RequestBodyLimit(cfg.MaxDocumentBytes + 1<<20))
			}

			apps.POST("", deps.ApplicationHandler.Create)
			apps.GET("/user", deps.ApplicationHandler.ListByApplicant)
			apps.GET("/:id", deps.ApplicationHandler.Get)
			apps.DELETE("/:id", deps.ApplicationHandler.Delete)

			if deps.StepsHandler != nil {
				apps.GET("/:id/resume", deps.StepsHandler.Resume)
				apps.PUT("/:id/steps/:step", deps.StepsHandler.SaveFragment)
				apps.GET("/:id/steps/:step", deps.StepsHandler.LoadFragment)
				apps.POST("/:id/steps/:step/commit", deps.StepsHandler.CommitStep)
			}
			if deps.DocumentHandler != nil {
				apps.PATCH("/:id/documents", deps.DocumentHandler.Attach)
				apps.GET("/:id/documents", deps.DocumentHandler.ListStatus)
				apps.GET("/:id/documents/:docType", deps.DocumentHandler.Download)
			}

			admin := r.Group("/v1/applications")
			admin.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
			admin.GET("/all", deps.ApplicationHandler.ListAll)
			admin.GET("/audit", deps.ApplicationHandler.RecentStatusChanges)
			admin.PATCH("/:id/status", deps.ApplicationHandler.SetStatus)
		}
		if deps.EligibilityHandler != nil {
			elig := r.Group("/v1/eligibility")
			elig.Use(middleware.RequireAuth(deps.JWTManager))
			elig.POST("/check", deps.EligibilityHandler.Check)
			elig.GET("/loan-types", deps.EligibilityHandler.LoanTypes)
			elig.GET("/required-docs", deps.EligibilityHandler.RequiredDocuments)
		}
		if deps.WSHandler != nil {
			r.GET("/ws/status", deps.WSHandler.HandleWebSocket)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
