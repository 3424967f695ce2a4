package router

import (
	"context"
	"net/http"
	"time"

	apphttp "followup_backend/internal/http"
	"followup_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// New builds the gin engine with the shared middleware stack and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.Metrics(app.Metrics))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	if perMinute := app.Config.GetRateLimitPerMinute(); perMinute > 0 {
		engine.Use(httpkit.NewPerMinuteRateLimiter(perMinute, app.Logger).RateLimit())
	}

	engine.GET("/api/health", healthHandler(app.Health))
	if app.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(app.MetricsHandler))
	}

	auth := httpkit.AuthRequired(app.Config)
	v1 := engine.Group("/api/v1")
	rctx := &apphttp.RouterContext{
		Engine:         engine,
		V1:             v1,
		Protected:      v1.Group("", auth),
		Admin:          v1.Group("/admin", auth, httpkit.RequireRole(httpkit.RoleAdmin)),
		Config:         app.Config,
		AuthMiddleware: auth,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(rctx)
		app.Logger.Info("module registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.HeaderRequestID},
		ExposeHeaders:    []string{httpkit.HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}

func healthHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
