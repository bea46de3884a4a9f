package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"furnishedstay/internal/infra/config"
	"furnishedstay/internal/infra/obs"
)

type CalendarHTTP interface {
	Snapshot(c *gin.Context)
	Block(c *gin.Context)
	Unblock(c *gin.Context)
	SetPricing(c *gin.Context)
	Export(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
}

type SyncHTTP interface {
	AddLink(c *gin.Context)
	RemoveLink(c *gin.Context)
	TriggerSync(c *gin.Context)
}

type Handlers struct {
	Calendar     CalendarHTTP
	Availability AvailabilityHTTP
	Sync         SyncHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(obs.RateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Calendar != nil {
		props := api.Group("/properties/:id/calendar")
		props.GET("", h.Calendar.Snapshot)
		props.POST("/block", h.Calendar.Block)
		props.POST("/unblock", h.Calendar.Unblock)
		props.POST("/pricing", h.Calendar.SetPricing)
		props.GET("/export", h.Calendar.Export)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/availability", h.Availability.Check)
	}
	if h.Sync != nil {
		links := api.Group("/properties/:id/calendar/links")
		links.POST("", h.Sync.AddLink)
		links.DELETE("/:linkId", h.Sync.RemoveLink)
		links.POST("/:linkId/sync", h.Sync.TriggerSync)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
