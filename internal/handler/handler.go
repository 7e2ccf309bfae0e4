// Package handler exposes the kiosk and the admin dashboard over HTTP.
package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"haaziri/internal/app"
	"haaziri/internal/auth"
	"haaziri/internal/camera"
	"haaziri/internal/httpmiddleware"
	"haaziri/internal/store"
)

// Config carries the HTTP-only settings.
type Config struct {
	JWTIssuer     string
	JWTSigningKey string
	SessionTTL    time.Duration
	CORSOrigins   []string

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	// LoginLimiter guards the passcode route when set.
	LoginLimiter *httpmiddleware.TokenBucket
}

type Handler struct {
	app  *app.App
	cam  *camera.Controller
	push *camera.PushDevice // nil unless the page feeds frames
	kv   store.KV
	cfg  Config
}

func New(a *app.App, cam *camera.Controller, push *camera.PushDevice, kv store.KV, cfg Config) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	return &Handler{app: a, cam: cam, push: push, kv: kv, cfg: cfg}
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics", "/v1/camera/frame", "/v1/camera/preview"},
	}))
	r.Use(cors.New(h.corsConfig()))
	r.Use(securityHeaders())

	if h.cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.cfg.Metrics))
	}
	r.GET("/healthz", h.Healthz)

	k := r.Group("/v1/kiosk")
	{
		k.GET("", h.KioskView)
		k.PUT("/name", h.SetName)
		k.POST("/capture", h.Capture)
		k.POST("/reset", h.Reset)
		k.GET("/photo", h.CapturedPhoto)
	}

	cam := r.Group("/v1/camera")
	{
		cam.POST("/retry", h.RetryCamera)
		cam.GET("/preview", h.Preview)
		cam.POST("/frame", h.PushFrame)
		cam.POST("/failure", h.ReportFailure)
	}

	login := []gin.HandlerFunc{}
	if h.cfg.LoginLimiter != nil {
		login = append(login, h.cfg.LoginLimiter.GinMiddleware())
	}
	login = append(login, h.Login)
	r.POST("/v1/admin/login", login...)

	adm := r.Group("/v1/admin", auth.AdminAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer, h.app.Admin.IsAdmin))
	{
		adm.POST("/logout", h.Logout)
		adm.GET("/status", h.AdminStatus)
		adm.GET("/records", h.ListRecords)
		adm.GET("/records/:id/photo", h.RecordPhoto)
		adm.DELETE("/records", h.ClearRecords)
		adm.POST("/sync", h.Sync)
		adm.POST("/settings/open", h.OpenSettings)
		adm.PUT("/settings/draft", h.EditDraft)
		adm.POST("/settings/save", h.SaveSettings)
		adm.POST("/settings/close", h.CloseSettings)
	}

	return r
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       24 * time.Hour,
	}
	if len(h.cfg.CORSOrigins) == 0 || slices.Contains(h.cfg.CORSOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.cfg.CORSOrigins
		cfg.AllowCredentials = true
	}
	return cfg
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.kv.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": false, "error": err.Error()})
		return
	}
	resp := gin.H{"status": "ok", "store": true, "screen": h.app.Screen(), "camera": h.cam.Status()}
	if h.push != nil {
		resp["pageFeed"] = h.push.Streaming()
	}
	c.JSON(http.StatusOK, resp)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
