package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"haaziri/internal/admin"
	"haaziri/internal/app"
	"haaziri/internal/camera"
	"haaziri/internal/config"
	"haaziri/internal/handler"
	"haaziri/internal/httpmiddleware"
	"haaziri/internal/kiosk"
	"haaziri/internal/metrics"
	"haaziri/internal/records"
	"haaziri/internal/sheetsync"
	"haaziri/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("kiosk failed: %v", err)
	}
}

func run(cfg config.App) error {
	kv, err := store.Open(store.Options{
		Backend:        cfg.StoreBackend,
		SQLitePath:     cfg.SQLitePath,
		DatabaseURL:    cfg.DatabaseURL,
		RedisAddr:      cfg.RedisAddr,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
	})
	if err != nil {
		return err
	}
	defer kv.Close()
	if err := kv.Ping(context.Background()); err != nil {
		log.Printf("warning: %s store not reachable: %v", cfg.StoreBackend, err)
	}

	dev, err := camera.NewDevice(cfg.CameraDevice)
	if err != nil {
		return err
	}
	push, _ := dev.(*camera.PushDevice)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	recs := records.New(kv)
	cam := camera.NewController(dev, camera.WithStartHook(m.CameraStart))
	k := kiosk.New(cam, recs, kiosk.Options{
		Location:   cfg.Location(),
		DateLayout: cfg.DateLayout,
		TimeLayout: cfg.TimeLayout,
		OnCapture:  m.Capture,
	})
	passcode := admin.Passcode(cfg.AdminPasscode)
	if passcode == admin.DefaultPasscode {
		log.Println("warning: ADMIN_PASSCODE is the default")
	}
	a := admin.New(passcode, recs, sheetsync.New(cfg.SyncTimeout), m.AdminOptions())
	application := app.New(k, a)
	defer application.Shutdown()

	hcfg := handler.Config{
		JWTIssuer:     cfg.JWTIssuer,
		JWTSigningKey: cfg.JWTSigningKey,
		SessionTTL:    cfg.AdminSessionTTL,
		CORSOrigins:   cfg.CORSOrigins,
		LoginLimiter:  httpmiddleware.NewTokenBucket(cfg.LoginRatePerMin, cfg.LoginRatePerMin),
	}
	if cfg.MetricsEnabled {
		hcfg.Metrics = m.Handler()
	}
	h := handler.New(application, cam, push, kv, hcfg)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		// A sync holds its response until the sheet endpoint answers.
		WriteTimeout: cfg.SyncTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting kiosk on :%s (store=%s camera=%s)", cfg.HTTPPort, cfg.StoreBackend, cfg.CameraDevice)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// The push device waits for the page, so this does not block on it.
	if err := application.Start(context.Background()); err != nil {
		log.Printf("camera start failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down kiosk...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Kiosk exited")
	return nil
}
