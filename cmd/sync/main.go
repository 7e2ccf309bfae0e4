package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"haaziri/internal/admin"
	"haaziri/internal/config"
	"haaziri/internal/records"
	"haaziri/internal/sheetsync"
	"haaziri/internal/store"
)

// sync pushes every stored record to the configured sheet endpoint once,
// the same way the dashboard's Sync button does. Meant for cron.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	os.Exit(run(ctx, cfg))
}

func run(ctx context.Context, cfg config.App) int {
	kv, err := store.Open(store.Options{
		Backend:        cfg.StoreBackend,
		SQLitePath:     cfg.SQLitePath,
		DatabaseURL:    cfg.DatabaseURL,
		RedisAddr:      cfg.RedisAddr,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
	})
	if err != nil {
		log.Printf("store open failed: %v", err)
		return 1
	}
	defer kv.Close()

	a := admin.New(admin.Passcode(cfg.AdminPasscode), records.New(kv), sheetsync.New(cfg.SyncTimeout), admin.Options{})
	if err := a.Login(ctx, cfg.AdminPasscode); err != nil {
		log.Printf("login failed: %v", err)
		return 1
	}
	defer a.Back()

	total := a.Status().Total
	err = a.Sync(ctx)
	switch {
	case err == nil:
		log.Printf("synced %d records", total)
		return 0
	case errors.Is(err, admin.ErrNoRecords):
		log.Println("no records to sync")
		return 0
	case errors.Is(err, admin.ErrNoEndpoint):
		log.Println("sync endpoint not configured; set it from the dashboard settings")
		return 2
	default:
		log.Printf("%s (%v)", admin.Message(err), err)
		return 1
	}
}
