package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/hearth/internal/backup"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func main() {
	genVAPID := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genVAPID {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	// Missing .env is fine; the environment may be set directly
	godotenv.Load()

	logger := logging.Setup(envOr("HEARTH_LOG_LEVEL", "info"), envOr("HEARTH_LOG_FORMAT", "text"))

	port := envOr("HEARTH_PORT", "8080")
	dbPath := envOr("HEARTH_DB_PATH", "hearth.db")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("POSTMARK_SERVER_TOKEN"),
		envOr("HEARTH_FROM_EMAIL", "noreply@hearth.app"),
		envOr("HEARTH_BASE_URL", "http://localhost:"+port),
	)

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
	}

	srv := server.New(db, emailClient, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background invitation expiry sweep
	sweeper := household.NewSweeper(
		srv.Service(),
		envDuration("HEARTH_SWEEP_INTERVAL", time.Minute),
		logger.With("component", "sweeper"),
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Encrypted offsite backups, disabled unless fully configured
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HEARTH_S3_ENDPOINT"),
			Bucket:    os.Getenv("HEARTH_S3_BUCKET"),
			Region:    envOr("HEARTH_S3_REGION", "auto"),
			AccessKey: os.Getenv("HEARTH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HEARTH_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("HEARTH_BACKUP_PASSPHRASE"),
		Prefix:     os.Getenv("HEARTH_BACKUP_PREFIX"),
		Interval:   envDuration("HEARTH_BACKUP_INTERVAL", 24*time.Hour),
	}, db, logger.With("component", "backup"))
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	// Hourly housekeeping for expired sessions and stale rate windows
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("hearth listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
