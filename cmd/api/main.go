package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/config"
	"geoattend/internal/httpapi"
	"geoattend/internal/httpmiddleware"
	"geoattend/internal/metrics"
	"geoattend/internal/queue"
	"geoattend/internal/report"
	"geoattend/internal/settings"
	"geoattend/internal/store"
	"geoattend/internal/user"
)

func main() {
	envFile := flag.String("env", ".env", "path to a dotenv file")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	tally := report.NewTally(redisClient.Client)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		mem := queue.NewInMemory(64)
		q = mem
		// No separate worker reads an in-process queue, so feed the tally here.
		go func() {
			if err := report.Consume(ctx, mem, tally, m); err != nil {
				log.Printf("in-process consumer stopped: %v", err)
			}
		}()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:events")
	}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if redisClient.Healthy(ctx) {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
	} else {
		log.Printf("warning: redis not reachable at %s, using in-memory rate limit", cfg.RedisAddr)
	}

	settingsSvc := settings.NewService(settings.NewRepository(pool))
	users := user.NewService(user.NewRepository(pool))
	att := attendance.NewService(attendance.NewRepository(pool), settingsSvc, attendance.Options{
		Tx:        store.NewTransactionManager(pool),
		Location:  loc,
		Publisher: q,
		Observer:  m,
	})
	reports := report.NewService(report.NewRepository(pool), loc)

	r := httpapi.NewRouter(httpapi.Deps{
		Tokens:      auth.NewTokens(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		Attendance:  att,
		Settings:    settingsSvc,
		Users:       users,
		Reports:     reports,
		Tally:       tally,
		Metrics:     m,
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
		Location:    loc,
		Health: map[string]httpapi.HealthCheck{
			"db":    func(ctx context.Context) bool { return pool.Ping(ctx) == nil },
			"redis": redisClient.Healthy,
		},
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s (timezone %s)", cfg.HTTPPort, loc)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
