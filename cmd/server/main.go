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

	"click-merchant-api/internal/api"
	"click-merchant-api/internal/config"
	"click-merchant-api/internal/database"
	"click-merchant-api/internal/services"
	"click-merchant-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	// Initialize logging
	if err := logging.InitLogging(cfg.Mode, cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logging:", err)
	}
	defer logging.Sync()

	// Initialize database
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	rdb, err := database.OpenRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.Close(db, rdb)

	// Notification sinks
	var sinks []services.Notifier
	if cfg.TelegramEnabled() {
		sinks = append(sinks, services.NewTelegramNotifier(cfg.TelegramAPIURL, cfg.BotToken, cfg.ChatID, 10*time.Second))
	} else {
		logging.Infof("BOT_TOKEN/CHAT_ID not set, Telegram notifications disabled")
	}
	if cfg.BrevoEnabled() {
		sinks = append(sinks, services.NewBrevoNotifier(cfg.BrevoAPIKey, cfg.BrevoFromEmail, cfg.BrevoToEmail, ""))
	}
	dispatcher := services.NewNotificationDispatcher(logging.L(), cfg.NotifyTimeout, sinks...)

	replays := services.NewReplayTracker(24 * time.Hour)
	defer replays.Stop()

	merchant := services.NewMerchantService(
		database.NewStore(db),
		services.NewSignatureVerifier(cfg.SecretKey),
		services.NewTransactionLocker(rdb, cfg.LockTTL),
		dispatcher,
		logging.L(),
	).WithServiceID(cfg.ServiceID).WithReplayTracker(replays)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Setup routes
	api.SetupRoutes(r, api.NewHandler(merchant), cfg.MerchantAPIKey)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Infof("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Errorf("Server forced to shutdown: %v", err)
	}

	// Pending notifications finish within NOTIFY_TIMEOUT
	dispatcher.Wait()
	logging.Infof("Server exited")
}
