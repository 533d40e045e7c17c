package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/divyyeahhhhh/autocampaign/internal/api"
	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/campaign"
	"github.com/divyyeahhhhh/autocampaign/internal/config"
	"github.com/divyyeahhhhh/autocampaign/internal/genai"
	"github.com/divyyeahhhhh/autocampaign/internal/pkg/logger"
	"github.com/divyyeahhhhh/autocampaign/internal/session"
	"github.com/divyyeahhhhh/autocampaign/internal/tour"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	// Run progress tracking: Redis when configured, in-process otherwise.
	var tracker campaign.ProgressTracker
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, using in-process progress tracking",
				"addr", cfg.Redis.Addr, "error", err.Error())
			tracker = campaign.NewMemoryProgressTracker()
		} else {
			logger.Info("redis progress tracking enabled", "addr", cfg.Redis.Addr)
			tracker = campaign.NewRedisProgressTracker(client)
		}
	} else {
		tracker = campaign.NewMemoryProgressTracker()
	}

	gemini := genai.NewGeminiClient(genai.GeminiOptions{
		APIKey:   cfg.Gemini.APIKey,
		Model:    cfg.Gemini.Model,
		TTSModel: cfg.Gemini.TTSModel,
		Voice:    cfg.Gemini.Voice,
		Timeout:  cfg.Gemini.Timeout(),
	})
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, generation calls will fail until configured")
	}

	// Per-row generation backend. Bedrock keeps all customer data in AWS.
	var generator genai.Generator = gemini
	if cfg.Bedrock.Enabled {
		bedrock, err := genai.NewBedrockGenerator(context.Background(),
			cfg.Bedrock.Region, cfg.Bedrock.ModelID, cfg.Generation.Timeout())
		if err != nil {
			log.Fatalf("Failed to initialize Bedrock generator: %v", err)
		}
		generator = bedrock
	}

	authenticator := auth.NewSimulatedAuthenticator(cfg.Auth.LoginDelay())
	authenticator.SetSessionTTL(cfg.Auth.SessionTTL())
	authManager := auth.NewManager(authenticator)

	store := session.NewStore()
	svc := campaign.NewService(
		campaign.NewMemoryRunRepository(),
		generator,
		genai.NewPromptRenderer(),
		tracker,
	)

	handlers := api.NewHandlers(cfg, authManager, store, svc, gemini)
	handlers.SetTourController(tour.NewController(gemini, api.NewTourEffects(handlers), tour.Options{
		StepDelay:     cfg.Tour.StepDelay(),
		FallbackDelay: cfg.Tour.FallbackDelay(),
		OnStep:        func(s tour.Step) { store.SetTourStep(string(s)) },
	}))

	router := api.SetupRoutes(handlers, authManager)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation SSE streams stay open
		IdleTimeout:  2 * time.Minute,
	}

	// Periodic session cleanup.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				authManager.CleanupExpiredSessions()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", server.Addr, "model", cfg.Gemini.Model)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancelCleanup()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}
	logger.Info("server stopped")
}
