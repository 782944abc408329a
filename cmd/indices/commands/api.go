package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/futureeconomy/indices/internal/api"
	"github.com/futureeconomy/indices/internal/api/handlers"
	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/database"
	"github.com/futureeconomy/indices/pkg/logger"
	"github.com/futureeconomy/indices/pkg/redis"
)

// apiCmd starts the REST API server.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the REST API server.

Endpoints:
  GET /health                              - Health check
  GET /api/indices                         - List indices
  GET /api/indices/{name}                  - Index detail with latest value
  GET /api/indices/{name}/composition      - Current or as-of composition
  GET /api/indices/{name}/performance      - Value history
  GET /api/indices/{name}/live             - Websocket live feed

Example:
  go run ./cmd/indices api
  go run ./cmd/indices api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "override API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Connected to database")

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "indices")
	repo := index.NewRepository(db.Pool)

	indexHandler := handlers.NewIndexHandler(repo, cache, log)
	liveHandler := handlers.NewLiveHandler(repo, log)

	router := api.NewRouter(indexHandler, liveHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
