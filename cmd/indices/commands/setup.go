package commands

import (
	"fmt"

	"github.com/futureeconomy/indices/internal/classifier"
	"github.com/futureeconomy/indices/internal/index"
	"github.com/futureeconomy/indices/internal/ingestion/polygon"
	"github.com/futureeconomy/indices/internal/newsletter"
	"github.com/futureeconomy/indices/pkg/config"
	"github.com/futureeconomy/indices/pkg/database"
	"github.com/futureeconomy/indices/pkg/httputil"
	"github.com/futureeconomy/indices/pkg/logger"
	"github.com/futureeconomy/indices/pkg/redis"
)

// app bundles the shared wiring most commands need.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *database.DB
	redis      *redis.Client
	cache      *redis.Cache
	repo       *index.Repository
	httpClient *httputil.Client
}

// newApp loads config and connects the shared infrastructure.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		redis:      redisClient,
		cache:      redis.NewCache(redisClient, "indices"),
		repo:       index.NewRepository(db.Pool),
		httpClient: httputil.New(log),
	}, nil
}

func (a *app) close() {
	a.redis.Close()
	a.db.Close()
}

// providerHTTP creates an HTTP client with the shared Redis rate limit
// for one external provider. With Redis disabled the limiter is a no-op.
func (a *app) providerHTTP(cfg redis.RateLimitConfig) *httputil.Client {
	limiter := redis.NewRateLimiter(a.redis, "indices")
	return httputil.New(a.log).WithRateLimiter(limiter, cfg)
}

func (a *app) newPolygonClient() (*polygon.Client, error) {
	return polygon.NewClient(a.cfg, a.providerHTTP(redis.PolygonRateLimit), a.log)
}

func (a *app) newClassifier() (*classifier.Classifier, error) {
	return classifier.New(a.cfg, a.providerHTTP(redis.AnthropicRateLimit), a.cache, a.log)
}

func (a *app) newConvertKit() (*newsletter.ConvertKitClient, error) {
	return newsletter.NewConvertKitClient(a.cfg, a.providerHTTP(redis.ConvertKitRateLimit), a.log)
}
