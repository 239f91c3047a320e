package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/dental-clinic-platform/internal/config"
	"github.com/wolfman30/dental-clinic-platform/internal/settings"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// BuildPool opens and verifies the Postgres pool.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("bootstrap: redis not available, settings cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSettingsGateway layers the Redis cache over the settings table when a
// client is available.
func BuildSettingsGateway(db settings.DB, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *settings.Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	var source settings.Source = settings.NewStore(db)
	if redisClient != nil {
		ttl := cfg.SettingsCacheTTL
		source = settings.NewCachedStore(source, redisClient, ttl, logger)
		logger.Info("bootstrap: settings cache enabled", "ttl", ttl.String())
	}
	return settings.NewGateway(source)
}
