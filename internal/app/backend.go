package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/startpage/internal/config"
	"github.com/MrSnakeDoc/startpage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/redis"
	"github.com/MrSnakeDoc/startpage/internal/store/file"
	"github.com/MrSnakeDoc/startpage/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/startpage/internal/store/redis"
	"github.com/MrSnakeDoc/startpage/internal/utils"
)

// Backend is the persistence slot selected by STARTPAGE_BACKEND.
type Backend struct {
	Name   string
	Slot   persist.Slot // quota applied
	Pinger deps.Pinger  // nil unless the backend is remote

	redisClient *goredis.Client
	logger      logger.Logger
}

// OpenBackend connects the configured slot. For Redis it waits until the
// server answers, following the retry policy of the config.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	b := &Backend{Name: cfg.Backend, logger: log}

	var slot persist.Slot
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("memory backend selected, the collection is lost on restart")
		slot = memory.NewSlot()

	case config.BackendFile:
		log.Info("using file backend", logger.String("path", cfg.DataFile))
		slot = file.NewSlot(cfg.DataFile)

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		rs := redisstore.NewSlot(client, cfg.SlotKey)
		log.Info("using redis backend", logger.String("key", rs.Key()))
		b.redisClient = client
		b.Pinger = rs
		slot = rs

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	b.Slot = persist.WithQuota(slot, int(cfg.QuotaBytes))
	return b, nil
}

// Close releases the Redis connection, if any.
func (b *Backend) Close() {
	if b.redisClient != nil {
		utils.CloseLogged(b.redisClient, "redis client", b.logger)
	}
}
