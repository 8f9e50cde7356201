// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"clinicfront/config"

	"github.com/go-redis/redis/v8"
)

// SessionCacheClient backs the redis session store.
var SessionCacheClient *redis.Client

// InitSessionCache connects to the session DB and pings it once.
func InitSessionCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return fmt.Errorf("utils: connect redis (session): %w", err)
	}
	SessionCacheClient = client
	return nil
}

// GetSessionCacheClient returns the session client, or nil before InitSessionCache succeeded.
func GetSessionCacheClient() *redis.Client {
	return SessionCacheClient
}
