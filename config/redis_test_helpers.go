package config

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// SetRedisClientForTest injects client (typically a redismock client) as the
// shared redis connection. Later ConnectRedis calls return it instead of
// dialing. Not for production use.
func SetRedisClientForTest(client *redis.Client) {
	redisOnce.Do(func() {})
	redisClient = client
}

// ResetRedisClientForTest drops the shared client so the next ConnectRedis
// initialises from scratch.
func ResetRedisClientForTest() {
	redisClient = nil
	redisOnce = sync.Once{}
}
