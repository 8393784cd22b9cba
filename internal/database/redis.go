package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 3 * time.Second

// ConnectRedis opens the cache used for attempt results and certificate
// verification lookups. Both redis:// URLs and bare host:port addresses are
// accepted. The client is verified with a ping before it is returned.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	options, err := redisOptions(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}

func redisOptions(url string) (*redis.Options, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	if !strings.Contains(url, "://") {
		if strings.ContainsAny(url, "/?") || !strings.Contains(url, ":") {
			return nil, fmt.Errorf("invalid redis address %q", url)
		}
		return &redis.Options{Addr: url, DialTimeout: redisDialTimeout}, nil
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if options.DialTimeout == 0 {
		options.DialTimeout = redisDialTimeout
	}
	return options, nil
}
