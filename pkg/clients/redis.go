package clients

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	clientName       = "storefront-backend"
	pingAttempts     = 3
	pingBackoffStart = 200 * time.Millisecond
	pingBackoffMax   = 2 * time.Second
)

// RedisClient — кэш каталога. Недоступность Redis не ломает чтение каталога,
// но на старте мы ждём его явно.
type RedisClient struct {
	Client *r.Client
}

func NewRedisClient(cfg *cfg.RedisCfg) *RedisClient {
	return &RedisClient{
		Client: r.NewClient(&r.Options{
			Addr:                  cfg.Addr,
			ClientName:            clientName,
			Username:              cfg.User,
			Password:              cfg.Password,
			DB:                    cfg.DB,
			MaxRetries:            cfg.MaxRetries,
			DialTimeout:           cfg.DialTimeout,
			ReadTimeout:           cfg.Timeout,
			WriteTimeout:          cfg.Timeout,
			ContextTimeoutEnabled: true,
		}),
	}
}

// Ping проверяет соединение, повторяя попытку с нарастающей задержкой.
func (c *RedisClient) Ping(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if err = c.Client.Ping(ctx).Err(); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return e.Wrap(whereami.WhereAmI(), ctx.Err())
		case <-time.After(jitter.ExponentialBackoff(pingBackoffStart, pingBackoffMax, attempt, jitter.DefaultJitter)):
		}
	}

	return e.Wrap(whereami.WhereAmI(), err)
}

func (c *RedisClient) Close(_ context.Context) error {
	return c.Client.Close()
}
