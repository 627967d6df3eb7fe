package redis

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const productKeyPrefix = "storefront:product:"

// CacheRepo кэширует сведения о товарах для расчёта корзины.
// Каждый товар лежит отдельным хешем с TTL, поэтому инвалидация точечная.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts читает хеши одним пайплайном. Промахи и битые записи просто отсутствуют в результате.
func (r *CacheRepo) GetProducts(ctx context.Context, ids []string) (map[string]usecase.ProductInfo, error) {
	res := make(map[string]usecase.ProductInfo, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	pipe := r.client.Client.Pipeline()
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, productKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warnf("redis pipeline HGETALL failed: %v", err)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var stale []string
	for i, cmd := range cmds {
		model, ok, err := scanProduct(cmd)
		if err != nil {
			r.logger.Warnf("corrupted cache entry %s: %v", productKey(ids[i]), err)
			stale = append(stale, ids[i])
			continue
		}
		if !ok {
			continue
		}
		if model.ID != ids[i] {
			r.logger.Warnf("cache id mismatch: key_id=%s model_id=%s", ids[i], model.ID)
			stale = append(stale, ids[i])
			continue
		}

		res[ids[i]] = *r.conv.ToUseCase(model)
	}

	if len(stale) > 0 {
		if err := r.DeleteProducts(ctx, stale); err != nil {
			r.logger.Warnf("failed to drop stale cache entries: %v", err)
		}
	}

	return res, nil
}

// SetProducts пишет хеш и TTL для каждого товара в одной транзакции MULTI/EXEC,
// чтобы запись без срока жизни не оставалась в кэше.
func (r *CacheRepo) SetProducts(ctx context.Context, products []usecase.ProductInfo) error {
	if len(products) == 0 {
		return nil
	}

	models := r.conv.ToArrRedisModel(products)
	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i := range models {
			key := productKey(models[i].ID)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, models[i].Fields()...)
			pipe.Expire(ctx, key, r.cfg.ProductTTL)
		}
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProducts инвалидирует товары после изменений в каталоге.
func (r *CacheRepo) DeleteProducts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := r.client.Client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// scanProduct возвращает ok=false для промаха: HGETALL на отсутствующий ключ даёт пустой хеш.
func scanProduct(cmd *goredis.MapStringStringCmd) (*converter.ProductInfoRedisModel, bool, error) {
	fields, err := cmd.Result()
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	var model converter.ProductInfoRedisModel
	if err := cmd.Scan(&model); err != nil {
		return nil, false, err
	}
	if model.ID == "" {
		return nil, false, e.ErrMalformedDocument
	}

	return &model, true, nil
}

func productKey(id string) string {
	return productKeyPrefix + id
}
