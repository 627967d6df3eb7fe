//go:build integration

package mongorepo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Запуск: go test -tags integration ./internal/repository/mongorepo/... (нужен Docker).

func startMongo(t *testing.T) *mongodb.Database {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	require.NoError(t, err)

	db, err := mongodb.Connect(ctx, &cfg.MongoCfg{
		URI:            uri,
		Database:       "storefront_test",
		OpTimeout:      10 * time.Second,
		ConnectTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.EnsureIndexes(ctx, discardLogger()))

	return db
}

func TestMongo_DecrementIfSufficient_ConcurrentBuyers(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewProductRepo(db, converter.NewProductConverter(), discardLogger())

	product, err := repo.Create(ctx, domain.NewProduct("Lamp", "", 1999, 5, nil, true))
	require.NoError(t, err)

	const buyers = 20
	var (
		wg   sync.WaitGroup
		won  atomic.Int32
		errs = make(chan error, buyers)
	)
	for n := buyers; n > 0; n-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementIfSufficient(ctx, product.ID, 1)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), won.Load())

	left, err := repo.GetInventory(ctx, product.ID)
	require.NoError(t, err)
	assert.Zero(t, left)

	ok, err := repo.DecrementIfSufficient(ctx, product.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMongo_CartMultiset(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewCartRepo(db, converter.NewCartConverter(), discardLogger())

	user := primitive.NewObjectID().Hex()
	p := primitive.NewObjectID().Hex()
	q := primitive.NewObjectID().Hex()

	require.NoError(t, repo.PushItems(ctx, user, domain.Repeat(p, 3)))
	require.NoError(t, repo.PushItems(ctx, user, []string{q}))

	cart, err := repo.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{p, p, p, q}, cart.ProductIDs)

	require.NoError(t, repo.PullProducts(ctx, user, []string{p}))
	cart, err = repo.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{q}, cart.ProductIDs)

	require.NoError(t, repo.Clear(ctx, user))
	require.NoError(t, repo.Clear(ctx, user))
	cart, err = repo.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.ProductIDs)
	assert.Zero(t, cart.Total)
}

func TestMongo_GetProductsInfo_UnreadableIsNotMissing(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewProductRepo(db, converter.NewProductConverter(), discardLogger())

	good, err := repo.Create(ctx, domain.NewProduct("Lamp", "", 1999, 5, nil, true))
	require.NoError(t, err)

	broken := primitive.NewObjectID()
	_, err = db.DB.Collection(mongodb.ProductsCollection).InsertOne(ctx, bson.D{
		{Key: "_id", Value: broken},
		{Key: "name", Value: "Desk"},
		{Key: "price", Value: "cheap"},
		{Key: "inventory", Value: 3},
	})
	require.NoError(t, err)

	missing := primitive.NewObjectID().Hex()
	res, err := repo.GetProductsInfo(ctx, []string{good.ID, broken.Hex(), missing})
	require.NoError(t, err)

	require.Len(t, res.Products, 1)
	assert.Equal(t, good.ID, res.Products[0].ID)
	assert.Equal(t, int64(1999), res.Products[0].Price)
	assert.Equal(t, []string{broken.Hex()}, res.Malformed)
}

func TestMongo_AverageRating(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewReviewRepo(db, converter.NewReviewConverter(), discardLogger())

	summary, err := repo.AverageRating(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{}, summary)

	summary, err = repo.AverageRating(ctx, "not-an-object-id")
	require.NoError(t, err)
	assert.Equal(t, domain.RatingSummary{}, summary)
}
