package mongodb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Имена коллекций
const (
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	CartsCollection      = "carts"
	OrdersCollection     = "orders"
	ReviewsCollection    = "reviews"
	UsersCollection      = "users"
	OutboxCollection     = "outbox"
)

// Database владеет клиентом MongoDB и выбранной базой. Создаётся при старте процесса и закрывается при остановке.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, cfg *cfg.MongoCfg) (*Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetTimeout(cfg.OpTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Database{
		Client: client,
		DB:     client.Database(cfg.Database),
	}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	if err := d.Client.Ping(ctx, readpref.Primary()); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// EnsureIndexes создаёт индексы, на которых держатся инварианты уникальности и запросы горячих путей.
// Операция идемпотентна и заменяет миграции схемы.
func (d *Database) EnsureIndexes(ctx context.Context, log logger.Logger) error {
	indexes := map[string][]mongo.IndexModel{
		CartsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("carts_user_id_unique")},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("reviews_user_product_unique")},
			{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: options.Index().SetName("reviews_product_id")},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("orders_user_created")},
			{Keys: bson.D{{Key: "items.product_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("orders_items_product_status")},
		},
		ProductsCollection: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}, Options: options.Index().SetName("products_category_id")},
		},
		CategoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("categories_name_unique")},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_unique")},
		},
		OutboxCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}}, Options: options.Index().SetName("outbox_status_next_attempt")},
		},
	}

	for coll, models := range indexes {
		names, err := d.DB.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), errors.Join(errors.New(coll), err))
		}
		log.Debugf("indexes ensured on %s: %v", coll, names)
	}

	return nil
}

// IsDuplicateKey сообщает, что запись нарушила уникальный индекс.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
