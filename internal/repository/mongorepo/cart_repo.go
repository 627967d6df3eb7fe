package mongorepo

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/mongodb"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartRepo хранит по одной корзине на пользователя (уникальный индекс по user_id).
// Добавление и удаление позиций выполняются операторами $push/$pull на сервере,
// поэтому конкурентные изменения одной корзины не теряются.
type CartRepo struct {
	coll   *mongo.Collection
	conv   converter.CartConverter
	logger logger.Logger
}

func NewCartRepo(db *mongodb.Database, conv converter.CartConverter, logger logger.Logger) *CartRepo {
	return &CartRepo{
		coll:   db.DB.Collection(mongodb.CartsCollection),
		conv:   conv,
		logger: logger,
	}
}

func (c *CartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CartModel
	if err := c.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: uid}}).Decode(&model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrCartNotFound))
	}

	cart, err := c.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return cart, nil
}

func (c *CartRepo) List(ctx context.Context) ([]domain.Cart, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return decodeAll(ctx, cur, c.logger, "CartRepo.List", func(m *converter.CartModel) (domain.Cart, error) {
		cart, err := c.conv.ToEntity(m)
		if err != nil {
			return domain.Cart{}, err
		}
		return *cart, nil
	})
}

// PushItems дописывает id в мультимножество, создавая корзину при первом обращении.
func (c *CartRepo) PushItems(ctx context.Context, userID string, productIDs []string) error {
	oids, err := parseAll(productIDs)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return c.upsert(ctx, userID, bson.D{
		{Key: "$push", Value: bson.D{{Key: "items", Value: bson.D{{Key: "$each", Value: oids}}}}},
	})
}

// PullProducts удаляет все копии указанных товаров. Отсутствующая корзина не ошибка.
func (c *CartRepo) PullProducts(ctx context.Context, userID string, productIDs []string) error {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = c.coll.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: uid}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "items", Value: bson.D{{Key: "$in", Value: converter.ParseObjectIDs(productIDs)}}}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SetItems перезаписывает мультимножество целиком.
func (c *CartRepo) SetItems(ctx context.Context, userID string, productIDs []string) error {
	oids, err := parseAll(productIDs)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return c.upsert(ctx, userID, bson.D{
		{Key: "$set", Value: bson.D{{Key: "items", Value: oids}}},
	})
}

// SetTotal сохраняет пересчитанную сумму. Корзина не создаётся.
func (c *CartRepo) SetTotal(ctx context.Context, userID string, total int64) error {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	amount, err := converter.CentsToDecimal128(total)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := c.coll.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: uid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "total", Value: amount}}}},
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Clear опустошает корзину. Повторный вызов ничего не меняет.
func (c *CartRepo) Clear(ctx context.Context, userID string) error {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	zero, err := converter.CentsToDecimal128(0)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := c.coll.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: uid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "items", Value: bson.A{}},
			{Key: "total", Value: zero},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// upsert применяет update к корзине пользователя, создавая её при необходимости.
// Гонка двух первых вставок разрешается уникальным индексом и одним повтором.
func (c *CartRepo) upsert(ctx context.Context, userID string, update bson.D) error {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	zero, err := converter.CentsToDecimal128(0)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	update = append(update,
		bson.E{Key: "$currentDate", Value: bson.D{{Key: "updated_at", Value: true}}},
		bson.E{Key: "$setOnInsert", Value: bson.D{{Key: "total", Value: zero}}},
	)
	filter := bson.D{{Key: "user_id", Value: uid}}
	opts := options.Update().SetUpsert(true)

	_, err = c.coll.UpdateOne(ctx, filter, update, opts)
	if mongodb.IsDuplicateKey(err) {
		_, err = c.coll.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func parseAll(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := converter.ParseObjectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}

	return out, nil
}
