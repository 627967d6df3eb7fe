package mongorepo

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/mongodb"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepo хранит заказы как неизменяемые снимки. После создания меняется только статус.
type OrderRepo struct {
	coll   *mongo.Collection
	users  string
	conv   converter.OrderConverter
	logger logger.Logger
}

func NewOrderRepo(db *mongodb.Database, conv converter.OrderConverter, logger logger.Logger) *OrderRepo {
	return &OrderRepo{
		coll:   db.DB.Collection(mongodb.OrdersCollection),
		users:  mongodb.UsersCollection,
		conv:   conv,
		logger: logger,
	}
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (string, error) {
	model, err := o.conv.ToModel(order)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := o.coll.InsertOne(ctx, model)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	records, err := o.find(ctx, "OrderRepo.GetByID", bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(records) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return &records[0], nil
}

// ListByUser возвращает заказы пользователя от новых к старым.
func (o *OrderRepo) ListByUser(ctx context.Context, userID string) ([]usecase.OrderRecord, error) {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	records, err := o.find(ctx, "OrderRepo.ListByUser", bson.D{{Key: "user_id", Value: uid}})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return records, nil
}

func (o *OrderRepo) ListAll(ctx context.Context) ([]usecase.OrderRecord, error) {
	records, err := o.find(ctx, "OrderRepo.ListAll", bson.D{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return records, nil
}

// UpdateStatus меняет статус, только если он всё ещё равен from (compare-and-set).
func (o *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := o.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: string(from)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(to)},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.MatchedCount == 1, nil
}

// ExistsWithProduct проверяет, есть ли у пользователя заказ с товаром в одном из статусов.
func (o *OrderRepo) ExistsWithProduct(ctx context.Context, userID, productID string, statuses []domain.OrderStatus) (bool, error) {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	pid, err := converter.ParseObjectID(productID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	n, err := o.coll.CountDocuments(ctx, bson.D{
		{Key: "user_id", Value: uid},
		{Key: "items.product_id", Value: pid},
		{Key: "status", Value: bson.D{{Key: "$in", Value: statusStrings(statuses)}}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return n > 0, nil
}

// CountOpenWithProduct считает недоставленные заказы, содержащие товар.
func (o *OrderRepo) CountOpenWithProduct(ctx context.Context, productID string) (int64, error) {
	pid, err := converter.ParseObjectID(productID)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	n, err := o.coll.CountDocuments(ctx, bson.D{
		{Key: "items.product_id", Value: pid},
		{Key: "status", Value: bson.D{{Key: "$ne", Value: string(domain.StatusDelivered)}}},
	})
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return n, nil
}

func (o *OrderRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	cur, err := o.coll.Aggregate(ctx, bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	type bucket struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	buckets, err := decodeAll(ctx, cur, o.logger, "OrderRepo.CountByStatus", func(b *bucket) (bucket, error) {
		return *b, nil
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[domain.OrderStatus]int, len(buckets))
	for _, b := range buckets {
		status, ok := domain.ParseOrderStatus(b.Status)
		if !ok {
			o.logger.Warnf("OrderRepo.CountByStatus: %d order(s) with unknown status %q", b.Count, b.Status)
			continue
		}
		result[status] = b.Count
	}

	return result, nil
}

func (o *OrderRepo) find(ctx context.Context, op string, match bson.D) ([]usecase.OrderRecord, error) {
	cur, err := o.coll.Aggregate(ctx, pipeline(
		bson.A{
			bson.D{{Key: "$match", Value: match}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		},
		userLookup(o.users),
	))
	if err != nil {
		return nil, err
	}

	records, err := decodeAll(ctx, cur, o.logger, op, o.conv.ToRecord)
	if err != nil {
		return nil, err
	}

	result := make([]usecase.OrderRecord, 0, len(records))
	for _, r := range records {
		result = append(result, *r)
	}

	return result, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}

	return out
}
