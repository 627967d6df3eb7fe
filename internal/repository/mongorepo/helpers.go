package mongorepo

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// notFound подменяет mongo.ErrNoDocuments доменной ошибкой.
func notFound(err, target error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return target
	}

	return err
}

// decodeAll читает курсор до конца и конвертирует документы.
// Повреждённые документы пропускаются с предупреждением: один битый документ не ломает список.
func decodeAll[M any, T any](ctx context.Context, cur *mongo.Cursor, log logger.Logger, op string, conv func(*M) (T, error)) ([]T, error) {
	defer cur.Close(ctx)

	result := make([]T, 0)
	for cur.Next(ctx) {
		var model M
		if err := cur.Decode(&model); err != nil {
			log.Warnf("%s: skipping undecodable document %v: %v", op, cur.Current.Lookup("_id"), err)
			continue
		}

		entity, err := conv(&model)
		if err != nil {
			log.Warnf("%s: skipping malformed document: %v", op, err)
			continue
		}

		result = append(result, entity)
	}

	if err := cur.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return result, nil
}

// categoryLookup добавляет к товару поле category_name. Висячая ссылка даёт пустое название.
func categoryLookup(categories string) bson.A {
	return bson.A{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: categories},
			{Key: "localField", Value: "category_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "category"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "category_name", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$category.name", 0}}}, "",
			}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "category", Value: 0}}}},
	}
}

// userLookup добавляет к заказу имя покупателя. Удалённый пользователь даёт пустое имя.
func userLookup(users string) bson.A {
	return bson.A{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: users},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "user_name", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$user.name", 0}}}, "",
			}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "user", Value: 0}}}},
	}
}

func pipeline(stages ...bson.A) bson.A {
	out := bson.A{}
	for _, s := range stages {
		out = append(out, s...)
	}

	return out
}
