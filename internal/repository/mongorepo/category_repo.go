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

// CategoryRepo реализует репозиторий категорий поверх MongoDB.
type CategoryRepo struct {
	coll   *mongo.Collection
	conv   converter.CategoryConverter
	logger logger.Logger
}

func NewCategoryRepo(db *mongodb.Database, conv converter.CategoryConverter, logger logger.Logger) *CategoryRepo {
	return &CategoryRepo{
		coll:   db.DB.Collection(mongodb.CategoriesCollection),
		conv:   conv,
		logger: logger,
	}
}

// Create создаёт категорию. Имя уникально: повтор даёт e.ErrCategoryExists.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.CreatedAt = time.Now().UTC()
	model, err := c.conv.ToModel(category)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := c.coll.InsertOne(ctx, model)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCategoryExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	model.ID = res.InsertedID.(primitive.ObjectID)

	return c.conv.ToEntity(model), nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	oid, err := converter.ParseObjectID(category.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var updated converter.CategoryModel
	err = c.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: category.Name},
			{Key: "description", Value: category.Description},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCategoryExists)
		}
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrCategoryNotFound))
	}

	return c.conv.ToEntity(&updated), nil
}

// Delete удаляет категорию. Ссылки товаров на неё остаются висячими.
func (c *CategoryRepo) Delete(ctx context.Context, id string) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if res.DeletedCount == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCategoryNotFound)
	}

	return nil
}

func (c *CategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CategoryModel
	if err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrCategoryNotFound))
	}

	return c.conv.ToEntity(&model), nil
}

func (c *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return decodeAll(ctx, cur, c.logger, "CategoryRepo.List", func(m *converter.CategoryModel) (domain.Category, error) {
		return *c.conv.ToEntity(m), nil
	})
}
