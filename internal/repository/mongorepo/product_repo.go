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

// ProductRepo реализует репозитории товаров и остатков поверх MongoDB.
// Остаток хранится в самом документе товара, поэтому списание атомарно на уровне одного документа.
type ProductRepo struct {
	coll       *mongo.Collection
	categories string
	conv       converter.ProductConverter
	logger     logger.Logger
}

func NewProductRepo(db *mongodb.Database, conv converter.ProductConverter, logger logger.Logger) *ProductRepo {
	return &ProductRepo{
		coll:       db.DB.Collection(mongodb.ProductsCollection),
		categories: mongodb.CategoriesCollection,
		conv:       conv,
		logger:     logger,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.CreatedAt = time.Now().UTC()
	model, err := p.conv.ToModel(product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := p.coll.InsertOne(ctx, model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	model.ID = res.InsertedID.(primitive.ObjectID)

	created, err := p.conv.ToEntity(model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

// Update перезаписывает редактируемые поля товара. Ключ изображения меняется только через SetImageKey.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	product.UpdatedAt = &now
	model, err := p.conv.ToModel(product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	set := bson.D{
		{Key: "name", Value: model.Name},
		{Key: "description", Value: model.Description},
		{Key: "price", Value: model.Price},
		{Key: "inventory", Value: model.Inventory},
		{Key: "is_active", Value: model.IsActive},
		{Key: "updated_at", Value: model.UpdatedAt},
	}
	if model.CategoryID != nil {
		set = append(set, bson.E{Key: "category_id", Value: model.CategoryID})
	}
	update := bson.D{{Key: "$set", Value: set}}
	if model.CategoryID == nil {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "category_id", Value: ""}}})
	}

	var updated converter.ProductModel
	err = p.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: model.ID}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	entity, err := p.conv.ToEntity(&updated)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return entity, nil
}

func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := p.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if res.DeletedCount == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductModel
	if err := p.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	product, err := p.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// GetView возвращает товар вместе с названием категории.
func (p *ProductRepo) GetView(ctx context.Context, id string) (*usecase.ProductView, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cur, err := p.coll.Aggregate(ctx, pipeline(
		bson.A{bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}}},
		categoryLookup(p.categories),
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	views, err := decodeAll(ctx, cur, p.logger, "ProductRepo.GetView", p.conv.ToView)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(views) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return views[0], nil
}

// ListViews возвращает товары в порядке создания. Фильтр по категории не меняет форму результата.
func (p *ProductRepo) ListViews(ctx context.Context, filter usecase.ProductFilter) ([]usecase.ProductView, error) {
	match := bson.D{}
	if filter.CategoryID != nil {
		oid, err := converter.ParseObjectID(*filter.CategoryID)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		match = append(match, bson.E{Key: "category_id", Value: oid})
	}
	if filter.ActiveOnly {
		match = append(match, bson.E{Key: "is_active", Value: true})
	}

	cur, err := p.coll.Aggregate(ctx, pipeline(
		bson.A{
			bson.D{{Key: "$match", Value: match}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		},
		categoryLookup(p.categories),
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	views, err := decodeAll(ctx, cur, p.logger, "ProductRepo.ListViews", p.conv.ToView)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]usecase.ProductView, 0, len(views))
	for _, v := range views {
		result = append(result, *v)
	}

	return result, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам, включая название категории.
// Некорректные и отсутствующие id не попадают в результат. Существующие, но нечитаемые документы
// перечисляются в Malformed, чтобы вызывающий не принял их за удалённые.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []string) (*usecase.ProductInfoLookup, error) {
	oids := converter.ParseObjectIDs(ids)
	if len(oids) == 0 {
		return &usecase.ProductInfoLookup{Products: []usecase.ProductInfo{}}, nil
	}

	cur, err := p.coll.Aggregate(ctx, pipeline(
		bson.A{bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}}}}},
		categoryLookup(p.categories),
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	lookup, err := collectProductInfos(ctx, cur, p.conv, p.logger)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return lookup, nil
}

// collectProductInfos читает курсор товаров. В отличие от decodeAll битый документ не пропадает:
// его id попадает в Malformed.
func collectProductInfos(ctx context.Context, cur *mongo.Cursor, conv converter.ProductConverter, log logger.Logger) (*usecase.ProductInfoLookup, error) {
	const op = "ProductRepo.GetProductsInfo"
	defer cur.Close(ctx)

	res := &usecase.ProductInfoLookup{Products: []usecase.ProductInfo{}}
	for cur.Next(ctx) {
		var model converter.ProductInfoModel
		if err := cur.Decode(&model); err != nil {
			log.Warnf("%s: undecodable product document %v: %v", op, cur.Current.Lookup("_id"), err)
			if oid, ok := cur.Current.Lookup("_id").ObjectIDOK(); ok {
				res.Malformed = append(res.Malformed, oid.Hex())
			}
			continue
		}

		info, err := conv.ToInfo(&model)
		if err != nil {
			log.Warnf("%s: malformed product document: %v", op, err)
			res.Malformed = append(res.Malformed, model.ID.Hex())
			continue
		}

		res.Products = append(res.Products, *info)
	}

	if err := cur.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

func (p *ProductRepo) SetImageKey(ctx context.Context, id, key string) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := p.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "image_key", Value: key},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if res.MatchedCount == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// GetInventory возвращает текущий остаток товара.
func (p *ProductRepo) GetInventory(ctx context.Context, productID string) (int, error) {
	oid, err := converter.ParseObjectID(productID)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	var doc struct {
		Inventory int `bson:"inventory"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "inventory", Value: 1}})
	if err := p.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(&doc); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrProductNotFound))
	}

	return doc.Inventory, nil
}

// AdjustInventory безусловно прибавляет delta к остатку. Возвращает false, если товара нет.
func (p *ProductRepo) AdjustInventory(ctx context.Context, productID string, delta int) (bool, error) {
	oid, err := converter.ParseObjectID(productID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := p.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "inventory", Value: delta}}}},
	)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.MatchedCount > 0, nil
}

// DecrementIfSufficient списывает qty одной условной операцией: фильтр inventory >= qty
// гарантирует, что конкурентные покупатели не уведут остаток в минус.
func (p *ProductRepo) DecrementIfSufficient(ctx context.Context, productID string, qty int) (bool, error) {
	oid, err := converter.ParseObjectID(productID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := p.coll.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: oid},
			{Key: "inventory", Value: bson.D{{Key: "$gte", Value: qty}}},
		},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "inventory", Value: -qty}}}},
	)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.MatchedCount == 1, nil
}
