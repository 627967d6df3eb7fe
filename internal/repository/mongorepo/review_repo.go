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

// ReviewRepo хранит отзывы. Пара (user_id, product_id) уникальна на уровне индекса.
type ReviewRepo struct {
	coll   *mongo.Collection
	conv   converter.ReviewConverter
	logger logger.Logger
}

func NewReviewRepo(db *mongodb.Database, conv converter.ReviewConverter, logger logger.Logger) *ReviewRepo {
	return &ReviewRepo{
		coll:   db.DB.Collection(mongodb.ReviewsCollection),
		conv:   conv,
		logger: logger,
	}
}

func (r *ReviewRepo) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	review.CreatedAt = time.Now().UTC()
	model, err := r.conv.ToModel(review)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := r.coll.InsertOne(ctx, model)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrDuplicateReview)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	model.ID = res.InsertedID.(primitive.ObjectID)

	return r.conv.ToEntity(model), nil
}

func (r *ReviewRepo) Exists(ctx context.Context, userID, productID string) (bool, error) {
	uid, err := converter.ParseObjectID(userID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	pid, err := converter.ParseObjectID(productID)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	n, err := r.coll.CountDocuments(ctx,
		bson.D{{Key: "user_id", Value: uid}, {Key: "product_id", Value: pid}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return n > 0, nil
}

// AverageRating считает среднюю оценку агрегацией. Товар без отзывов даёт {0, 0},
// как и id, который не может принадлежать ни одному товару.
func (r *ReviewRepo) AverageRating(ctx context.Context, productID string) (domain.RatingSummary, error) {
	pid, err := converter.ParseObjectID(productID)
	if err != nil {
		return domain.RatingSummary{}, nil
	}

	cur, err := r.coll.Aggregate(ctx, bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "product_id", Value: pid}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return domain.RatingSummary{}, e.Wrap(whereami.WhereAmI(), err)
	}

	type summary struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	rows, err := decodeAll(ctx, cur, r.logger, "ReviewRepo.AverageRating", func(s *summary) (domain.RatingSummary, error) {
		return domain.RatingSummary{Average: s.Average, Count: s.Count}, nil
	})
	if err != nil {
		return domain.RatingSummary{}, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(rows) == 0 {
		return domain.RatingSummary{}, nil
	}

	return rows[0], nil
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	pid, err := converter.ParseObjectID(productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return r.list(ctx, bson.D{{Key: "product_id", Value: pid}})
}

func (r *ReviewRepo) List(ctx context.Context) ([]domain.Review, error) {
	return r.list(ctx, bson.D{})
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ReviewModel
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrReviewNotFound))
	}

	return r.conv.ToEntity(&model), nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if res.DeletedCount == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrReviewNotFound)
	}

	return nil
}

func (r *ReviewRepo) list(ctx context.Context, filter bson.D) ([]domain.Review, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	reviews, err := decodeAll(ctx, cur, r.logger, "ReviewRepo.list", func(m *converter.ReviewModel) (domain.Review, error) {
		return *r.conv.ToEntity(m), nil
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return reviews, nil
}
