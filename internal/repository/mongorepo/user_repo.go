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

type UserRepo struct {
	coll   *mongo.Collection
	conv   converter.UserConverter
	logger logger.Logger
}

func NewUserRepo(db *mongodb.Database, conv converter.UserConverter, logger logger.Logger) *UserRepo {
	return &UserRepo{
		coll:   db.DB.Collection(mongodb.UsersCollection),
		conv:   conv,
		logger: logger,
	}
}

func (u *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.CreatedAt = time.Now().UTC()
	model, err := u.conv.ToModel(user)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := u.coll.InsertOne(ctx, model)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmailTaken)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	model.ID = res.InsertedID.(primitive.ObjectID)

	return u.conv.ToEntity(model), nil
}

// Update меняет имя, email и роль. Хэш пароля не трогается.
func (u *UserRepo) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := converter.ParseObjectID(user.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var updated converter.UserModel
	err = u.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: user.Name},
			{Key: "email", Value: user.Email},
			{Key: "role", Value: string(user.Role)},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmailTaken)
		}
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrUserNotFound))
	}

	return u.conv.ToEntity(&updated), nil
}

func (u *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return u.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (u *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (u *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	cur, err := u.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	users, err := decodeAll(ctx, cur, u.logger, "UserRepo.List", func(m *converter.UserModel) (domain.User, error) {
		return *u.conv.ToEntity(m), nil
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return users, nil
}

func (u *UserRepo) Delete(ctx context.Context, id string) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := u.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if res.DeletedCount == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
	}

	return nil
}

func (u *UserRepo) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var model converter.UserModel
	if err := u.coll.FindOne(ctx, filter).Decode(&model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, e.ErrUserNotFound))
	}

	return u.conv.ToEntity(&model), nil
}
