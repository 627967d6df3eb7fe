package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/mongodb"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxEventRepo хранит исходящие события заказов до их публикации в Kafka.
type OutboxEventRepo struct {
	coll   *mongo.Collection
	conv   converter.OutboxEventConverter
	logger logger.Logger
	now    func() time.Time
}

func NewOutboxEventRepo(db *mongodb.Database, conv converter.OutboxEventConverter, logger logger.Logger) *OutboxEventRepo {
	return &OutboxEventRepo{
		coll:   db.DB.Collection(mongodb.OutboxCollection),
		conv:   conv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add сохраняет событие. Внутри транзакции оно фиксируется вместе с заказом.
func (o *OutboxEventRepo) Add(ctx context.Context, event *usecase.OutboxEvent) error {
	model, err := o.conv.ToModel(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := o.coll.InsertOne(ctx, model); err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%s: event %s already exists", whereami.WhereAmI(), event.ID)
		}
		return fmt.Errorf("%s: failed to insert event: %w", whereami.WhereAmI(), err)
	}

	return nil
}

// ClaimPending захватывает до limit готовых к отправке событий и переводит их в processing на время lease.
// Каждое событие захватывается атомарным findAndModify, поэтому два воркера не получат одно и то же событие.
// Событие, чья аренда истекла (воркер упал), снова становится доступным.
func (o *OutboxEventRepo) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*usecase.OutboxEvent, error) {
	now := o.now()
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{
			{Key: "status", Value: string(usecase.OutboxPending)},
			{Key: "next_attempt_at", Value: bson.D{{Key: "$lte", Value: now}}},
		},
		bson.D{
			{Key: "status", Value: string(usecase.OutboxProcessing)},
			{Key: "locked_until", Value: bson.D{{Key: "$lt", Value: now}}},
		},
	}}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(usecase.OutboxProcessing)},
		{Key: "locked_until", Value: now.Add(lease)},
	}}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetReturnDocument(options.After)

	events := make([]*usecase.OutboxEvent, 0, limit)
	for len(events) < limit {
		var model converter.OutboxEventModel
		err := o.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&model)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			if len(events) > 0 {
				o.logger.Warnf("%s: stopping claim after %d event(s): %v", whereami.WhereAmI(), len(events), err)
				break
			}
			return nil, fmt.Errorf("%s: failed to claim pending events: %w", whereami.WhereAmI(), err)
		}

		events = append(events, o.conv.ToEntity(&model))
	}

	return events, nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id string) error {
	return o.finish(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(usecase.OutboxProcessed)},
			{Key: "processed_at", Value: o.now()},
		}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
	})
}

// MarkForRetry возвращает событие в очередь с отложенной следующей попыткой.
func (o *OutboxEventRepo) MarkForRetry(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string) error {
	return o.finish(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(usecase.OutboxPending)},
			{Key: "attempts", Value: attempts},
			{Key: "next_attempt_at", Value: nextAttemptAt.UTC()},
			{Key: "last_error", Value: lastErr},
		}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
	})
}

// MarkAsFailed окончательно снимает событие с отправки.
func (o *OutboxEventRepo) MarkAsFailed(ctx context.Context, id string, lastErr string) error {
	return o.finish(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(usecase.OutboxFailed)},
			{Key: "last_error", Value: lastErr},
		}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
	})
}

// finish применяет update только к событию в статусе processing.
func (o *OutboxEventRepo) finish(ctx context.Context, id string, update bson.D) error {
	oid, err := converter.ParseObjectID(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	res, err := o.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: string(usecase.OutboxProcessing)}},
		update,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update event %s: %w", whereami.WhereAmI(), id, err)
	}
	if res.MatchedCount == 0 {
		// Событие уже завершено другим воркером после истечения аренды
		o.logger.Debugf("outbox event %s is no longer in processing", id)
	}

	return nil
}
