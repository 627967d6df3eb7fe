package mongorepo

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func discardLogger() logger.Logger {
	return logger.NewSlogLoggerWithWriter(io.Discard, slog.LevelError)
}

func TestCollectProductInfos_ReportsUnreadableDocuments(t *testing.T) {
	good := primitive.NewObjectID()
	subCent := primitive.NewObjectID()
	wrongType := primitive.NewObjectID()

	price, err := primitive.ParseDecimal128("19.99")
	require.NoError(t, err)
	badPrice, err := primitive.ParseDecimal128("1.999")
	require.NoError(t, err)

	cur, err := mongo.NewCursorFromDocuments([]interface{}{
		bson.D{{Key: "_id", Value: good}, {Key: "name", Value: "Lamp"}, {Key: "price", Value: price}, {Key: "category_name", Value: "Light"}},
		bson.D{{Key: "_id", Value: subCent}, {Key: "name", Value: "Desk"}, {Key: "price", Value: badPrice}},
		bson.D{{Key: "_id", Value: wrongType}, {Key: "name", Value: "Chair"}, {Key: "price", Value: "cheap"}},
	}, nil, bson.DefaultRegistry)
	require.NoError(t, err)

	res, err := collectProductInfos(context.Background(), cur, converter.NewProductConverter(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []usecase.ProductInfo{usecase.NewProductInfo(good.Hex(), "Lamp", "Light", 1999)}, res.Products)
	assert.ElementsMatch(t, []string{subCent.Hex(), wrongType.Hex()}, res.Malformed)
}

func TestCollectProductInfos_Empty(t *testing.T) {
	cur, err := mongo.NewCursorFromDocuments(nil, nil, bson.DefaultRegistry)
	require.NoError(t, err)

	res, err := collectProductInfos(context.Background(), cur, converter.NewProductConverter(), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Malformed)
}
