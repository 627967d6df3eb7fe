package converter

import "github.com/DRSN-tech/storefront-backend/internal/usecase"

// ProductInfoConverter преобразует ProductInfo между usecase и моделью кэша.
type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
}

type productInfoConverter struct{}

func NewProductInfoConverter() ProductInfoConverter { return productInfoConverter{} }

func (productInfoConverter) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	return &ProductInfoRedisModel{
		ID:           entity.ID,
		Name:         entity.Name,
		CategoryName: entity.CategoryName,
		Price:        entity.Price,
	}
}

func (productInfoConverter) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	info := usecase.NewProductInfo(model.ID, model.Name, model.CategoryName, model.Price)
	return &info
}

func (c productInfoConverter) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	models := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		models = append(models, *c.ToRedisModel(&entities[i]))
	}

	return models
}
