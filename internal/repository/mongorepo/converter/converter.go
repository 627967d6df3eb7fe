package converter

import (
	"fmt"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductConverter преобразует сущности Product между domain и моделью MongoDB.
type ProductConverter interface {
	ToModel(entity *domain.Product) (*ProductModel, error)
	ToEntity(model *ProductModel) (*domain.Product, error)
	ToView(model *ProductViewModel) (*usecase.ProductView, error)
	ToInfo(model *ProductInfoModel) (*usecase.ProductInfo, error)
}

// CategoryConverter преобразует сущности Category между domain и моделью MongoDB.
type CategoryConverter interface {
	ToModel(entity *domain.Category) (*CategoryModel, error)
	ToEntity(model *CategoryModel) *domain.Category
}

// CartConverter преобразует документ корзины в domain.Cart.
type CartConverter interface {
	ToEntity(model *CartModel) (*domain.Cart, error)
}

// OrderConverter преобразует сущности Order между domain и моделью MongoDB.
type OrderConverter interface {
	ToModel(entity *domain.Order) (*OrderModel, error)
	ToRecord(model *OrderRecordModel) (*usecase.OrderRecord, error)
}

// ReviewConverter преобразует сущности Review между domain и моделью MongoDB.
type ReviewConverter interface {
	ToModel(entity *domain.Review) (*ReviewModel, error)
	ToEntity(model *ReviewModel) *domain.Review
}

// UserConverter преобразует сущности User между domain и моделью MongoDB.
type UserConverter interface {
	ToModel(entity *domain.User) (*UserModel, error)
	ToEntity(model *UserModel) *domain.User
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью MongoDB.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) (*OutboxEventModel, error)
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
}

type productConverter struct{}

func NewProductConverter() ProductConverter { return productConverter{} }

func (productConverter) ToModel(entity *domain.Product) (*ProductModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}

	var categoryID *primitive.ObjectID
	if entity.CategoryID != nil {
		oid, err := ParseObjectID(*entity.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryID = &oid
	}

	price, err := CentsToDecimal128(entity.Price)
	if err != nil {
		return nil, err
	}

	return &ProductModel{
		ID:          id,
		Name:        entity.Name,
		Description: entity.Description,
		Price:       price,
		Inventory:   entity.Inventory,
		IsActive:    entity.IsActive,
		CategoryID:  categoryID,
		ImageKey:    entity.ImageKey,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}, nil
}

func (productConverter) ToEntity(model *ProductModel) (*domain.Product, error) {
	price, err := Decimal128ToCents(model.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", model.ID.Hex(), err)
	}

	var categoryID *string
	if model.CategoryID != nil {
		hex := model.CategoryID.Hex()
		categoryID = &hex
	}

	return &domain.Product{
		ID:          model.ID.Hex(),
		Name:        model.Name,
		Description: model.Description,
		Price:       price,
		Inventory:   model.Inventory,
		IsActive:    model.IsActive,
		CategoryID:  categoryID,
		ImageKey:    model.ImageKey,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

func (c productConverter) ToView(model *ProductViewModel) (*usecase.ProductView, error) {
	product, err := c.ToEntity(&model.ProductModel)
	if err != nil {
		return nil, err
	}

	return &usecase.ProductView{
		ID:           product.ID,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		Inventory:    product.Inventory,
		IsActive:     product.IsActive,
		CategoryID:   product.CategoryID,
		CategoryName: model.CategoryName,
		ImageKey:     product.ImageKey,
		CreatedAt:    product.CreatedAt,
	}, nil
}

func (productConverter) ToInfo(model *ProductInfoModel) (*usecase.ProductInfo, error) {
	price, err := Decimal128ToCents(model.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", model.ID.Hex(), err)
	}

	info := usecase.NewProductInfo(model.ID.Hex(), model.Name, model.CategoryName, price)
	return &info, nil
}

type categoryConverter struct{}

func NewCategoryConverter() CategoryConverter { return categoryConverter{} }

func (categoryConverter) ToModel(entity *domain.Category) (*CategoryModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}

	return &CategoryModel{
		ID:          id,
		Name:        entity.Name,
		Description: entity.Description,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}, nil
}

func (categoryConverter) ToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:          model.ID.Hex(),
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

type cartConverter struct{}

func NewCartConverter() CartConverter { return cartConverter{} }

func (cartConverter) ToEntity(model *CartModel) (*domain.Cart, error) {
	total, err := Decimal128ToCents(model.Total)
	if err != nil {
		// Total — только кэш, поэтому битое значение не делает корзину нечитаемой.
		total = 0
	}

	return &domain.Cart{
		ID:         model.ID.Hex(),
		UserID:     model.UserID.Hex(),
		ProductIDs: HexIDs(model.Items),
		Total:      total,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

type orderConverter struct{}

func NewOrderConverter() OrderConverter { return orderConverter{} }

func (orderConverter) ToModel(entity *domain.Order) (*OrderModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}

	userID, err := ParseObjectID(entity.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItemModel, 0, len(entity.Items))
	for _, it := range entity.Items {
		productID, err := ParseObjectID(it.ProductID)
		if err != nil {
			return nil, err
		}
		price, err := CentsToDecimal128(it.Price)
		if err != nil {
			return nil, err
		}
		subtotal, err := CentsToDecimal128(it.Subtotal)
		if err != nil {
			return nil, err
		}

		items = append(items, OrderItemModel{
			ProductID: productID,
			Name:      it.Name,
			Price:     price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})
	}

	total, err := CentsToDecimal128(entity.Total)
	if err != nil {
		return nil, err
	}

	return &OrderModel{
		ID:        id,
		UserID:    userID,
		Items:     items,
		Total:     total,
		Status:    string(entity.Status),
		CreatedAt: entity.CreatedAt.UTC(),
		UpdatedAt: entity.UpdatedAt,
	}, nil
}

func (orderConverter) ToRecord(model *OrderRecordModel) (*usecase.OrderRecord, error) {
	status, ok := domain.ParseOrderStatus(model.Status)
	if !ok {
		return nil, fmt.Errorf("order %s: %w: status %q", model.ID.Hex(), e.ErrMalformedDocument, model.Status)
	}

	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, it := range model.Items {
		price, err := Decimal128ToCents(it.Price)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", model.ID.Hex(), err)
		}
		subtotal, err := Decimal128ToCents(it.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", model.ID.Hex(), err)
		}

		items = append(items, domain.OrderItem{
			ProductID: it.ProductID.Hex(),
			Name:      it.Name,
			Price:     price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})
	}

	total, err := Decimal128ToCents(model.Total)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", model.ID.Hex(), err)
	}

	return &usecase.OrderRecord{
		Order: domain.Order{
			ID:        model.ID.Hex(),
			UserID:    model.UserID.Hex(),
			Items:     items,
			Total:     total,
			Status:    status,
			CreatedAt: model.CreatedAt.UTC(),
			UpdatedAt: model.UpdatedAt,
		},
		UserName: model.UserName,
	}, nil
}

type reviewConverter struct{}

func NewReviewConverter() ReviewConverter { return reviewConverter{} }

func (reviewConverter) ToModel(entity *domain.Review) (*ReviewModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}
	productID, err := ParseObjectID(entity.ProductID)
	if err != nil {
		return nil, err
	}
	userID, err := ParseObjectID(entity.UserID)
	if err != nil {
		return nil, err
	}

	return &ReviewModel{
		ID:        id,
		ProductID: productID,
		UserID:    userID,
		Rating:    entity.Rating,
		Comment:   entity.Comment,
		CreatedAt: entity.CreatedAt,
	}, nil
}

func (reviewConverter) ToEntity(model *ReviewModel) *domain.Review {
	return &domain.Review{
		ID:        model.ID.Hex(),
		ProductID: model.ProductID.Hex(),
		UserID:    model.UserID.Hex(),
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
	}
}

type userConverter struct{}

func NewUserConverter() UserConverter { return userConverter{} }

func (userConverter) ToModel(entity *domain.User) (*UserModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}

	return &UserModel{
		ID:           id,
		Name:         entity.Name,
		Email:        entity.Email,
		PasswordHash: entity.PasswordHash,
		Role:         string(entity.Role),
		CreatedAt:    entity.CreatedAt,
	}, nil
}

func (userConverter) ToEntity(model *UserModel) *domain.User {
	return &domain.User{
		ID:           model.ID.Hex(),
		Name:         model.Name,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		Role:         domain.Role(model.Role),
		CreatedAt:    model.CreatedAt,
	}
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter { return outboxEventConverter{} }

func (outboxEventConverter) ToModel(entity *usecase.OutboxEvent) (*OutboxEventModel, error) {
	id, err := OptionalObjectID(entity.ID)
	if err != nil {
		return nil, err
	}

	return &OutboxEventModel{
		ID:            id,
		EventType:     entity.EventType,
		AggregateID:   entity.AggregateID,
		Payload:       entity.Payload,
		Status:        string(entity.Status),
		Attempts:      entity.Attempts,
		NextAttemptAt: entity.NextAttemptAt,
		LastError:     entity.LastError,
		CreatedAt:     entity.CreatedAt,
	}, nil
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:            model.ID.Hex(),
		EventType:     model.EventType,
		AggregateID:   model.AggregateID,
		Payload:       model.Payload,
		Status:        usecase.OutboxStatus(model.Status),
		Attempts:      model.Attempts,
		NextAttemptAt: model.NextAttemptAt,
		LastError:     model.LastError,
		CreatedAt:     model.CreatedAt,
	}
}

// ParseObjectID разбирает hex-идентификатор документа. Некорректная строка даёт e.ErrInvalidID.
func ParseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", e.ErrInvalidID, id)
	}

	return oid, nil
}

// OptionalObjectID — как ParseObjectID, но пустая строка означает ещё не сохранённый документ.
func OptionalObjectID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NilObjectID, nil
	}

	return ParseObjectID(id)
}

// ParseObjectIDs разбирает список id, отбрасывая некорректные: такие документы заведомо не существуют.
func ParseObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}

	return out
}

func HexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}

	return out
}

// CentsToDecimal128 переводит сумму в копейках в десятичное значение с двумя знаками.
func CentsToDecimal128(cents int64) (primitive.Decimal128, error) {
	d, err := primitive.ParseDecimal128(decimal.New(cents, -2).StringFixed(2))
	if err != nil {
		return primitive.Decimal128{}, e.Wrap("CentsToDecimal128", err)
	}

	return d, nil
}

// Decimal128ToCents переводит сохранённую сумму обратно в копейки.
// Значения с более чем двумя знаками после запятой, NaN и бесконечности считаются повреждёнными.
func Decimal128ToCents(d primitive.Decimal128) (int64, error) {
	amount, err := decimal.NewFromString(d.String())
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", e.ErrMalformedDocument, d.String())
	}

	cents := amount.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has sub-cent precision", e.ErrMalformedDocument, amount.String())
	}

	return cents.IntPart(), nil
}
