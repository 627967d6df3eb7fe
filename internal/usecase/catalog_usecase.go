package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const cacheFillTimeout = 500 * time.Millisecond

// CatalogUseCase реализует чтение каталога и административное управление товарами и категориями.
type CatalogUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	orderRepo    OrderRepository
	imagesInfra  ImagesInfra
	cacheRepo    CacheRepository
	logger       logger.Logger

	// cacheGen растёт при каждой инвалидации кэша. Фоновое заполнение, начатое до инвалидации, откатывает свою запись.
	cacheGen atomic.Uint64
}

func NewCatalogUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	orderRepo OrderRepository,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	logger logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		imagesInfra:  imagesInfra,
		cacheRepo:    cacheRepo,
		logger:       logger,
	}
}

// GetProduct возвращает товар с названием категории.
// Некорректный id даёт e.ErrInvalidID, отсутствующий — e.ErrProductNotFound.
func (c *CatalogUseCase) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	const op = "CatalogUseCase.GetProduct"

	view, err := c.productRepo.GetView(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return view, nil
}

// ListProducts возвращает товары одной и той же формы с фильтром по категории и без него.
func (c *CatalogUseCase) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductView, error) {
	const op = "CatalogUseCase.ListProducts"

	views, err := c.productRepo.ListViews(ctx, filter)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return views, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам.
// Сначала читает кэш, промахи добирает из БД и в фоне докладывает в кэш.
func (c *CatalogUseCase) GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error) {
	const op = "CatalogUseCase.GetProductsInfo"

	if len(req.IDs) == 0 {
		return nil, e.Wrap(op, e.ErrNoProducts)
	}

	// Поиск продуктов в кэше
	cacheProductsMap, err := c.cacheRepo.GetProducts(ctx, req.IDs)
	var nonCacheable []string
	if err != nil {
		nonCacheable = append(nonCacheable, req.IDs...)
	} else {
		for _, productID := range req.IDs {
			if _, ok := cacheProductsMap[productID]; !ok {
				nonCacheable = append(nonCacheable, productID)
			}
		}
	}

	// Получение продуктов из БД
	lookup := &ProductInfoLookup{}
	if len(nonCacheable) > 0 {
		gen := c.cacheGen.Load()
		lookup, err = c.productRepo.GetProductsInfo(ctx, nonCacheable)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		if len(lookup.Products) > 0 {
			go c.fillCache(op, gen, append([]ProductInfo(nil), lookup.Products...))
		}
	}

	dbProductsMap := make(map[string]ProductInfo, len(lookup.Products))
	for _, productInfo := range lookup.Products {
		dbProductsMap[productInfo.ID] = productInfo
	}
	malformed := make(map[string]struct{}, len(lookup.Malformed))
	for _, id := range lookup.Malformed {
		malformed[id] = struct{}{}
	}

	// Формирование результата в порядке запроса
	result := make([]ProductInfo, 0, len(req.IDs))
	notFoundProducts := make([]string, 0)
	malformedProducts := make([]string, 0)
	for _, id := range req.IDs {
		if pr, ok := cacheProductsMap[id]; ok {
			result = append(result, pr)
		} else if pr, ok := dbProductsMap[id]; ok {
			result = append(result, pr)
		} else if _, ok := malformed[id]; ok {
			malformedProducts = append(malformedProducts, id)
		} else {
			notFoundProducts = append(notFoundProducts, id)
		}
	}

	return NewGetProductsRes(result, notFoundProducts, malformedProducts), nil
}

// fillCache докладывает прочитанные из БД товары в кэш.
// Если с момента чтения кэш инвалидировали, запись удаляется: она может нести цену до обновления.
func (c *CatalogUseCase) fillCache(op string, gen uint64, products []ProductInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheFillTimeout)
	defer cancel()

	if err := c.cacheRepo.SetProducts(ctx, products); err != nil {
		c.logger.Warnf("Failed to cache products in background: %v", e.Wrap(op, err))
		return
	}

	if c.cacheGen.Load() == gen {
		return
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	delCtx, delCancel := context.WithTimeout(context.Background(), cacheFillTimeout)
	defer delCancel()

	if err := c.cacheRepo.DeleteProducts(delCtx, ids); err != nil {
		c.logger.Warnf("Failed to drop stale background cache fill: %v", e.Wrap(op, err))
	}
}

// CreateProduct создаёт товар. Ссылка на категорию проверяется при создании.
func (c *CatalogUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.CreateProduct"

	product := domain.NewProduct(strings.TrimSpace(req.Name), req.Description, req.Price, req.Inventory, req.CategoryID, req.IsActive)
	if err := c.validateProduct(ctx, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	created, err := c.productRepo.Create(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

// UpdateProduct применяет частичное обновление и сбрасывает запись товара в кэше.
func (c *CatalogUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "CatalogUseCase.UpdateProduct"

	product, err := c.productRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	categoryChanged := false
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Inventory != nil {
		product.Inventory = *req.Inventory
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.ClearCategory {
		product.CategoryID = nil
	} else if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
		categoryChanged = true
	}

	if err := c.validateFields(product); err != nil {
		return nil, e.Wrap(op, err)
	}
	if categoryChanged {
		if _, err := c.categoryRepo.GetByID(ctx, *product.CategoryID); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	updated, err := c.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidate(ctx, op, updated.ID)
	return updated, nil
}

// DeleteProduct удаляет товар физически. Ссылки из корзин становятся фантомными и вычищаются при чтении.
func (c *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "CatalogUseCase.DeleteProduct"

	product, err := c.productRepo.GetByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	open, err := c.orderRepo.CountOpenWithProduct(ctx, id)
	if err != nil {
		c.logger.Warnf("Failed to count open orders for product %s: %v", id, e.Wrap(op, err))
	} else if open > 0 {
		c.logger.Warnf("Deleting product %s referenced by %d undelivered order(s)", id, open)
	}

	if err := c.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	c.invalidate(ctx, op, id)
	if product.ImageKey != "" {
		c.imagesInfra.CleanupImages([]string{product.ImageKey})
	}

	return nil
}

// UploadProductImage загружает изображение товара в MinIO и заменяет ключ у товара.
// Старый объект удаляется после успешной записи нового ключа.
func (c *CatalogUseCase) UploadProductImage(ctx context.Context, productID string, image ProductImage) (string, error) {
	const op = "CatalogUseCase.UploadProductImage"

	product, err := c.productRepo.GetByID(ctx, productID)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	key, err := c.imagesInfra.UploadProductImage(ctx, productID, image)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if err := c.productRepo.SetImageKey(ctx, productID, key); err != nil {
		c.logger.Warnf("Cleaning up orphaned image after update failure. product_id: %s, error: %v", productID, e.Wrap(op, err))
		c.imagesInfra.CleanupImages([]string{key})
		return "", e.Wrap(op, err)
	}

	if product.ImageKey != "" && product.ImageKey != key {
		c.imagesInfra.CleanupImages([]string{product.ImageKey})
	}

	return key, nil
}

func (c *CatalogUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "CatalogUseCase.ListCategories"

	categories, err := c.categoryRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return categories, nil
}

func (c *CatalogUseCase) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	const op = "CatalogUseCase.GetCategory"

	category, err := c.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

func (c *CatalogUseCase) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	const op = "CatalogUseCase.CreateCategory"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.Wrap(op, e.ErrCategoryNameRequired)
	}

	category, err := c.categoryRepo.Create(ctx, domain.NewCategory(name, description))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return category, nil
}

// UpdateCategory меняет категорию и сбрасывает кэш её товаров: в нём хранится название категории.
func (c *CatalogUseCase) UpdateCategory(ctx context.Context, id, name, description string) (*domain.Category, error) {
	const op = "CatalogUseCase.UpdateCategory"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, e.Wrap(op, e.ErrCategoryNameRequired)
	}

	category, err := c.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	category.Name = name
	category.Description = description

	updated, err := c.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidateCategory(ctx, op, id)
	return updated, nil
}

// DeleteCategory удаляет категорию. Товары сохраняют висячую ссылку и показываются без названия категории.
func (c *CatalogUseCase) DeleteCategory(ctx context.Context, id string) error {
	const op = "CatalogUseCase.DeleteCategory"

	if err := c.categoryRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	c.invalidateCategory(ctx, op, id)
	return nil
}

// validateProduct проверяет поля товара и существование категории.
func (c *CatalogUseCase) validateProduct(ctx context.Context, product *domain.Product) error {
	if err := c.validateFields(product); err != nil {
		return err
	}

	if product.CategoryID != nil {
		if _, err := c.categoryRepo.GetByID(ctx, *product.CategoryID); err != nil {
			return err
		}
	}

	return nil
}

func (c *CatalogUseCase) validateFields(product *domain.Product) error {
	if product.Name == "" {
		return e.ErrProductNameRequired
	}

	if product.Price < 0 {
		return e.ErrInvalidPrice
	}

	if product.Inventory < 0 {
		return e.ErrInvalidInventory
	}

	return nil
}

// invalidate удаляет товары из кэша. Ошибка кэша не влияет на результат операции.
func (c *CatalogUseCase) invalidate(ctx context.Context, op string, ids ...string) {
	if len(ids) == 0 {
		return
	}

	c.cacheGen.Add(1)
	if err := c.cacheRepo.DeleteProducts(ctx, ids); err != nil {
		c.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

func (c *CatalogUseCase) invalidateCategory(ctx context.Context, op, categoryID string) {
	views, err := c.productRepo.ListViews(ctx, ProductFilter{CategoryID: &categoryID})
	if err != nil {
		if !errors.Is(err, e.ErrInvalidID) {
			c.logger.Warnf("Failed to list category products for cache invalidation: %v", e.Wrap(op, err))
		}
		return
	}

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	c.invalidate(ctx, op, ids...)
}
