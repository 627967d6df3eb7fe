package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUseCase_GetProductsInfo_CacheFirst(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 1)
	env.store.addProduct("q", "Q", 500, 1)
	require.NoError(t, env.cache.SetProducts(ctx, []ProductInfo{NewProductInfo("p", "P (cached)", "", 1000)}))

	res, err := env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p", "q", "ghost"}))
	require.NoError(t, err)

	require.Len(t, res.Products, 2)
	assert.Equal(t, "P (cached)", res.Products[0].Name)
	assert.Equal(t, "Q", res.Products[1].Name)
	assert.Equal(t, []string{"ghost"}, res.NotFoundProducts)

	assert.Eventually(t, func() bool { return env.cache.has("q") }, time.Second, 10*time.Millisecond)
	assert.False(t, env.cache.has("ghost"))
}

func TestCatalogUseCase_GetProductsInfo_CacheFailureFallsBackToDB(t *testing.T) {
	env := newEnv()
	env.store.addProduct("p", "P", 1000, 1)
	env.cache.failGet = true

	res, err := env.catalog.GetProductsInfo(context.Background(), NewGetProductsReq([]string{"p"}))
	require.NoError(t, err)
	require.Len(t, res.Products, 1)
	assert.Empty(t, res.NotFoundProducts)
}

func TestCatalogUseCase_GetProductsInfo_NoIDs(t *testing.T) {
	env := newEnv()

	_, err := env.catalog.GetProductsInfo(context.Background(), NewGetProductsReq(nil))
	assert.ErrorIs(t, err, e.ErrNoProducts)
}

func TestCatalogUseCase_CreateProduct(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	category, err := env.catalog.CreateCategory(ctx, "Tools", "")
	require.NoError(t, err)

	product, err := env.catalog.CreateProduct(ctx, &CreateProductReq{
		Name: "  Hammer ", Price: 1500, Inventory: 3, CategoryID: &category.ID, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hammer", product.Name)

	view, err := env.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tools", view.CategoryName)
}

func TestCatalogUseCase_CreateProduct_Validation(t *testing.T) {
	env := newEnv()
	missing := "nope"

	tests := []struct {
		name string
		req  *CreateProductReq
		want error
	}{
		{"empty name", &CreateProductReq{Name: " ", Price: 1}, e.ErrProductNameRequired},
		{"negative price", &CreateProductReq{Name: "X", Price: -1}, e.ErrInvalidPrice},
		{"negative inventory", &CreateProductReq{Name: "X", Inventory: -1}, e.ErrInvalidInventory},
		{"unknown category", &CreateProductReq{Name: "X", CategoryID: &missing}, e.ErrCategoryNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.catalog.CreateProduct(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCatalogUseCase_UpdateProduct_InvalidatesCache(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 1)
	require.NoError(t, env.cache.SetProducts(ctx, []ProductInfo{NewProductInfo("p", "P", "", 1000)}))

	price := int64(1200)
	updated, err := env.catalog.UpdateProduct(ctx, &UpdateProductReq{ID: "p", Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Price)
	assert.False(t, env.cache.has("p"))

	negative := -5
	_, err = env.catalog.UpdateProduct(ctx, &UpdateProductReq{ID: "p", Inventory: &negative})
	assert.ErrorIs(t, err, e.ErrInvalidInventory)
}

func TestCatalogUseCase_DeleteCategory_LeavesDanglingReference(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	category, err := env.catalog.CreateCategory(ctx, "Tools", "")
	require.NoError(t, err)
	product, err := env.catalog.CreateProduct(ctx, &CreateProductReq{Name: "Hammer", Price: 1500, CategoryID: &category.ID, IsActive: true})
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteCategory(ctx, category.ID))

	view, err := env.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.CategoryName)
	require.NotNil(t, view.CategoryID)

	all, err := env.catalog.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalogUseCase_ListProducts_FilteredAndUnfilteredShareShape(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	category, err := env.catalog.CreateCategory(ctx, "Tools", "")
	require.NoError(t, err)
	_, err = env.catalog.CreateProduct(ctx, &CreateProductReq{Name: "Hammer", Price: 1500, CategoryID: &category.ID, IsActive: true})
	require.NoError(t, err)
	_, err = env.catalog.CreateProduct(ctx, &CreateProductReq{Name: "Apple", Price: 50, IsActive: false})
	require.NoError(t, err)

	all, err := env.catalog.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := env.catalog.ListProducts(ctx, ProductFilter{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Contains(t, all, filtered[0])

	active, err := env.catalog.ListProducts(ctx, ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCatalogUseCase_DeleteProduct(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	p := env.store.addProduct("p", "P", 1000, 1)
	p.ImageKey = "products/p/old.png"
	env.store.addOrder("u1", "pending", "p")

	require.NoError(t, env.catalog.DeleteProduct(ctx, "p"))

	_, err := env.catalog.GetProduct(ctx, "p")
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.Contains(t, env.images.cleanedUp, "products/p/old.png")
	assert.Contains(t, env.cache.deleted, "p")

	assert.ErrorIs(t, env.catalog.DeleteProduct(ctx, "p"), e.ErrProductNotFound)
}

func TestCatalogUseCase_UploadProductImage(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	p := env.store.addProduct("p", "P", 1000, 1)
	p.ImageKey = "products/p/old.png"

	key, err := env.catalog.UploadProductImage(ctx, "p", *NewProductImage([]byte("png"), "image/png", 3, "a.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	view, err := env.catalog.GetProduct(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, key, view.ImageKey)
	assert.Equal(t, []string{"products/p/old.png"}, env.images.cleanedUp)

	env.images.failWith = errors.New("minio down")
	_, err = env.catalog.UploadProductImage(ctx, "p", *NewProductImage([]byte("png"), "image/png", 3, "b.png"))
	assert.Error(t, err)

	_, err = env.catalog.UploadProductImage(ctx, "ghost", *NewProductImage([]byte("png"), "image/png", 3, "c.png"))
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestCatalogUseCase_Categories(t *testing.T) {
	env := newEnv()
	ctx := context.Background()

	_, err := env.catalog.CreateCategory(ctx, "   ", "")
	assert.ErrorIs(t, err, e.ErrCategoryNameRequired)

	category, err := env.catalog.CreateCategory(ctx, "Tools", "hand tools")
	require.NoError(t, err)

	updated, err := env.catalog.UpdateCategory(ctx, category.ID, "Hardware", "")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", updated.Name)

	got, err := env.catalog.GetCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", got.Name)

	list, err := env.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.catalog.DeleteCategory(ctx, category.ID))
	assert.ErrorIs(t, env.catalog.DeleteCategory(ctx, category.ID), e.ErrCategoryNotFound)
}

func TestCatalogUseCase_GetProductsInfo_SeparatesUnreadable(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 1)
	env.store.addProduct("bad", "Broken", 700, 1)
	env.store.markMalformed("bad")

	res, err := env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p", "bad", "ghost"}))
	require.NoError(t, err)

	require.Len(t, res.Products, 1)
	assert.Equal(t, "p", res.Products[0].ID)
	assert.Equal(t, []string{"ghost"}, res.NotFoundProducts)
	assert.Equal(t, []string{"bad"}, res.Malformed)

	assert.Eventually(t, func() bool { return env.cache.has("p") }, time.Second, 10*time.Millisecond)
	assert.False(t, env.cache.has("bad"))
}

func TestCatalogUseCase_LateCacheFillAfterUpdateIsDropped(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.setCart("u1", "p")

	started, release := env.cache.hold()
	res, err := env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p"}))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Products[0].Price)
	<-started

	price := int64(2500)
	_, err = env.catalog.UpdateProduct(ctx, &UpdateProductReq{ID: "p", Price: &price})
	require.NoError(t, err)
	release()

	// первое удаление делает UpdateProduct, второе откатывает запоздавшую запись
	require.Eventually(t, func() bool { return env.cache.deletions("p") == 2 }, time.Second, 10*time.Millisecond)
	assert.False(t, env.cache.has("p"))

	view, err := env.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), view.Total)

	res, err = env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.Products[0].Price)
}

func TestCatalogUseCase_LateCacheFillAfterDeleteIsDropped(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.setCart("u1", "p")

	started, release := env.cache.hold()
	_, err := env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p"}))
	require.NoError(t, err)
	<-started

	require.NoError(t, env.catalog.DeleteProduct(ctx, "p"))
	release()

	require.Eventually(t, func() bool { return env.cache.deletions("p") == 2 }, time.Second, 10*time.Millisecond)
	assert.False(t, env.cache.has("p"))

	res, err := env.catalog.GetProductsInfo(ctx, NewGetProductsReq([]string{"p"}))
	require.NoError(t, err)
	assert.Empty(t, res.Products)
	assert.Equal(t, []string{"p"}, res.NotFoundProducts)

	view, err := env.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Empty(t, env.store.cartIDs("u1"))

	_, err = env.orders.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, e.ErrEmptyCart)
	assert.NotErrorIs(t, err, e.ErrInsufficientInventory)
}
