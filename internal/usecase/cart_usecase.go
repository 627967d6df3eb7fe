package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// CartUseCase управляет корзиной пользователя.
//
// Уменьшение количества и установка количества читают мультимножество и перезаписывают его целиком,
// поэтому при параллельных запросах одного пользователя побеждает последняя запись.
// Добавление и удаление всех копий атомарны ($push/$pull).
// Цены читаются из БД в обход кэша каталога: итог корзины и заказ не должны видеть устаревшую цену.
type CartUseCase struct {
	cartRepo    CartRepository
	productRepo ProductRepository
	logger      logger.Logger
}

func NewCartUC(cartRepo CartRepository, productRepo ProductRepository, logger logger.Logger) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// ValidateQuantity проверяет количество одной позиции: от 1 до domain.MaxItemQuantity.
func ValidateQuantity(qty int) error {
	if qty <= 0 {
		return e.ErrInvalidQuantity
	}
	if qty > domain.MaxItemQuantity {
		return e.ErrQuantityTooLarge
	}

	return nil
}

// GetCart материализует корзину по текущим ценам.
// Фантомные ссылки исключаются из строк и удаляются из сохранённой корзины, пересчитанный итог записывается обратно.
// Товары, документ которых не читается, остаются в корзине и перечисляются в Unavailable.
func (c *CartUseCase) GetCart(ctx context.Context, userID string) (*CartView, error) {
	const op = "CartUseCase.GetCart"

	view := &CartView{UserID: userID, Items: []CartLine{}}

	cart, err := c.cartRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, e.ErrCartNotFound) {
			return view, nil
		}
		return nil, e.Wrap(op, err)
	}

	entries := domain.GroupProductIDs(cart.ProductIDs)
	if len(entries) == 0 {
		c.writeBackTotal(ctx, op, cart, 0)
		return view, nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ProductID
	}

	lookup, err := c.productRepo.GetProductsInfo(ctx, ids)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	infoByID := make(map[string]ProductInfo, len(lookup.Products))
	for _, info := range lookup.Products {
		infoByID[info.ID] = info
	}
	malformed := make(map[string]struct{}, len(lookup.Malformed))
	for _, id := range lookup.Malformed {
		malformed[id] = struct{}{}
	}

	var phantoms []string
	for _, entry := range entries {
		if info, ok := infoByID[entry.ProductID]; ok {
			line := NewCartLine(info, entry.Quantity)
			view.Items = append(view.Items, line)
			view.Total += line.Subtotal
			continue
		}
		if _, ok := malformed[entry.ProductID]; ok {
			view.Unavailable = append(view.Unavailable, entry.ProductID)
			continue
		}
		phantoms = append(phantoms, entry.ProductID)
	}

	if len(view.Unavailable) > 0 {
		c.logger.Warnf("Cart of user %s references %d unreadable product(s): %v", userID, len(view.Unavailable), view.Unavailable)
	}

	if len(phantoms) > 0 {
		c.logger.Infof("Pruning %d phantom product(s) from cart of user %s", len(phantoms), userID)
		if err := c.cartRepo.PullProducts(ctx, userID, phantoms); err != nil {
			c.logger.Warnf("Failed to prune phantom products: %v", e.Wrap(op, err))
		}
	}

	c.writeBackTotal(ctx, op, cart, view.Total)
	return view, nil
}

// AddItem добавляет qty копий товара в корзину, создавая её при необходимости.
func (c *CartUseCase) AddItem(ctx context.Context, userID, productID string, qty int) error {
	const op = "CartUseCase.AddItem"

	if err := ValidateQuantity(qty); err != nil {
		return e.Wrap(op, err)
	}

	if err := c.ensurePurchasable(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	current, err := c.currentItems(ctx, userID)
	if err != nil {
		return e.Wrap(op, err)
	}
	if err := checkCartLimits(current, productID, domain.CountOf(current, productID)+qty); err != nil {
		return e.Wrap(op, err)
	}

	if err := c.cartRepo.PushItems(ctx, userID, domain.Repeat(productID, qty)); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (c *CartUseCase) IncrementItem(ctx context.Context, userID, productID string) error {
	return c.AddItem(ctx, userID, productID, 1)
}

// DecrementItem убирает одну единицу товара. Для отсутствующего товара возвращает e.ErrCartItemNotFound.
func (c *CartUseCase) DecrementItem(ctx context.Context, userID, productID string) error {
	const op = "CartUseCase.DecrementItem"

	cart, err := c.cartRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, e.ErrCartNotFound) {
			return e.Wrap(op, e.ErrCartItemNotFound)
		}
		return e.Wrap(op, err)
	}

	ids, found := domain.RemoveOne(cart.ProductIDs, productID)
	if !found {
		return e.Wrap(op, e.ErrCartItemNotFound)
	}

	if err := c.cartRepo.SetItems(ctx, userID, ids); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// RemoveItem удаляет все копии товара одной операцией.
func (c *CartUseCase) RemoveItem(ctx context.Context, userID, productID string) error {
	const op = "CartUseCase.RemoveItem"

	if err := c.cartRepo.PullProducts(ctx, userID, []string{productID}); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Clear опустошает корзину и обнуляет итог. Повторный вызов ничего не меняет.
func (c *CartUseCase) Clear(ctx context.Context, userID string) error {
	const op = "CartUseCase.Clear"

	if err := c.cartRepo.Clear(ctx, userID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (c *CartUseCase) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	const op = "CartUseCase.ListCarts"

	carts, err := c.cartRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return carts, nil
}

// SetItemQuantity устанавливает количество товара в корзине пользователя. Ноль удаляет товар.
func (c *CartUseCase) SetItemQuantity(ctx context.Context, userID, productID string, qty int) error {
	const op = "CartUseCase.SetItemQuantity"

	if qty == 0 {
		return c.RemoveItem(ctx, userID, productID)
	}
	if err := ValidateQuantity(qty); err != nil {
		return e.Wrap(op, err)
	}

	if _, err := c.productRepo.GetByID(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	current, err := c.currentItems(ctx, userID)
	if err != nil {
		return e.Wrap(op, err)
	}
	if err := checkCartLimits(current, productID, qty); err != nil {
		return e.Wrap(op, err)
	}

	if err := c.cartRepo.SetItems(ctx, userID, domain.SetCount(current, productID, qty)); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// currentItems возвращает мультимножество корзины. Отсутствующая корзина пуста.
func (c *CartUseCase) currentItems(ctx context.Context, userID string) ([]string, error) {
	cart, err := c.cartRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, e.ErrCartNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return cart.ProductIDs, nil
}

// checkCartLimits проверяет корзину, в которой кратность productID станет qty.
func checkCartLimits(ids []string, productID string, qty int) error {
	if qty > domain.MaxItemQuantity {
		return e.ErrQuantityTooLarge
	}
	if len(ids)-domain.CountOf(ids, productID)+qty > domain.MaxCartUnits {
		return e.ErrCartLimitExceeded
	}

	return nil
}

// ensurePurchasable проверяет, что товар существует и активен.
func (c *CartUseCase) ensurePurchasable(ctx context.Context, productID string) error {
	product, err := c.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if !product.IsActive {
		return e.ErrProductInactive
	}

	return nil
}

// writeBackTotal сохраняет пересчитанный итог. Ошибка записи не ломает чтение.
func (c *CartUseCase) writeBackTotal(ctx context.Context, op string, cart *domain.Cart, total int64) {
	if cart.Total == total {
		return
	}

	if err := c.cartRepo.SetTotal(ctx, cart.UserID, total); err != nil {
		c.logger.Warnf("Failed to write back cart total: %v", e.Wrap(op, err))
	}
}
