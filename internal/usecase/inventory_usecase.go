package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// InventoryUseCase — складской учёт. Используется только при оформлении заказа.
type InventoryUseCase struct {
	inventoryRepo InventoryRepository
	logger        logger.Logger
}

func NewInventoryUC(inventoryRepo InventoryRepository, logger logger.Logger) *InventoryUseCase {
	return &InventoryUseCase{
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

// HasSufficientStock — true, если товар существует и его остаток не меньше qty.
func (i *InventoryUseCase) HasSufficientStock(ctx context.Context, productID string, qty int) (bool, error) {
	const op = "InventoryUseCase.HasSufficientStock"

	available, err := i.Available(ctx, productID)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return available >= qty, nil
}

// Available возвращает остаток. Для отсутствующего товара остаток равен нулю.
func (i *InventoryUseCase) Available(ctx context.Context, productID string) (int, error) {
	const op = "InventoryUseCase.Available"

	available, err := i.inventoryRepo.GetInventory(ctx, productID)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) || errors.Is(err, e.ErrInvalidID) {
			return 0, nil
		}
		return 0, e.Wrap(op, err)
	}

	return available, nil
}

// Decrement безусловно уменьшает остаток и может увести его в минус.
// Возвращает, был ли изменён документ.
func (i *InventoryUseCase) Decrement(ctx context.Context, productID string, qty int) (bool, error) {
	const op = "InventoryUseCase.Decrement"

	if qty <= 0 {
		return false, e.Wrap(op, e.ErrInvalidQuantity)
	}

	modified, err := i.inventoryRepo.AdjustInventory(ctx, productID, -qty)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return modified, nil
}

// DecrementIfSufficient списывает qty одним условным обновлением.
// false означает, что остатка не хватило или товара нет; остаток при этом не меняется.
func (i *InventoryUseCase) DecrementIfSufficient(ctx context.Context, productID string, qty int) (bool, error) {
	const op = "InventoryUseCase.DecrementIfSufficient"

	if qty <= 0 {
		return false, e.Wrap(op, e.ErrInvalidQuantity)
	}

	ok, err := i.inventoryRepo.DecrementIfSufficient(ctx, productID, qty)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return ok, nil
}

// Restock возвращает qty единиц на склад (компенсация неудавшегося списания).
func (i *InventoryUseCase) Restock(ctx context.Context, productID string, qty int) error {
	const op = "InventoryUseCase.Restock"

	if qty <= 0 {
		return e.Wrap(op, e.ErrInvalidQuantity)
	}

	modified, err := i.inventoryRepo.AdjustInventory(ctx, productID, qty)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !modified {
		return e.Wrap(op, e.ErrProductNotFound)
	}

	return nil
}
