package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/google/uuid"
)

// OrderUseCase превращает корзину в неизменяемый снимок заказа и ведёт его статус.
type OrderUseCase struct {
	cartUC      CartUC
	inventoryUC InventoryUC
	orderRepo   OrderRepository
	productRepo ProductRepository
	userRepo    UserRepository
	outboxRepo  OutboxRepository
	txManager   TxManager
	location    *time.Location
	now         func() time.Time
	logger      logger.Logger
}

func NewOrderUC(
	cartUC CartUC,
	inventoryUC InventoryUC,
	orderRepo OrderRepository,
	productRepo ProductRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	txManager TxManager,
	location *time.Location,
	logger logger.Logger,
) *OrderUseCase {
	if location == nil {
		location = time.UTC
	}

	return &OrderUseCase{
		cartUC:      cartUC,
		inventoryUC: inventoryUC,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		location:    location,
		now:         time.Now,
		logger:      logger,
	}
}

// Checkout оформляет заказ из корзины пользователя.
//
// Сначала проверяются все строки и собирается полный список нехваток, ничего не меняя.
// Затем в одной транзакции каждая строка списывается условным обновлением, создаётся заказ
// и событие outbox, корзина очищается. Если списание проиграло гонку, уже списанные строки возвращаются на склад.
// Корзина с нечитаемым товаром не оформляется: его нельзя ни оценить, ни списать.
func (o *OrderUseCase) Checkout(ctx context.Context, userID string) (string, error) {
	const op = "OrderUseCase.Checkout"

	cart, err := o.cartUC.GetCart(ctx, userID)
	if err != nil {
		return "", e.Wrap(op, err)
	}
	if len(cart.Unavailable) > 0 {
		return "", e.Wrap(op, fmt.Errorf("%w: %s", e.ErrProductUnavailable, strings.Join(cart.Unavailable, ", ")))
	}
	if len(cart.Items) == 0 {
		return "", e.Wrap(op, e.ErrEmptyCart)
	}

	shortages, err := o.collectShortages(ctx, cart.Items)
	if err != nil {
		return "", e.Wrap(op, err)
	}
	if len(shortages) > 0 {
		return "", e.Wrap(op, e.NewInsufficientInventoryError(shortages))
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, domain.NewOrderItem(line.ProductID, line.Name, line.Price, line.Quantity))
	}

	var orderID string
	err = o.txManager.Do(ctx, func(ctx context.Context) error {
		if err := o.reserve(ctx, cart.Items); err != nil {
			return err
		}

		order := domain.NewOrder(userID, items, domain.ItemsTotal(items), domain.StatusPending, o.now())
		id, err := o.orderRepo.Create(ctx, order)
		if err != nil {
			o.release(ctx, cart.Items)
			return err
		}
		order.ID = id
		orderID = id

		if err := o.afterOrderPersisted(ctx, o.addEvent(ctx, EventOrderPlaced, order, "")); err != nil {
			return err
		}

		return o.afterOrderPersisted(ctx, o.cartUC.Clear(ctx, userID))
	})
	if err != nil {
		return "", e.Wrap(op, err)
	}

	o.logger.Infof("Order %s placed by user %s", orderID, userID)
	return orderID, nil
}

// AdminCreateOrder создаёт заказ в обход корзины и склада. Название и цена товаров фиксируются один раз.
func (o *OrderUseCase) AdminCreateOrder(ctx context.Context, req *AdminCreateOrderReq) (string, error) {
	const op = "OrderUseCase.AdminCreateOrder"

	if _, err := o.userRepo.GetByID(ctx, req.UserID); err != nil {
		return "", e.Wrap(op, err)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			continue
		}
		if line.Quantity > domain.MaxItemQuantity {
			return "", e.Wrap(op, e.ErrQuantityTooLarge)
		}

		product, err := o.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return "", e.Wrap(op, err)
		}
		items = append(items, domain.NewOrderItem(product.ID, product.Name, product.Price, line.Quantity))
	}
	if len(items) == 0 {
		return "", e.Wrap(op, e.ErrNoOrderItems)
	}

	total := domain.ItemsTotal(items)
	if req.Total != nil {
		if *req.Total < 0 {
			return "", e.Wrap(op, e.ErrInvalidPrice)
		}
		total = *req.Total
	}

	status := domain.StatusPending
	if req.Status != nil {
		if _, ok := domain.ParseOrderStatus(string(*req.Status)); !ok {
			return "", e.Wrap(op, e.ErrInvalidOrderStatus)
		}
		status = *req.Status
	}

	var orderID string
	err := o.txManager.Do(ctx, func(ctx context.Context) error {
		order := domain.NewOrder(req.UserID, items, total, status, o.now())
		id, err := o.orderRepo.Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		orderID = id

		return o.afterOrderPersisted(ctx, o.addEvent(ctx, EventOrderPlaced, order, ""))
	})
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return orderID, nil
}

func (o *OrderUseCase) ListOrdersForUser(ctx context.Context, userID string) ([]OrderView, error) {
	const op = "OrderUseCase.ListOrdersForUser"

	records, err := o.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return o.toViews(records), nil
}

func (o *OrderUseCase) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	const op = "OrderUseCase.GetOrder"

	record, err := o.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewOrderView(&record.Order, record.UserName, o.location), nil
}

func (o *OrderUseCase) ListAllOrders(ctx context.Context) ([]OrderView, error) {
	const op = "OrderUseCase.ListAllOrders"

	records, err := o.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return o.toViews(records), nil
}

// SetStatus переводит заказ в новый статус по графу переходов.
// Обновление условно по текущему статусу, поэтому параллельная смена статуса даёт e.ErrInvalidStatusTransition.
func (o *OrderUseCase) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const op = "OrderUseCase.SetStatus"

	if _, ok := domain.ParseOrderStatus(string(status)); !ok {
		return e.Wrap(op, e.ErrInvalidOrderStatus)
	}

	return o.txManager.Do(ctx, func(ctx context.Context) error {
		record, err := o.orderRepo.GetByID(ctx, id)
		if err != nil {
			return e.Wrap(op, err)
		}

		prev := record.Order.Status
		if !domain.CanTransition(prev, status) {
			return e.Wrap(op, e.ErrInvalidStatusTransition)
		}

		updated, err := o.orderRepo.UpdateStatus(ctx, id, prev, status)
		if err != nil {
			return e.Wrap(op, err)
		}
		if !updated {
			return e.Wrap(op, e.ErrInvalidStatusTransition)
		}

		record.Order.Status = status
		return o.afterOrderPersisted(ctx, o.addEvent(ctx, EventOrderStatusChanged, &record.Order, prev))
	})
}

// OrderStats возвращает число заказов по каждому статусу, включая нулевые.
func (o *OrderUseCase) OrderStats(ctx context.Context) (OrderStats, error) {
	const op = "OrderUseCase.OrderStats"

	counts, err := o.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stats := make(OrderStats, len(domain.AllStatuses()))
	for _, s := range domain.AllStatuses() {
		stats[s] = counts[s]
	}

	return stats, nil
}

// collectShortages проверяет все строки, не останавливаясь на первой нехватке.
func (o *OrderUseCase) collectShortages(ctx context.Context, lines []CartLine) ([]e.Shortage, error) {
	var shortages []e.Shortage
	for _, line := range lines {
		ok, err := o.inventoryUC.HasSufficientStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}

		available, err := o.inventoryUC.Available(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		shortages = append(shortages, e.Shortage{
			ProductID: line.ProductID,
			Name:      line.Name,
			Requested: line.Quantity,
			Available: available,
		})
	}

	return shortages, nil
}

// reserve списывает строки по одной. При отказе возвращает на склад уже списанное.
func (o *OrderUseCase) reserve(ctx context.Context, lines []CartLine) error {
	for i, line := range lines {
		ok, err := o.inventoryUC.DecrementIfSufficient(ctx, line.ProductID, line.Quantity)
		if err == nil && ok {
			continue
		}

		o.release(ctx, lines[:i])
		if err != nil {
			return err
		}

		available, err := o.inventoryUC.Available(ctx, line.ProductID)
		if err != nil {
			return err
		}
		return e.NewInsufficientInventoryError([]e.Shortage{{
			ProductID: line.ProductID,
			Name:      line.Name,
			Requested: line.Quantity,
			Available: available,
		}})
	}

	return nil
}

func (o *OrderUseCase) release(ctx context.Context, lines []CartLine) {
	for _, line := range lines {
		if err := o.inventoryUC.Restock(ctx, line.ProductID, line.Quantity); err != nil {
			o.logger.Errorf(err, "failed to restock %d unit(s) of product %s", line.Quantity, line.ProductID)
		}
	}
}

// afterOrderPersisted решает судьбу ошибки шага после записи заказа.
// В транзакции ошибка откатывает всё. Без транзакции заказ уже сохранён и склад списан,
// поэтому ошибка только логируется.
func (o *OrderUseCase) afterOrderPersisted(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if tr.InTransaction(ctx) {
		return err
	}

	o.logger.Errorf(err, "post-order step failed outside transaction")
	return nil
}

func (o *OrderUseCase) addEvent(ctx context.Context, eventType string, order *domain.Order, prev domain.OrderStatus) error {
	payload := OrderEventPayload{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		PrevStatus: prev,
		Total:      order.Total,
		OccurredAt: o.now().UTC(),
	}
	if eventType == EventOrderPlaced {
		for _, it := range order.Items {
			payload.Items = append(payload.Items, OrderEventItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return o.outboxRepo.Add(ctx, NewOutboxEvent(eventType, order.ID, data, o.now().UTC()))
}

func (o *OrderUseCase) toViews(records []OrderRecord) []OrderView {
	views := make([]OrderView, 0, len(records))
	for i := range records {
		views = append(views, *NewOrderView(&records[i].Order, records[i].UserName, o.location))
	}

	return views
}

// IsInsufficientInventory извлекает список нехваток из ошибки оформления.
func IsInsufficientInventory(err error) ([]e.Shortage, bool) {
	var inv *e.InsufficientInventoryError
	if errors.As(err, &inv) {
		return inv.Shortages, true
	}

	return nil, false
}
