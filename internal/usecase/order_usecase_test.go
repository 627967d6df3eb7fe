package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderUseCase_Checkout_EmptyCart(t *testing.T) {
	env := newEnv()
	ctx := context.Background()

	_, err := env.orders.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, e.ErrEmptyCart)

	env.store.setCart("u1", "ghost")
	_, err = env.orders.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, e.ErrEmptyCart)
}

func TestOrderUseCase_Checkout_UnreadableProductBlocksOrder(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.addProduct("bad", "Broken", 700, 5)
	env.store.markMalformed("bad")
	env.store.setCart("u1", "p", "bad")

	_, err := env.orders.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, e.ErrProductUnavailable)

	assert.Zero(t, env.store.orderCount())
	assert.Equal(t, 5, env.store.inventory("p"))
	assert.Equal(t, 5, env.store.inventory("bad"))
	assert.Equal(t, []string{"p", "bad"}, env.store.cartIDs("u1"))
}

func TestOrderUseCase_Checkout_InsufficientInventoryLeavesStateUntouched(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 1)
	env.store.addProduct("q", "Q", 500, 10)
	env.store.setCart("u1", "p", "p", "q")

	view, err := env.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), view.Total)

	_, err = env.orders.Checkout(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInsufficientInventory)

	shortages, ok := IsInsufficientInventory(err)
	require.True(t, ok)
	assert.Equal(t, []e.Shortage{{ProductID: "p", Name: "P", Requested: 2, Available: 1}}, shortages)

	assert.Equal(t, 1, env.store.inventory("p"))
	assert.Equal(t, 10, env.store.inventory("q"))
	assert.Equal(t, []string{"p", "p", "q"}, env.store.cartIDs("u1"))
	assert.Zero(t, env.store.orderCount())
	assert.Empty(t, env.store.outboxEvents())
}

func TestOrderUseCase_Checkout_ReportsEveryShortage(t *testing.T) {
	env := newEnv()
	env.store.addProduct("p", "P", 1000, 0)
	env.store.addProduct("q", "Q", 500, 1)
	env.store.setCart("u1", "p", "q", "q")

	_, err := env.orders.Checkout(context.Background(), "u1")

	shortages, ok := IsInsufficientInventory(err)
	require.True(t, ok)
	assert.Len(t, shortages, 2)
}

func TestOrderUseCase_Checkout_Success(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.setCart("u1", "p", "p")

	orderID, err := env.orders.Checkout(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	assert.Equal(t, 3, env.store.inventory("p"))
	assert.Empty(t, env.store.cartIDs("u1"))

	order, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, int64(2000), order.Total)
	assert.Equal(t, []domain.OrderItem{{ProductID: "p", Name: "P", Price: 1000, Quantity: 2, Subtotal: 2000}}, order.Items)

	events := env.store.outboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderPlaced, events[0].EventType)
	assert.Equal(t, orderID, events[0].AggregateID)

	var payload OrderEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, int64(2000), payload.Total)
	assert.Len(t, payload.Items, 1)
}

func TestOrderUseCase_Checkout_OrderIsFrozenSnapshot(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.setCart("u1", "p")

	orderID, err := env.orders.Checkout(ctx, "u1")
	require.NoError(t, err)

	newName, newPrice := "P v2", int64(9999)
	_, err = env.catalog.UpdateProduct(ctx, &UpdateProductReq{ID: "p", Name: &newName, Price: &newPrice})
	require.NoError(t, err)

	order, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "P", order.Items[0].Name)
	assert.Equal(t, int64(1000), order.Items[0].Price)
	assert.Equal(t, int64(1000), order.Total)
}

func TestOrderUseCase_Checkout_ConcurrentLastUnit(t *testing.T) {
	env := newEnv()
	env.store.addProduct("p", "P", 1000, 1)
	env.store.setCart("u1", "p")
	env.store.setCart("u2", "p")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for _, user := range []string{"u1", "u2"} {
		user := user
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orders.Checkout(context.Background(), user)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], e.ErrInsufficientInventory)
	assert.Equal(t, 0, env.store.inventory("p"))
	assert.Equal(t, 1, env.store.orderCount())
}

func TestOrderUseCase_Checkout_LostRaceRestocksDecrementedLines(t *testing.T) {
	env := newEnv()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.addProduct("q", "Q", 500, 5)
	env.store.setCart("u1", "p", "q")

	// Остаток q уходит другому покупателю между проверкой и списанием.
	env.store.onDecrement = func(s *memStore, productID string) {
		if productID == "q" {
			s.products["q"].Inventory = 0
		}
	}

	_, err := env.orders.Checkout(context.Background(), "u1")
	shortages, ok := IsInsufficientInventory(err)
	require.True(t, ok)
	assert.Equal(t, "q", shortages[0].ProductID)

	assert.Equal(t, 5, env.store.inventory("p"))
	assert.Zero(t, env.store.orderCount())
	assert.Equal(t, []string{"p", "q"}, env.store.cartIDs("u1"))
}

func TestOrderUseCase_Checkout_OutboxFailureOutsideTransactionKeepsOrder(t *testing.T) {
	env := newEnv()
	env.store.addProduct("p", "P", 1000, 5)
	env.store.setCart("u1", "p")

	orders := NewOrderUC(env.cart, env.inventory, fakeOrderRepo{s: env.store}, fakeProductRepo{env.store},
		fakeUserRepo{env.store}, fakeOutboxRepo{s: env.store, fail: errors.New("outbox down")}, inlineTx{}, time.UTC, testLogger())

	orderID, err := orders.Checkout(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, 4, env.store.inventory("p"))
	assert.Empty(t, env.store.cartIDs("u1"))
}

func TestOrderUseCase_AdminCreateOrder(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addUser("u1", "Ana")
	env.store.addProduct("p", "P", 1000, 0)
	env.store.addProduct("q", "Q", 250, 0)

	orderID, err := env.orders.AdminCreateOrder(ctx, &AdminCreateOrderReq{
		UserID: "u1",
		Items: []OrderLineReq{
			{ProductID: "p", Quantity: 2},
			{ProductID: "q", Quantity: 0},
			{ProductID: "q", Quantity: 4},
		},
	})
	require.NoError(t, err)

	order, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, int64(3000), order.Total)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "Ana", order.UserName)

	assert.Equal(t, 0, env.store.inventory("p"))
}

func TestOrderUseCase_AdminCreateOrder_Overrides(t *testing.T) {
	env := newEnv()
	env.store.addUser("u1", "Ana")
	env.store.addProduct("p", "P", 1000, 0)

	total := int64(1)
	status := domain.StatusDelivered
	orderID, err := env.orders.AdminCreateOrder(context.Background(), &AdminCreateOrderReq{
		UserID: "u1",
		Items:  []OrderLineReq{{ProductID: "p", Quantity: 1}},
		Total:  &total,
		Status: &status,
	})
	require.NoError(t, err)

	order, err := env.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.Total)
	assert.Equal(t, domain.StatusDelivered, order.Status)
}

func TestOrderUseCase_AdminCreateOrder_Rejections(t *testing.T) {
	env := newEnv()
	env.store.addUser("u1", "Ana")
	env.store.addProduct("p", "P", 1000, 0)
	bogus := domain.OrderStatus("cancelled")

	tests := []struct {
		name string
		req  *AdminCreateOrderReq
		want error
	}{
		{"unknown user", &AdminCreateOrderReq{UserID: "ghost", Items: []OrderLineReq{{ProductID: "p", Quantity: 1}}}, e.ErrUserNotFound},
		{"no positive lines", &AdminCreateOrderReq{UserID: "u1", Items: []OrderLineReq{{ProductID: "p", Quantity: 0}}}, e.ErrNoOrderItems},
		{"unknown product", &AdminCreateOrderReq{UserID: "u1", Items: []OrderLineReq{{ProductID: "x", Quantity: 1}}}, e.ErrProductNotFound},
		{"unknown status", &AdminCreateOrderReq{UserID: "u1", Items: []OrderLineReq{{ProductID: "p", Quantity: 1}}, Status: &bogus}, e.ErrInvalidOrderStatus},
		{"quantity over limit", &AdminCreateOrderReq{UserID: "u1", Items: []OrderLineReq{{ProductID: "p", Quantity: domain.MaxItemQuantity + 1}}}, e.ErrQuantityTooLarge},
		{"huge quantity", &AdminCreateOrderReq{UserID: "u1", Items: []OrderLineReq{{ProductID: "p", Quantity: math.MaxInt}}}, e.ErrQuantityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.orders.AdminCreateOrder(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, env.store.orderCount())
}

func TestOrderUseCase_SetStatus(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	orderID := env.store.addOrder("u1", domain.StatusPending, "p")

	require.NoError(t, env.orders.SetStatus(ctx, orderID, domain.StatusShipped))
	assert.ErrorIs(t, env.orders.SetStatus(ctx, orderID, domain.StatusPending), e.ErrInvalidStatusTransition)
	assert.ErrorIs(t, env.orders.SetStatus(ctx, orderID, domain.StatusShipped), e.ErrInvalidStatusTransition)
	require.NoError(t, env.orders.SetStatus(ctx, orderID, domain.StatusDelivered))
	assert.ErrorIs(t, env.orders.SetStatus(ctx, orderID, "cancelled"), e.ErrInvalidOrderStatus)
	assert.ErrorIs(t, env.orders.SetStatus(ctx, "missing", domain.StatusShipped), e.ErrOrderNotFound)

	order, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, order.Status)

	events := env.store.outboxEvents()
	require.Len(t, events, 2)
	var payload OrderEventPayload
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, EventOrderStatusChanged, payload.EventType)
	assert.Equal(t, domain.StatusShipped, payload.PrevStatus)
	assert.Equal(t, domain.StatusDelivered, payload.Status)
}

func TestOrderUseCase_ListsAndStats(t *testing.T) {
	env := newEnv()
	ctx := context.Background()
	env.store.addOrder("u1", domain.StatusPending, "p")
	env.store.addOrder("u1", domain.StatusShipped, "q")
	env.store.addOrder("u2", domain.StatusShipped, "p")

	mine, err := env.orders.ListOrdersForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := env.orders.ListAllOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := env.orders.OrderStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, OrderStats{
		domain.StatusPending:    1,
		domain.StatusProcessing: 0,
		domain.StatusShipped:    2,
		domain.StatusDelivered:  0,
	}, stats)
}

func TestOrderUseCase_CreatedAtPresentedInLocation(t *testing.T) {
	env := newEnv()
	loc := time.FixedZone("UTC-6", -6*60*60)
	orders := NewOrderUC(env.cart, env.inventory, fakeOrderRepo{s: env.store}, fakeProductRepo{env.store},
		fakeUserRepo{env.store}, fakeOutboxRepo{s: env.store}, inlineTx{}, loc, testLogger())
	orderID := env.store.addOrder("u1", domain.StatusPending, "p")

	order, err := orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, loc, order.CreatedAt.Location())
}
