package domain

import (
	"slices"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
)

// transitions — граф статусов заказа. Обратных переходов и отмены нет.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusShipped},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
}

// FulfilledStatuses — статусы, после которых покупатель может оставить отзыв.
var FulfilledStatuses = []OrderStatus{StatusShipped, StatusDelivered}

func AllStatuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := transitions[st]
	return st, ok
}

// CanTransition сообщает, допустим ли переход from -> to.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(transitions[from], to)
}

// OrderItem — замороженная на момент покупки строка заказа.
type OrderItem struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
	Subtotal  int64
}

func NewOrderItem(productID, name string, price int64, quantity int) OrderItem {
	return OrderItem{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		Subtotal:  price * int64(quantity),
	}
}

// Order — неизменяемый снимок покупки. После создания меняется только статус.
type Order struct {
	ID        string
	UserID    string
	Items     []OrderItem
	Total     int64
	Status    OrderStatus
	CreatedAt time.Time // хранится в UTC
	UpdatedAt *time.Time
}

func NewOrder(userID string, items []OrderItem, total int64, status OrderStatus, createdAt time.Time) *Order {
	return &Order{
		UserID:    userID,
		Items:     items,
		Total:     total,
		Status:    status,
		CreatedAt: createdAt.UTC(),
	}
}

// ItemsTotal — сумма подытогов строк заказа.
func ItemsTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal
	}

	return total
}
