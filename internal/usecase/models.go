package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// CATALOG

// ProductFilter — параметры выборки каталога. Пустой фильтр возвращает все товары.
type ProductFilter struct {
	CategoryID *string
	ActiveOnly bool
}

// ProductView — товар вместе с названием категории.
// Для висячей ссылки на категорию CategoryName пустой, товар при этом не теряется.
type ProductView struct {
	ID           string
	Name         string
	Description  string
	Price        int64
	Inventory    int
	IsActive     bool
	CategoryID   *string
	CategoryName string
	ImageKey     string
	CreatedAt    time.Time
}

// CreateProductReq — запрос администратора на создание товара.
type CreateProductReq struct {
	Name        string
	Description string
	Price       int64
	Inventory   int
	CategoryID  *string
	IsActive    bool
}

// UpdateProductReq — частичное обновление: nil-поля не меняются.
type UpdateProductReq struct {
	ID            string
	Name          *string
	Description   *string
	Price         *int64
	Inventory     *int
	CategoryID    *string
	ClearCategory bool
	IsActive      *bool
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// GetProductsReq запрос информации о продуктах по их идентификаторам.
type GetProductsReq struct {
	IDs []string
}

// GetProductsRes — ответ с данными запрошенных продуктов.
// Malformed — товары, которые существуют, но документ которых не удалось прочитать. В NotFoundProducts они не входят.
type GetProductsRes struct {
	Products         []ProductInfo
	NotFoundProducts []string
	Malformed        []string
}

// ProductInfoLookup — результат пакетного чтения товаров из БД.
type ProductInfoLookup struct {
	Products  []ProductInfo
	Malformed []string
}

// ProductInfo — краткая информация о товаре для расчёта корзины и внешних сервисов.
type ProductInfo struct {
	ID           string
	Name         string
	CategoryName string
	Price        int64
}

// CART

// CartLine — строка материализованной корзины по текущей цене каталога.
type CartLine struct {
	ProductID string
	Name      string
	Price     int64
	Quantity  int
	Subtotal  int64
}

// CartView — материализованная корзина. Total = Σ Quantity × Price по разрешимым товарам.
// Unavailable — товары корзины, которые сейчас нельзя оценить; в Items и Total они не входят.
type CartView struct {
	UserID      string
	Items       []CartLine
	Unavailable []string
	Total       int64
}

// ORDERS

// OrderView — заказ с датой в часовом поясе витрины и именем владельца (для администратора).
type OrderView struct {
	ID        string
	UserID    string
	UserName  string
	Items     []domain.OrderItem
	Total     int64
	Status    domain.OrderStatus
	CreatedAt time.Time
}

// OrderRecord — заказ из хранилища вместе с именем пользователя.
type OrderRecord struct {
	Order    domain.Order
	UserName string
}

// OrderLineReq — позиция заказа, создаваемого администратором.
type OrderLineReq struct {
	ProductID string
	Quantity  int
}

// AdminCreateOrderReq — заказ в обход корзины и склада. Total и Status необязательны.
type AdminCreateOrderReq struct {
	UserID string
	Items  []OrderLineReq
	Total  *int64
	Status *domain.OrderStatus
}

// OrderStats — число заказов по каждому статусу.
type OrderStats map[domain.OrderStatus]int

// REVIEWS

type SubmitReviewReq struct {
	UserID    string
	ProductID string
	Rating    int
	Comment   string
}

// USERS

type RegisterReq struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type UpdateUserReq struct {
	ID    string
	Name  *string
	Email *string
	Role  *domain.Role
}

type LoginRes struct {
	Token string
	User  *domain.User
}

// TokenClaims — то, что identity-слой извлекает из токена.
type TokenClaims struct {
	UserID string
	Role   domain.Role
}

// INFRASTUCTURE

type WriteRawMessageReq struct {
	Key       string // id агрегата: события одного заказа попадают в одну партицию
	EventType string
	Payload   []byte
}

// OUTBOX

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxProcessed  OutboxStatus = "processed"
	OutboxFailed     OutboxStatus = "failed"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent — событие, записанное в той же транзакции, что и изменение заказа, и доставляемое в Kafka воркером.
type OutboxEvent struct {
	ID            string
	EventType     string
	AggregateID   string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}

// OrderEventPayload — JSON тела событий заказа.
type OrderEventPayload struct {
	EventID    string             `json:"event_id"`
	EventType  string             `json:"event_type"`
	OrderID    string             `json:"order_id"`
	UserID     string             `json:"user_id"`
	Status     domain.OrderStatus `json:"status"`
	PrevStatus domain.OrderStatus `json:"prev_status,omitempty"`
	Total      int64              `json:"total"`
	Items      []OrderEventItem   `json:"items,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type OrderEventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// MAPPERS

func NewProductInfo(id string, name string, category string, price int64) ProductInfo {
	return ProductInfo{
		ID:           id,
		Name:         name,
		CategoryName: category,
		Price:        price,
	}
}

func NewGetProductsRes(pr []ProductInfo, notFoundProducts, malformed []string) *GetProductsRes {
	return &GetProductsRes{
		Products:         pr,
		NotFoundProducts: notFoundProducts,
		Malformed:        malformed,
	}
}

func NewGetProductsReq(ids []string) *GetProductsReq {
	return &GetProductsReq{IDs: ids}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewWriteRawMessageReq(key, eventType string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventType: eventType,
		Payload:   payload,
	}
}

func NewCartLine(info ProductInfo, qty int) CartLine {
	return CartLine{
		ProductID: info.ID,
		Name:      info.Name,
		Price:     info.Price,
		Quantity:  qty,
		Subtotal:  info.Price * int64(qty),
	}
}

func NewOrderView(o *domain.Order, userName string, loc *time.Location) *OrderView {
	if loc == nil {
		loc = time.UTC
	}

	return &OrderView{
		ID:        o.ID,
		UserID:    o.UserID,
		UserName:  userName,
		Items:     o.Items,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt.In(loc),
	}
}

func NewOutboxEvent(eventType, aggregateID string, payload []byte, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventType:     eventType,
		AggregateID:   aggregateID,
		Payload:       payload,
		Status:        OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}
