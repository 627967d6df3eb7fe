package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetView(ctx context.Context, id string) (*ProductView, error)
	ListViews(ctx context.Context, filter ProductFilter) ([]ProductView, error)
	GetProductsInfo(ctx context.Context, ids []string) (*ProductInfoLookup, error)
	SetImageKey(ctx context.Context, id, key string) error
}

// InventoryRepository — атомарные операции над остатком товара.
type InventoryRepository interface {
	GetInventory(ctx context.Context, productID string) (int, error)
	AdjustInventory(ctx context.Context, productID string, delta int) (bool, error)
	DecrementIfSufficient(ctx context.Context, productID string, qty int) (bool, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// CartRepository работает с документом корзины. Изменения мультимножества идут через $push/$pull,
// кроме SetItems, который перезаписывает его целиком (last-writer-wins).
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	List(ctx context.Context) ([]domain.Cart, error)
	PushItems(ctx context.Context, userID string, productIDs []string) error
	PullProducts(ctx context.Context, userID string, productIDs []string) error
	SetItems(ctx context.Context, userID string, productIDs []string) error
	SetTotal(ctx context.Context, userID string, total int64) error
	Clear(ctx context.Context, userID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (string, error)
	GetByID(ctx context.Context, id string) (*OrderRecord, error)
	ListByUser(ctx context.Context, userID string) ([]OrderRecord, error)
	ListAll(ctx context.Context) ([]OrderRecord, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	ExistsWithProduct(ctx context.Context, userID, productID string, statuses []domain.OrderStatus) (bool, error)
	CountOpenWithProduct(ctx context.Context, productID string) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (*domain.Review, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	AverageRating(ctx context.Context, productID string) (domain.RatingSummary, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	List(ctx context.Context) ([]domain.Review, error)
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

type OutboxRepository interface {
	Add(ctx context.Context, event *OutboxEvent) error
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id string) error
	MarkForRetry(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastErr string) error
	MarkAsFailed(ctx context.Context, id string, lastErr string) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []string) (map[string]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []string) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
