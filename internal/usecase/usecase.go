package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type CatalogUC interface {
	GetProduct(ctx context.Context, id string) (*ProductView, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductView, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadProductImage(ctx context.Context, productID string, image ProductImage) (string, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id, name, description string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CartUC interface {
	GetCart(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID, productID string, qty int) error
	IncrementItem(ctx context.Context, userID, productID string) error
	DecrementItem(ctx context.Context, userID, productID string) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
	ListCarts(ctx context.Context) ([]domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID string, qty int) error
}

type InventoryUC interface {
	HasSufficientStock(ctx context.Context, productID string, qty int) (bool, error)
	Available(ctx context.Context, productID string) (int, error)
	Decrement(ctx context.Context, productID string, qty int) (bool, error)
	DecrementIfSufficient(ctx context.Context, productID string, qty int) (bool, error)
	Restock(ctx context.Context, productID string, qty int) error
}

type OrderUC interface {
	Checkout(ctx context.Context, userID string) (string, error)
	AdminCreateOrder(ctx context.Context, req *AdminCreateOrderReq) (string, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]OrderView, error)
	GetOrder(ctx context.Context, id string) (*OrderView, error)
	ListAllOrders(ctx context.Context) ([]OrderView, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) error
	OrderStats(ctx context.Context) (OrderStats, error)
}

type ReviewUC interface {
	CanReview(ctx context.Context, userID, productID string) (bool, error)
	HasReviewed(ctx context.Context, userID, productID string) (bool, error)
	CreateReview(ctx context.Context, productID, userID string, rating int, comment string) (*domain.Review, error)
	SubmitReview(ctx context.Context, req *SubmitReviewReq) (*domain.Review, error)
	AverageRating(ctx context.Context, productID string) (domain.RatingSummary, error)
	ListProductReviews(ctx context.Context, productID string) ([]domain.Review, error)
	ListReviews(ctx context.Context) ([]domain.Review, error)
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

type UserUC interface {
	Register(ctx context.Context, req *RegisterReq) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginRes, error)
	Authenticate(ctx context.Context, token string) (*TokenClaims, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, req *UpdateUserReq) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
