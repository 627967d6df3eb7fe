package http

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
)

// REQUESTS

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Inventory   int     `json:"inventory"`
	CategoryID  *string `json:"category_id"`
	IsActive    *bool   `json:"is_active"`
}

type updateProductRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *string `json:"price"`
	Inventory     *int    `json:"inventory"`
	CategoryID    *string `json:"category_id"`
	ClearCategory bool    `json:"clear_category"`
	IsActive      *bool   `json:"is_active"`
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type adminOrderRequest struct {
	UserID string             `json:"user_id"`
	Items  []orderLineRequest `json:"items"`
	Total  *string            `json:"total"`
	Status *string            `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// RESPONSES

type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        string          `json:"price"`
	Inventory    int             `json:"inventory"`
	IsActive     bool            `json:"is_active"`
	CategoryID   *string         `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ImageKey     string          `json:"image_key,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Rating       *RatingResponse `json:"rating,omitempty"`
}

type RatingResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// CartResponse.Unavailable перечисляет товары, которые сейчас нельзя оценить; оформление такой корзины вернёт 409.
type CartResponse struct {
	UserID      string             `json:"user_id"`
	Items       []CartLineResponse `json:"items"`
	Unavailable []string           `json:"unavailable,omitempty"`
	Total       string             `json:"total"`
}

// CartDocumentResponse — сырой документ корзины для администратора, без пересчёта.
type CartDocumentResponse struct {
	UserID     string    `json:"user_id"`
	ProductIDs []string  `json:"product_ids"`
	Total      string    `json:"total"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	UserName  string              `json:"user_name,omitempty"`
	Items     []OrderItemResponse `json:"items"`
	Total     string              `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewEligibilityResponse struct {
	CanReview   bool `json:"can_review"`
	HasReviewed bool `json:"has_reviewed"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type InventoryResponse struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
}

// MAPPERS

func toProductResponse(p *usecase.ProductView) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        formatCents(p.Price),
		Inventory:    p.Inventory,
		IsActive:     p.IsActive,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		ImageKey:     p.ImageKey,
		CreatedAt:    p.CreatedAt,
	}
}

func toArrProductResponse(views []usecase.ProductView) []ProductResponse {
	res := make([]ProductResponse, len(views))
	for i := range views {
		res[i] = toProductResponse(&views[i])
	}

	return res
}

// toProductEntityResponse — ответ на запись: названия категории у сущности нет.
func toProductEntityResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       formatCents(p.Price),
		Inventory:   p.Inventory,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		ImageKey:    p.ImageKey,
		CreatedAt:   p.CreatedAt,
	}
}

func toRatingResponse(r domain.RatingSummary) *RatingResponse {
	return &RatingResponse{Average: r.Average, Count: r.Count}
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toArrCategoryResponse(categories []domain.Category) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i := range categories {
		res[i] = toCategoryResponse(&categories[i])
	}

	return res
}

func toCartResponse(c *usecase.CartView) CartResponse {
	items := make([]CartLineResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = CartLineResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     formatCents(it.Price),
			Quantity:  it.Quantity,
			Subtotal:  formatCents(it.Subtotal),
		}
	}

	return CartResponse{UserID: c.UserID, Items: items, Unavailable: c.Unavailable, Total: formatCents(c.Total)}
}

func toArrCartDocumentResponse(carts []domain.Cart) []CartDocumentResponse {
	res := make([]CartDocumentResponse, len(carts))
	for i, c := range carts {
		ids := c.ProductIDs
		if ids == nil {
			ids = []string{}
		}
		res[i] = CartDocumentResponse{
			UserID:     c.UserID,
			ProductIDs: ids,
			Total:      formatCents(c.Total),
			UpdatedAt:  c.UpdatedAt,
		}
	}

	return res
}

func toOrderResponse(o *usecase.OrderView) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     formatCents(it.Price),
			Quantity:  it.Quantity,
			Subtotal:  formatCents(it.Subtotal),
		}
	}

	return OrderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		UserName:  o.UserName,
		Items:     items,
		Total:     formatCents(o.Total),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func toArrOrderResponse(orders []usecase.OrderView) []OrderResponse {
	res := make([]OrderResponse, len(orders))
	for i := range orders {
		res[i] = toOrderResponse(&orders[i])
	}

	return res
}

func toReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func toArrReviewResponse(reviews []domain.Review) []ReviewResponse {
	res := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		res[i] = toReviewResponse(&reviews[i])
	}

	return res
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toArrUserResponse(users []domain.User) []UserResponse {
	res := make([]UserResponse, len(users))
	for i := range users {
		res[i] = toUserResponse(&users[i])
	}

	return res
}
