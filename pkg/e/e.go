package e

import (
	"fmt"
	"strings"
)

var (
	// Внутренние ошибки хранилища
	ErrMalformedDocument   = fmt.Errorf("malformed document")
	ErrInternalServerError = fmt.Errorf("internal server error")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrValidation           = fmt.Errorf("validation failed")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidID            = fmt.Errorf("invalid id")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	ErrQuantityTooLarge     = fmt.Errorf("%w: quantity exceeds the per-item limit", ErrValidation)
	ErrCartLimitExceeded    = fmt.Errorf("%w: cart exceeds the total units limit", ErrValidation)
	ErrInvalidInventory     = fmt.Errorf("%w: inventory must be non-negative", ErrValidation)
	ErrProductNameRequired  = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrCategoryNameRequired = fmt.Errorf("%w: category name is required", ErrValidation)
	ErrInvalidRating        = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	ErrCommentTooShort      = fmt.Errorf("%w: comment must be at least 10 characters", ErrValidation)
	ErrInvalidOrderStatus   = fmt.Errorf("%w: unknown order status", ErrValidation)
	ErrNoOrderItems         = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrUserNameRequired     = fmt.Errorf("%w: user name is required", ErrValidation)
	ErrInvalidEmail         = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrPasswordTooShort     = fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	ErrInvalidRole          = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrInvalidCredentials   = fmt.Errorf("invalid email or password")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImages             = fmt.Errorf("no images provided")
	ErrNoProducts           = fmt.Errorf("no product ids provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 401 / 403
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrForbidden    = fmt.Errorf("forbidden")

	// 404 Not Found
	ErrNotFound         = fmt.Errorf("not found")
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)

	// 409 Conflict / бизнес-правила
	ErrEmptyCart               = fmt.Errorf("cart is empty")
	ErrInsufficientInventory   = fmt.Errorf("insufficient inventory")
	ErrDuplicateReview         = fmt.Errorf("product already reviewed by user")
	ErrReviewNotAllowed        = fmt.Errorf("product must be purchased and shipped before review")
	ErrInvalidStatusTransition = fmt.Errorf("invalid order status transition")
	ErrEmailTaken              = fmt.Errorf("email already registered")
	ErrProductInactive         = fmt.Errorf("product is not active")
	ErrProductUnavailable      = fmt.Errorf("product data is unavailable")
	ErrCategoryExists          = fmt.Errorf("category with this name already exists")
)

// Shortage описывает нехватку остатка по одной позиции корзины.
type Shortage struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientInventoryError несёт полный список позиций, которых не хватает на складе.
type InsufficientInventoryError struct {
	Shortages []Shortage
}

func NewInsufficientInventoryError(shortages []Shortage) *InsufficientInventoryError {
	return &InsufficientInventoryError{Shortages: shortages}
}

func (i *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(i.Shortages))
	for _, s := range i.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested: %d, available: %d)", s.Name, s.Requested, s.Available))
	}

	return fmt.Sprintf("%s: %s", ErrInsufficientInventory.Error(), strings.Join(parts, ", "))
}

func (i *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
