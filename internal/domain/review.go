package domain

import "time"

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
)

// Review — отзыв пользователя о товаре. На пару (UserID, ProductID) допускается один отзыв.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func NewReview(productID, userID string, rating int, comment string) *Review {
	return &Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
}

// RatingSummary — средняя оценка и число отзывов. Для товара без отзывов {0, 0}.
type RatingSummary struct {
	Average float64
	Count   int
}
