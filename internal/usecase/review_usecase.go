package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// ReviewUseCase допускает отзыв только после выполненного заказа с этим товаром и не более одного на пару пользователь-товар.
type ReviewUseCase struct {
	reviewRepo  ReviewRepository
	orderRepo   OrderRepository
	productRepo ProductRepository
	logger      logger.Logger
}

func NewReviewUC(reviewRepo ReviewRepository, orderRepo OrderRepository, productRepo ProductRepository, logger logger.Logger) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// CanReview — true, если у пользователя есть заказ с товаром в статусе shipped или delivered.
func (r *ReviewUseCase) CanReview(ctx context.Context, userID, productID string) (bool, error) {
	const op = "ReviewUseCase.CanReview"

	ok, err := r.orderRepo.ExistsWithProduct(ctx, userID, productID, domain.FulfilledStatuses)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return ok, nil
}

func (r *ReviewUseCase) HasReviewed(ctx context.Context, userID, productID string) (bool, error) {
	const op = "ReviewUseCase.HasReviewed"

	ok, err := r.reviewRepo.Exists(ctx, userID, productID)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return ok, nil
}

// CreateReview сохраняет отзыв без проверок оценки, комментария и права на отзыв:
// это делает SubmitReview. Повтор для той же пары отклоняется уникальным индексом (e.ErrDuplicateReview).
func (r *ReviewUseCase) CreateReview(ctx context.Context, productID, userID string, rating int, comment string) (*domain.Review, error) {
	const op = "ReviewUseCase.CreateReview"

	review, err := r.reviewRepo.Create(ctx, domain.NewReview(productID, userID, rating, comment))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return review, nil
}

// SubmitReview — полный сценарий отзыва: валидация, проверка покупки, проверка дубликата, создание.
func (r *ReviewUseCase) SubmitReview(ctx context.Context, req *SubmitReviewReq) (*domain.Review, error) {
	const op = "ReviewUseCase.SubmitReview"

	comment := strings.TrimSpace(req.Comment)
	if err := validateReview(req.Rating, comment); err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := r.productRepo.GetByID(ctx, req.ProductID); err != nil {
		return nil, e.Wrap(op, err)
	}

	allowed, err := r.CanReview(ctx, req.UserID, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !allowed {
		return nil, e.Wrap(op, e.ErrReviewNotAllowed)
	}

	reviewed, err := r.HasReviewed(ctx, req.UserID, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if reviewed {
		return nil, e.Wrap(op, e.ErrDuplicateReview)
	}

	review, err := r.CreateReview(ctx, req.ProductID, req.UserID, req.Rating, comment)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return review, nil
}

// AverageRating никогда не возвращает пустой результат: без отзывов это {0, 0}.
func (r *ReviewUseCase) AverageRating(ctx context.Context, productID string) (domain.RatingSummary, error) {
	const op = "ReviewUseCase.AverageRating"

	summary, err := r.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return domain.RatingSummary{}, e.Wrap(op, err)
	}

	return summary, nil
}

func (r *ReviewUseCase) ListProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	const op = "ReviewUseCase.ListProductReviews"

	reviews, err := r.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return reviews, nil
}

func (r *ReviewUseCase) ListReviews(ctx context.Context) ([]domain.Review, error) {
	const op = "ReviewUseCase.ListReviews"

	reviews, err := r.reviewRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return reviews, nil
}

func (r *ReviewUseCase) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	const op = "ReviewUseCase.GetReview"

	review, err := r.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return review, nil
}

func (r *ReviewUseCase) DeleteReview(ctx context.Context, id string) error {
	const op = "ReviewUseCase.DeleteReview"

	if err := r.reviewRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func validateReview(rating int, comment string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return e.ErrInvalidRating
	}

	if utf8.RuneCountInString(comment) < domain.MinCommentLength {
		return e.ErrCommentTooShort
	}

	return nil
}
