package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	reviewUC usecase.ReviewUC
	logger   logger.Logger
}

func NewReviewHandler(reviewUC usecase.ReviewUC, logger logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviewUC: reviewUC, logger: logger}
}

func (h *ReviewHandler) listProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewUC.ListProductReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, "http.listProductReviews", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrReviewResponse(reviews))
}

func (h *ReviewHandler) eligibility(w http.ResponseWriter, r *http.Request) {
	const op = "http.reviewEligibility"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}
	productID := chi.URLParam(r, "id")

	canReview, err := h.reviewUC.CanReview(r.Context(), userID, productID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	hasReviewed, err := h.reviewUC.HasReviewed(r.Context(), userID, productID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ReviewEligibilityResponse{CanReview: canReview, HasReviewed: hasReviewed})
}

// submitReview
//
//	@Summary		Отзыв о товаре
//	@Description	Только после отправленного или доставленного заказа с этим товаром, один раз
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"ID товара"
//	@Param			review	body		reviewRequest	true	"Оценка 1..5 и комментарий от 10 символов"
//	@Success		201		{object}	ReviewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/products/{id}/reviews [post]
func (h *ReviewHandler) submitReview(w http.ResponseWriter, r *http.Request) {
	const op = "http.submitReview"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	review, err := h.reviewUC.SubmitReview(r.Context(), &usecase.SubmitReviewReq{
		UserID:    userID,
		ProductID: chi.URLParam(r, "id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toReviewResponse(review))
}

func (h *ReviewHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewUC.ListReviews(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.listReviews", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrReviewResponse(reviews))
}

func (h *ReviewHandler) getReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviewUC.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, "http.getReview", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toReviewResponse(review))
}

func (h *ReviewHandler) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviewUC.DeleteReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(h.logger, w, "http.deleteReview", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
