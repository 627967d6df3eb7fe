package http

import (
	"context"
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// cartOwner определяет, чья корзина обрабатывается: своя у покупателя или из пути у администратора.
type cartOwner func(r *http.Request) (string, error)

func currentUser(r *http.Request) (string, error) {
	id, ok := CurrentUserID(r.Context())
	if !ok {
		return "", e.ErrUnauthorized
	}
	return id, nil
}

func pathUser(r *http.Request) (string, error) {
	id := chi.URLParam(r, "userID")
	if id == "" {
		return "", e.ErrMissingFields
	}
	return id, nil
}

type CartHandler struct {
	cartUC usecase.CartUC
	logger logger.Logger
}

func NewCartHandler(cartUC usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUC: cartUC, logger: logger}
}

// getCart
//
//	@Summary		Корзина
//	@Description	Позиции по текущим ценам. Удалённые товары выпадают и вычищаются из корзины, нечитаемые перечислены в unavailable
//	@Tags			cart
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	CartResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/cart [get]
func (h *CartHandler) getCart(owner cartOwner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "http.getCart"

		userID, err := owner(r)
		if err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}

		cart, err := h.cartUC.GetCart(r.Context(), userID)
		if err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}

		WriteSuccess(w, http.StatusOK, toCartResponse(cart))
	}
}

// addItem
//
//	@Summary		Добавление в корзину
//	@Description	quantity по умолчанию 1; допустимо от 1 до 999 единиц товара, в корзине не больше 5000 единиц
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			item	body		addCartItemRequest	true	"Товар и количество"
//	@Success		200		{object}	CartResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/cart/items [post]
func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	const op = "http.addItem"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	var req addCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}
	if req.ProductID == "" {
		writeFailure(h.logger, w, op, e.Wrap("product_id", e.ErrMissingFields))
		return
	}

	qty, err := parseQuantity(req.Quantity)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	if err := h.cartUC.AddItem(r.Context(), userID, req.ProductID, qty); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	h.respondCart(w, r, op, userID)
}

func (h *CartHandler) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "http.incrementItem", currentUser, h.cartUC.IncrementItem)
}

func (h *CartHandler) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "http.decrementItem", currentUser, h.cartUC.DecrementItem)
}

func (h *CartHandler) removeItem(owner cartOwner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mutate(w, r, "http.removeItem", owner, h.cartUC.RemoveItem)
	}
}

func (h *CartHandler) setItemQuantity(owner cartOwner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "http.setItemQuantity"

		var req quantityRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}
		if req.Quantity == nil {
			writeFailure(h.logger, w, op, e.ErrInvalidQuantity)
			return
		}
		if *req.Quantity != 0 {
			if err := usecase.ValidateQuantity(*req.Quantity); err != nil {
				writeFailure(h.logger, w, op, err)
				return
			}
		}

		qty := *req.Quantity
		h.mutate(w, r, op, owner, func(ctx context.Context, userID, productID string) error {
			return h.cartUC.SetItemQuantity(ctx, userID, productID, qty)
		})
	}
}

// mutate выполняет изменение позиции {productID} и отвечает пересчитанной корзиной.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op string, owner cartOwner, fn func(ctx context.Context, userID, productID string) error) {
	userID, err := owner(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	if err := fn(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	h.respondCart(w, r, op, userID)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, op, userID string) {
	cart, err := h.cartUC.GetCart(r.Context(), userID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) clear(owner cartOwner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "http.clearCart"

		userID, err := owner(r)
		if err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}

		if err := h.cartUC.Clear(r.Context(), userID); err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *CartHandler) listCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.cartUC.ListCarts(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.listCarts", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrCartDocumentResponse(carts))
}
