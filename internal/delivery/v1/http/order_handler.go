package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderUC usecase.OrderUC
	logger  logger.Logger
}

func NewOrderHandler(orderUC usecase.OrderUC, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUC: orderUC, logger: logger}
}

// checkout
//
//	@Summary		Оформление заказа
//	@Description	Проверяет остатки по всем позициям и возвращает полный список нехваток при 409
//	@Tags			orders
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	OrderResponse
//	@Failure		409	{object}	ErrorResponse	"Пустая корзина или нехватка остатка"
//	@Router			/orders [post]
func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request) {
	const op = "http.checkout"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	orderID, err := h.orderUC.Checkout(r.Context(), userID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	h.respondOrder(w, r, op, orderID, http.StatusCreated)
}

func (h *OrderHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	const op = "http.listMyOrders"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	orders, err := h.orderUC.ListOrdersForUser(r.Context(), userID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrOrderResponse(orders))
}

// getOrder отдаёт заказ владельцу или администратору. Чужой заказ выглядит как несуществующий.
func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	const op = "http.getOrder"

	order, err := h.orderUC.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	userID, _ := CurrentUserID(r.Context())
	if order.UserID != userID && !CurrentRole(r.Context()).IsAdmin() {
		writeFailure(h.logger, w, op, e.ErrOrderNotFound)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderUC.ListAllOrders(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.listAllOrders", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrOrderResponse(orders))
}

// adminCreateOrder
//
//	@Summary		Заказ от имени пользователя
//	@Description	В обход корзины и склада. Цены и названия фиксируются по текущему каталогу
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			order	body		adminOrderRequest	true	"Позиции заказа"
//	@Success		201		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/admin/orders [post]
func (h *OrderHandler) adminCreateOrder(w http.ResponseWriter, r *http.Request) {
	const op = "http.adminCreateOrder"

	var req adminOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	ucReq, err := toAdminCreateOrderReq(&req)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	orderID, err := h.orderUC.AdminCreateOrder(r.Context(), ucReq)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	h.respondOrder(w, r, op, orderID, http.StatusCreated)
}

func (h *OrderHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	const op = "http.setOrderStatus"

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		writeFailure(h.logger, w, op, e.Wrap(req.Status, e.ErrInvalidOrderStatus))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.orderUC.SetStatus(r.Context(), id, status); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	h.respondOrder(w, r, op, id, http.StatusOK)
}

func (h *OrderHandler) orderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderUC.OrderStats(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.orderStats", err)
		return
	}

	res := make(map[string]int, len(stats))
	for _, st := range domain.AllStatuses() {
		res[string(st)] = stats[st]
	}

	WriteSuccess(w, http.StatusOK, res)
}

func (h *OrderHandler) respondOrder(w http.ResponseWriter, r *http.Request, op, orderID string, status int) {
	order, err := h.orderUC.GetOrder(r.Context(), orderID)
	if err != nil {
		// заказ уже создан: отдаём хотя бы id
		h.logger.Warnf("%s: order %s created but not readable: %v", op, orderID, err)
		WriteSuccess(w, status, IDResponse{ID: orderID})
		return
	}

	WriteSuccess(w, status, toOrderResponse(order))
}

func toAdminCreateOrderReq(req *adminOrderRequest) (*usecase.AdminCreateOrderReq, error) {
	if req.UserID == "" {
		return nil, e.Wrap("user_id", e.ErrMissingFields)
	}

	items := make([]usecase.OrderLineReq, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == "" {
			return nil, e.Wrap("items.product_id", e.ErrMissingFields)
		}
		qty, err := parseQuantity(it.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, usecase.OrderLineReq{ProductID: it.ProductID, Quantity: qty})
	}

	res := &usecase.AdminCreateOrderReq{UserID: req.UserID, Items: items}

	if req.Total != nil {
		total, err := parsePriceToCents(*req.Total)
		if err != nil {
			return nil, err
		}
		res.Total = &total
	}

	if req.Status != nil {
		status, ok := domain.ParseOrderStatus(*req.Status)
		if !ok {
			return nil, e.Wrap(*req.Status, e.ErrInvalidOrderStatus)
		}
		res.Status = &status
	}

	return res, nil
}
