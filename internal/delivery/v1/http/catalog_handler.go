package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalogUC   usecase.CatalogUC
	reviewUC    usecase.ReviewUC
	inventoryUC usecase.InventoryUC
	logger      logger.Logger
}

func NewCatalogHandler(catalogUC usecase.CatalogUC, reviewUC usecase.ReviewUC, inventoryUC usecase.InventoryUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC, reviewUC: reviewUC, inventoryUC: inventoryUC, logger: logger}
}

// listProducts
//
//	@Summary		Витрина товаров
//	@Description	Активные товары с названием категории, опционально по категории
//	@Tags			products
//	@Produce		json
//	@Param			category_id	query		string	false	"ID категории"
//	@Success		200			{array}		ProductResponse
//	@Failure		400			{object}	ErrorResponse
//	@Router			/products [get]
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, "http.listProducts", true)
}

func (h *CatalogHandler) adminListProducts(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, "http.adminListProducts", false)
}

func (h *CatalogHandler) writeProducts(w http.ResponseWriter, r *http.Request, op string, activeOnly bool) {
	filter := usecase.ProductFilter{ActiveOnly: activeOnly}
	if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}

	products, err := h.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrProductResponse(products))
}

// getProduct
//
//	@Summary		Карточка товара
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string	true	"ID товара"
//	@Success		200	{object}	ProductResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [get]
func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	const op = "http.getProduct"

	product, err := h.catalogUC.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}
	if !product.IsActive {
		writeFailure(h.logger, w, op, e.ErrProductNotFound)
		return
	}

	resp := toProductResponse(product)
	if rating, err := h.reviewUC.AverageRating(r.Context(), product.ID); err != nil {
		h.logger.Warnf("%s: rating for %s unavailable: %v", op, product.ID, err)
	} else {
		resp.Rating = toRatingResponse(rating)
	}

	WriteSuccess(w, http.StatusOK, resp)
}

func (h *CatalogHandler) adminGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, "http.adminGetProduct", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// createProduct
//
//	@Summary		Создание товара
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			product	body		createProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/admin/products [post]
func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	const op = "http.createProduct"

	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	price, err := parsePriceToCents(req.Price)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product, err := h.catalogUC.CreateProduct(r.Context(), &usecase.CreateProductReq{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Inventory:   req.Inventory,
		CategoryID:  req.CategoryID,
		IsActive:    isActive,
	})
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductEntityResponse(product))
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "http.updateProduct"

	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	upd := &usecase.UpdateProductReq{
		ID:            chi.URLParam(r, "id"),
		Name:          req.Name,
		Description:   req.Description,
		Inventory:     req.Inventory,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		IsActive:      req.IsActive,
	}
	if req.Price != nil {
		price, err := parsePriceToCents(*req.Price)
		if err != nil {
			writeFailure(h.logger, w, op, err)
			return
		}
		upd.Price = &price
	}

	product, err := h.catalogUC.UpdateProduct(r.Context(), upd)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductEntityResponse(product))
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(h.logger, w, "http.deleteProduct", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadProductImage
//
//	@Summary		Загрузка изображения товара
//	@Description	Заменяет изображение товара, старый объект удаляется из хранилища
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string	true	"ID товара"
//	@Param			image	formData	file	true	"Изображение"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/admin/products/{id}/image [post]
func (h *CatalogHandler) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	const (
		op                  = "http.uploadProductImage"
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		writeFailure(h.logger, w, op, e.ErrNoImages)
		return
	}

	image, err := parseImage(files[0])
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	key, err := h.catalogUC.UploadProductImage(r.Context(), chi.URLParam(r, "id"), *image)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"image_key": key})
}

func (h *CatalogHandler) getInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	available, err := h.inventoryUC.Available(r.Context(), id)
	if err != nil {
		writeFailure(h.logger, w, "http.getInventory", err)
		return
	}

	WriteSuccess(w, http.StatusOK, InventoryResponse{ProductID: id, Available: available})
}

func (h *CatalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	const op = "http.restock"

	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}
	if req.Quantity == nil {
		writeFailure(h.logger, w, op, e.ErrInvalidQuantity)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.inventoryUC.Restock(r.Context(), id, *req.Quantity); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	available, err := h.inventoryUC.Available(r.Context(), id)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, InventoryResponse{ProductID: id, Available: available})
}

// CATEGORIES

// listCategories
//
//	@Summary	Список категорий
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}	CategoryResponse
//	@Router		/categories [get]
func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUC.ListCategories(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.listCategories", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrCategoryResponse(categories))
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalogUC.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, "http.getCategory", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponse(category))
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	const op = "http.createCategory"

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	category, err := h.catalogUC.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	const op = "http.updateCategory"

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	category, err := h.catalogUC.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponse(category))
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogUC.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(h.logger, w, "http.deleteCategory", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
