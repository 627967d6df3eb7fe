package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const maxJSONBodySize = 1 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Shortages заполняется только для 409 при нехватке остатка.
	Shortages []e.Shortage `json:"shortages,omitempty"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// httpErrors — порядок важен: конкретные ошибки валидации проверяются раньше общей e.ErrValidation.
var httpErrors = []struct {
	err  error
	code int
}{
	{e.ErrInvalidQuantity, http.StatusBadRequest},
	{e.ErrQuantityTooLarge, http.StatusBadRequest},
	{e.ErrCartLimitExceeded, http.StatusBadRequest},
	{e.ErrInvalidInventory, http.StatusBadRequest},
	{e.ErrProductNameRequired, http.StatusBadRequest},
	{e.ErrCategoryNameRequired, http.StatusBadRequest},
	{e.ErrInvalidRating, http.StatusBadRequest},
	{e.ErrCommentTooShort, http.StatusBadRequest},
	{e.ErrInvalidOrderStatus, http.StatusBadRequest},
	{e.ErrNoOrderItems, http.StatusBadRequest},
	{e.ErrUserNameRequired, http.StatusBadRequest},
	{e.ErrInvalidEmail, http.StatusBadRequest},
	{e.ErrPasswordTooShort, http.StatusBadRequest},
	{e.ErrInvalidRole, http.StatusBadRequest},
	{e.ErrValidation, http.StatusBadRequest},
	{e.ErrStatusBadRequest, http.StatusBadRequest},
	{e.ErrMissingFields, http.StatusBadRequest},
	{e.ErrInvalidID, http.StatusBadRequest},
	{e.ErrInvalidPrice, http.StatusBadRequest},
	{e.ErrPricePrecision, http.StatusBadRequest},
	{e.ErrExpectedMultipart, http.StatusBadRequest},
	{e.ErrNoImages, http.StatusBadRequest},
	{e.ErrNoProducts, http.StatusBadRequest},
	{e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},

	{e.ErrInvalidCredentials, http.StatusUnauthorized},
	{e.ErrUnauthorized, http.StatusUnauthorized},
	{e.ErrForbidden, http.StatusForbidden},

	{e.ErrProductNotFound, http.StatusNotFound},
	{e.ErrCategoryNotFound, http.StatusNotFound},
	{e.ErrOrderNotFound, http.StatusNotFound},
	{e.ErrUserNotFound, http.StatusNotFound},
	{e.ErrReviewNotFound, http.StatusNotFound},
	{e.ErrCartItemNotFound, http.StatusNotFound},
	{e.ErrCartNotFound, http.StatusNotFound},
	{e.ErrNotFound, http.StatusNotFound},

	{e.ErrEmptyCart, http.StatusConflict},
	{e.ErrInsufficientInventory, http.StatusConflict},
	{e.ErrDuplicateReview, http.StatusConflict},
	{e.ErrReviewNotAllowed, http.StatusConflict},
	{e.ErrInvalidStatusTransition, http.StatusConflict},
	{e.ErrEmailTaken, http.StatusConflict},
	{e.ErrProductInactive, http.StatusConflict},
	{e.ErrProductUnavailable, http.StatusConflict},
	{e.ErrCategoryExists, http.StatusConflict},
}

// ToHTTPResponse возвращает код и безопасное для клиента сообщение.
// Неизвестные ошибки превращаются в 500 без деталей.
func ToHTTPResponse(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	}

	for _, he := range httpErrors {
		if errors.Is(err, he.err) {
			return he.code, he.err.Error()
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	resp := NewErrorResponse(code, msg)
	if shortages, ok := usecase.IsInsufficientInventory(err); ok {
		resp.Shortages = shortages
	}

	WriteSuccess(w, code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeFailure логирует ошибку с уровнем по коду ответа и отдаёт её клиенту.
func writeFailure(log logger.Logger, w http.ResponseWriter, op string, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%s", op)
	} else {
		log.Warnf("%d %s: %s", code, op, err.Error())
	}

	WriteError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}

// parsePriceToCents converts a string like "599.99" or "600" to int64 cents.
// Returns error if:
// - invalid format
// - more than 2 decimal places
// - negative value
// - exceeds reasonable limit (e.g. 10^9 rubles)
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.Wrap("price is empty", e.ErrMissingFields)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.IsNegative() {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(1_000_000_000)
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// formatCents печатает копейки как "19.99".
func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// parseQuantity: отсутствующее количество означает одну единицу, явное неположительное отклоняется.
func parseQuantity(q *int) (int, error) {
	if q == nil {
		return 1, nil
	}
	if err := usecase.ValidateQuantity(*q); err != nil {
		return 0, err
	}

	return *q, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

func parseImage(fh *multipart.FileHeader) (*usecase.ProductImage, error) {
	const maxFileSize = 15 << 20

	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, e.Wrap(fh.Filename, e.ErrUnsupportedMediaType)
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
