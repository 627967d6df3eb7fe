package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64 // Цена хранится в копейках
	Inventory   int
	IsActive    bool
	CategoryID  *string // слабая ссылка: категория может быть удалена
	ImageKey    string  // ключ объекта в MinIO, пустой если изображения нет
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func NewProduct(name, description string, price int64, inventory int, categoryID *string, isActive bool) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Inventory:   inventory,
		CategoryID:  categoryID,
		IsActive:    isActive,
	}
}

// HasStock — true, если на складе есть хотя бы qty единиц.
func (p *Product) HasStock(qty int) bool {
	return p.Inventory >= qty
}
