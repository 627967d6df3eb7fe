package converter

// ProductInfoRedisModel хранится хешем product:<id>. Цена в копейках.
type ProductInfoRedisModel struct {
	ID           string `redis:"id"`
	Name         string `redis:"name"`
	CategoryName string `redis:"category_name"`
	Price        int64  `redis:"price"`
}

// Fields раскладывает модель в пары поле-значение для HSET.
func (m *ProductInfoRedisModel) Fields() []any {
	return []any{
		"id", m.ID,
		"name", m.Name,
		"category_name", m.CategoryName,
		"price", m.Price,
	}
}
