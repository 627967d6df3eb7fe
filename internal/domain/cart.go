package domain

import "time"

// Cart — рабочий документ корзины. Количество товара равно кратности его id в мультимножестве ProductIDs.
// Total — кэш, пересчитываемый при каждом чтении; как входные данные ему не доверяют.
type Cart struct {
	ID         string
	UserID     string
	ProductIDs []string
	Total      int64
	UpdatedAt  time.Time
}

// Ограничения корзины: кратность одного товара и общее число единиц.
const (
	MaxItemQuantity = 999
	MaxCartUnits    = 5000
)

// CartEntry — id товара и его кратность в корзине.
type CartEntry struct {
	ProductID string
	Quantity  int
}

// GroupProductIDs сворачивает мультимножество в записи с количеством в порядке первого появления.
func GroupProductIDs(ids []string) []CartEntry {
	index := make(map[string]int, len(ids))
	entries := make([]CartEntry, 0, len(ids))
	for _, id := range ids {
		if i, ok := index[id]; ok {
			entries[i].Quantity++
			continue
		}
		index[id] = len(entries)
		entries = append(entries, CartEntry{ProductID: id, Quantity: 1})
	}

	return entries
}

// CountOf возвращает кратность id в мультимножестве.
func CountOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}

	return n
}

// RemoveOne удаляет одно (последнее) вхождение id. Второе значение — false, если id отсутствует.
func RemoveOne(ids []string, id string) ([]string, bool) {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...), true
		}
	}

	return ids, false
}

// SetCount приводит кратность id к qty, сохраняя порядок остальных элементов.
// Недостающие копии добавляются в конец, лишние удаляются с конца.
func SetCount(ids []string, id string, qty int) []string {
	if qty < 0 {
		qty = 0
	}

	out := make([]string, 0, len(ids)+qty)
	kept := 0
	for _, v := range ids {
		if v == id {
			if kept >= qty {
				continue
			}
			kept++
		}
		out = append(out, v)
	}
	for ; kept < qty; kept++ {
		out = append(out, id)
	}

	return out
}

// Repeat возвращает qty копий id для добавления в мультимножество.
func Repeat(id string, qty int) []string {
	out := make([]string, qty)
	for i := range out {
		out[i] = id
	}

	return out
}
