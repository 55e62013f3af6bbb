// internal/models/category.go
package models

// Category хранит названия на трёх языках и денормализованные счётчики.
type Category struct {
	ID           int64     `json:"id"`
	NameRu       string    `json:"name_ru"`
	NameKz       string    `json:"name_kz"`
	NameEn       string    `json:"name_en"`
	Icon         string    `json:"icon"`
	IsActive     Flag      `json:"is_active"`
	SortOrder    Numeric   `json:"sort_order"`
	TotalMasters Numeric   `json:"total_masters"`
	ActiveOrders Numeric   `json:"active_orders"`
	CreatedAt    Timestamp `json:"created_at"`
}

// CategoryForm - тело запроса на создание/изменение категории.
type CategoryForm struct {
	NameRu    string `json:"name_ru" validate:"required,max=120"`
	NameKz    string `json:"name_kz" validate:"max=120"`
	NameEn    string `json:"name_en" validate:"max=120"`
	Icon      string `json:"icon" validate:"max=255"`
	IsActive  *bool  `json:"is_active"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}
