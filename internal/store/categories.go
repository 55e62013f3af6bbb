// internal/store/categories.go
package store

import (
	"context"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

func (s *Store) ListCategories(ctx context.Context, p ListParams) ([]models.Category, error) {
	if p.OrderBy == "" {
		p.OrderBy, p.Ascending = "sort_order", true
	}
	return list[models.Category](ctx, s, "categories", func(q *backend.Query) *backend.Query {
		return p.apply(q, "name_ru", "")
	})
}

func categoryRow(f models.CategoryForm) backend.Row {
	row := backend.Row{
		"name_ru":    f.NameRu,
		"name_kz":    f.NameKz,
		"name_en":    f.NameEn,
		"icon":       f.Icon,
		"sort_order": f.SortOrder,
	}
	if f.IsActive != nil {
		row["is_active"] = *f.IsActive
	}
	return row
}

func (s *Store) CreateCategory(ctx context.Context, f models.CategoryForm) (*models.Category, error) {
	row := categoryRow(f)
	if _, ok := row["is_active"]; !ok {
		row["is_active"] = true
	}
	row["total_masters"] = 0
	row["active_orders"] = 0
	return insertOne[models.Category](ctx, s, "categories", row)
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, f models.CategoryForm) (*models.Category, error) {
	return updateByID[models.Category](ctx, s, "categories", id, categoryRow(f))
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return deleteByID(ctx, s, "categories", id)
}

func (s *Store) ToggleCategoryActive(ctx context.Context, id int64) (*models.Category, error) {
	c, err := getByID[models.Category](ctx, s, "categories", id)
	if err != nil {
		return nil, err
	}
	return updateByID[models.Category](ctx, s, "categories", id, backend.Row{"is_active": !c.IsActive.Bool()})
}
