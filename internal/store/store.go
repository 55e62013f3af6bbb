// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"helper-admin.kz/internal/backend"
)

var ErrNotFound = errors.New("запись не найдена")

// Store - доступ к данным панели. Любой вызов при ошибке возвращает пустое значение и ошибку,
// без повторов; без настроенного backend ввода-вывода нет вовсе.
type Store struct {
	client backend.Client
}

// New создаёт слой доступа к данным. nil означает, что хранилище не настроено.
func New(client backend.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Configured() bool {
	return s != nil && s.client != nil
}

// Client отдаёт клиент для компонентов, которым нужен прямой доступ (статистика, realtime).
func (s *Store) Client() backend.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// ListParams - общие параметры выборки списков. Значение фильтра "" или "all" игнорируется.
type ListParams struct {
	Filters   map[string]string
	Search    string
	OrderBy   string
	Ascending bool
	Limit     int
	Offset    int
}

const maxListLimit = 1000

func (p ListParams) apply(q *backend.Query, searchColumn, defaultOrder string) *backend.Query {
	for col, v := range p.Filters {
		v = strings.TrimSpace(v)
		if v == "" || v == "all" {
			continue
		}
		q.Eq(col, v)
	}
	if search := strings.TrimSpace(p.Search); search != "" && searchColumn != "" {
		q.ILike(searchColumn, "%"+search+"%")
	}
	switch {
	case p.OrderBy != "":
		q.Order(p.OrderBy, p.Ascending)
	case defaultOrder != "":
		q.Order(defaultOrder, false)
	}
	limit := p.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q.Limit(limit)
	if p.Offset > 0 {
		q.Offset(p.Offset)
	}
	return q
}

func logFailure(table string, op backend.Op, err error) {
	slog.Error("Ошибка запроса к хранилищу", "table", table, "op", op.String(), "error", err)
}

// list выполняет выборку и декодирует строки. Результат никогда не nil.
func list[T any](ctx context.Context, s *Store, table string, build func(*backend.Query) *backend.Query) ([]T, error) {
	out := []T{}
	if !s.Configured() {
		return out, nil
	}
	q := s.client.Table(table)
	if build != nil {
		q = build(q)
	}
	rows, err := q.Execute(ctx)
	if err != nil {
		logFailure(table, backend.OpSelect, err)
		return out, fmt.Errorf("не удалось загрузить %s: %w", table, err)
	}
	items, err := backend.Decode[T](rows)
	if err != nil {
		logFailure(table, backend.OpSelect, err)
		return out, fmt.Errorf("не удалось разобрать %s: %w", table, err)
	}
	return items, nil
}

func getByID[T any](ctx context.Context, s *Store, table string, id int64) (*T, error) {
	if !s.Configured() {
		return nil, ErrNotFound
	}
	items, err := list[T](ctx, s, table, func(q *backend.Query) *backend.Query {
		return q.Eq("id", id).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// updateByID применяет patch к строке и возвращает её новое состояние.
func updateByID[T any](ctx context.Context, s *Store, table string, id int64, patch backend.Row) (*T, error) {
	if !s.Configured() {
		return nil, backend.ErrNotConfigured
	}
	rows, err := s.client.Table(table).Eq("id", id).Update(ctx, patch)
	if err != nil {
		logFailure(table, backend.OpUpdate, err)
		return nil, fmt.Errorf("не удалось обновить %s id=%d: %w", table, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	var item T
	if err := backend.DecodeRow(rows[0], &item); err != nil {
		return nil, err
	}
	slog.Info("Запись обновлена", "table", table, "id", id)
	return &item, nil
}

func insertOne[T any](ctx context.Context, s *Store, table string, row backend.Row) (*T, error) {
	if !s.Configured() {
		return nil, backend.ErrNotConfigured
	}
	rows, err := s.client.Table(table).Insert(ctx, row)
	if err != nil {
		logFailure(table, backend.OpInsert, err)
		return nil, fmt.Errorf("не удалось создать запись в %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("вставка в %s не вернула строк", table)
	}
	var item T
	if err := backend.DecodeRow(rows[0], &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func deleteByID(ctx context.Context, s *Store, table string, id int64) error {
	if !s.Configured() {
		return backend.ErrNotConfigured
	}
	rows, err := s.client.Table(table).Eq("id", id).Delete(ctx)
	if err != nil {
		logFailure(table, backend.OpDelete, err)
		return fmt.Errorf("не удалось удалить %s id=%d: %w", table, id, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	slog.Info("Запись удалена", "table", table, "id", id)
	return nil
}

func count(ctx context.Context, s *Store, table string, build func(*backend.Query) *backend.Query) (int, error) {
	if !s.Configured() {
		return 0, nil
	}
	q := s.client.Table(table)
	if build != nil {
		q = build(q)
	}
	n, err := q.Count(ctx)
	if err != nil {
		logFailure(table, backend.OpCount, err)
		return 0, fmt.Errorf("не удалось посчитать %s: %w", table, err)
	}
	return n, nil
}
