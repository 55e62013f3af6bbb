// internal/store/tables.go
package store

import (
	"context"
	"fmt"

	"helper-admin.kz/internal/backend"
)

// PublicTables - таблицы, доступные через функции /functions/v1. admin_users сюда не входит.
var PublicTables = map[string]bool{
	"users":         true,
	"masters":       true,
	"orders":        true,
	"payments":      true,
	"reviews":       true,
	"categories":    true,
	"notifications": true,
	"chat_messages": true,
}

// anonymousReadTables можно читать без сессии: в них нет персональных данных.
var anonymousReadTables = map[string]bool{
	"categories": true,
}

// AnonymousReadable сообщает, отдаётся ли таблица на чтение без входа в панель.
func AnonymousReadable(table string) bool {
	return anonymousReadTables[table]
}

func checkTable(table string) error {
	if !PublicTables[table] {
		return fmt.Errorf("%w: %s", backend.ErrUnknownTable, table)
	}
	return nil
}

// ListRows - выборка без привязки к модели для универсального CRUD.
func (s *Store) ListRows(ctx context.Context, table string, p ListParams) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return []backend.Row{}, err
	}
	return list[backend.Row](ctx, s, table, func(q *backend.Query) *backend.Query {
		return p.apply(q, "", "")
	})
}

func (s *Store) InsertRows(ctx context.Context, table string, rows []backend.Row) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return []backend.Row{}, err
	}
	if !s.Configured() {
		return []backend.Row{}, backend.ErrNotConfigured
	}
	out, err := s.client.Table(table).Insert(ctx, rows...)
	if err != nil {
		logFailure(table, backend.OpInsert, err)
		return []backend.Row{}, fmt.Errorf("не удалось вставить строки в %s: %w", table, err)
	}
	return nonNil(out), nil
}

// UpdateRows применяет patch к строкам, подходящим под filters (column -> значение на равенство).
func (s *Store) UpdateRows(ctx context.Context, table string, filters map[string]string, patch backend.Row) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return []backend.Row{}, err
	}
	if !s.Configured() {
		return []backend.Row{}, backend.ErrNotConfigured
	}
	q := s.client.Table(table)
	for col, v := range filters {
		q.Eq(col, v)
	}
	out, err := q.Update(ctx, patch)
	if err != nil {
		logFailure(table, backend.OpUpdate, err)
		return []backend.Row{}, fmt.Errorf("не удалось обновить %s: %w", table, err)
	}
	return nonNil(out), nil
}

func (s *Store) DeleteRows(ctx context.Context, table string, filters map[string]string) ([]backend.Row, error) {
	if err := checkTable(table); err != nil {
		return []backend.Row{}, err
	}
	if !s.Configured() {
		return []backend.Row{}, backend.ErrNotConfigured
	}
	q := s.client.Table(table)
	for col, v := range filters {
		q.Eq(col, v)
	}
	out, err := q.Delete(ctx)
	if err != nil {
		logFailure(table, backend.OpDelete, err)
		return []backend.Row{}, fmt.Errorf("не удалось удалить строки из %s: %w", table, err)
	}
	return nonNil(out), nil
}

func nonNil(rows []backend.Row) []backend.Row {
	if rows == nil {
		return []backend.Row{}
	}
	return rows
}
