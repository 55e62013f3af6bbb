// internal/backend/mysql.go
package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL исполняет запросы построителя на MariaDB/MySQL. Все таблицы должны иметь первичный ключ id.
type MySQL struct {
	db      *sql.DB
	pub     Publisher
	observe func(table string, op Op, took time.Duration, err error)
}

func NewMySQL(db *sql.DB, pub Publisher) *MySQL {
	return &MySQL{db: db, pub: pub}
}

// SetObserver подключает наблюдатель за длительностью запросов (метрики).
func (m *MySQL) SetObserver(f func(table string, op Op, took time.Duration, err error)) {
	m.observe = f
}

func quote(ident string) string {
	return "`" + ident + "`"
}

func (m *MySQL) Execute(ctx context.Context, q *Query) (rows []Row, err error) {
	if m.db == nil {
		return nil, ErrNotConfigured
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		if m.observe != nil {
			m.observe(q.Table, q.Op, time.Since(start), err)
		}
	}()

	var changes []Change
	switch q.Op {
	case OpSelect, OpCount:
		query, args := buildSelect(q)
		rows, err = m.query(ctx, m.db, query, args...)
	case OpInsert:
		rows, changes, err = m.insert(ctx, q)
	case OpUpdate:
		rows, changes, err = m.update(ctx, q)
	case OpDelete:
		rows, changes, err = m.delete(ctx, q)
	default:
		return nil, fmt.Errorf("%w: операция %d", ErrInvalidQuery, q.Op)
	}
	if err != nil {
		return nil, mapMySQLError(q, err)
	}
	if m.pub != nil {
		for _, c := range changes {
			m.pub.Publish(c)
		}
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func mapMySQLError(q *Query, err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%s %s: %w: %s", q.Op, q.Table, ErrDuplicate, mysqlErr.Message)
	}
	return fmt.Errorf("%s %s: %w", q.Op, q.Table, err)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (m *MySQL) query(ctx context.Context, db queryer, query string, args ...any) ([]Row, error) {
	sqlRows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer sqlRows.Close()
	return scanRows(sqlRows)
}

func scanRows(sqlRows *sql.Rows) ([]Row, error) {
	cols, err := sqlRows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for sqlRows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := sqlRows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				r[c] = string(b)
			} else {
				r[c] = values[i]
			}
		}
		out = append(out, r)
	}
	return out, sqlRows.Err()
}

func buildWhere(filters []Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var (
		parts []string
		args  []any
	)
	for _, f := range filters {
		col := quote(f.Column)
		switch f.Op {
		case FilterEq:
			if f.Value == nil {
				parts = append(parts, col+" IS NULL")
				continue
			}
			parts = append(parts, col+" = ?")
		case FilterNeq:
			if f.Value == nil {
				parts = append(parts, col+" IS NOT NULL")
				continue
			}
			parts = append(parts, col+" <> ?")
		case FilterGt:
			parts = append(parts, col+" > ?")
		case FilterGte:
			parts = append(parts, col+" >= ?")
		case FilterLt:
			parts = append(parts, col+" < ?")
		case FilterLte:
			parts = append(parts, col+" <= ?")
		case FilterLike:
			parts = append(parts, "LOWER("+col+") LIKE LOWER(?)")
		case FilterIn:
			marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Values)), ",")
			parts = append(parts, col+" IN ("+marks+")")
			for _, v := range f.Values {
				args = append(args, toArg(v))
			}
			continue
		}
		args = append(args, toArg(f.Value))
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func buildSelect(q *Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	switch {
	case q.Op == OpCount:
		b.WriteString("COUNT(*) AS `count`")
	case len(q.Columns) == 0:
		b.WriteString("*")
	default:
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = quote(c)
		}
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM " + quote(q.Table))
	where, args := buildWhere(q.Filters)
	b.WriteString(where)
	if q.Op == OpCount {
		return b.String(), args
	}
	if q.OrderBy != "" {
		dir := "DESC"
		if q.Ascending {
			dir = "ASC"
		}
		b.WriteString(" ORDER BY " + quote(q.OrderBy) + " " + dir)
	}
	if q.LimitN > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.LimitN)
		if q.OffsetN > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, q.OffsetN)
		}
	} else if q.OffsetN > 0 {
		// MySQL не допускает OFFSET без LIMIT.
		b.WriteString(" LIMIT 18446744073709551615 OFFSET ?")
		args = append(args, q.OffsetN)
	}
	return b.String(), args
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildInsert(table string, r Row) (string, []any) {
	keys := sortedKeys(r)
	cols := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quote(k)
		args[i] = toArg(r[k])
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), strings.Join(cols, ", "), marks), args
}

func buildUpdate(table string, patch Row, filters []Filter) (string, []any) {
	keys := sortedKeys(patch)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		sets[i] = quote(k) + " = ?"
		args = append(args, toArg(patch[k]))
	}
	where, whereArgs := buildWhere(filters)
	return fmt.Sprintf("UPDATE %s SET %s%s", quote(table), strings.Join(sets, ", "), where), append(args, whereArgs...)
}

// toArg приводит значения, которые драйвер не умеет передавать (срезы, карты), к JSON-строке.
func toArg(v any) any {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64, time.Time, []byte:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (m *MySQL) insert(ctx context.Context, q *Query) ([]Row, []Change, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var (
		rows    []Row
		changes []Change
	)
	for _, r := range q.Rows {
		query, args := buildInsert(q.Table, r)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, nil, err
		}
		id, ok := r["id"]
		if !ok || id == nil {
			lastID, err := res.LastInsertId()
			if err != nil {
				return nil, nil, err
			}
			id = lastID
		}
		saved, err := m.query(ctx, tx, fmt.Sprintf("SELECT * FROM %s WHERE `id` = ?", quote(q.Table)), toArg(id))
		if err != nil {
			return nil, nil, err
		}
		for _, s := range saved {
			rows = append(rows, s)
			changes = append(changes, Change{Event: EventInsert, Table: q.Table, New: s})
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return rows, changes, nil
}

func (m *MySQL) update(ctx context.Context, q *Query) ([]Row, []Change, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	where, args := buildWhere(q.Filters)
	old, err := m.query(ctx, tx, "SELECT * FROM "+quote(q.Table)+where+" FOR UPDATE", args...)
	if err != nil {
		return nil, nil, err
	}
	if len(old) == 0 {
		return nil, nil, tx.Commit()
	}
	query, updArgs := buildUpdate(q.Table, q.Patch, q.Filters)
	if _, err := tx.ExecContext(ctx, query, updArgs...); err != nil {
		return nil, nil, err
	}

	ids := make([]any, len(old))
	oldByID := make(map[string]Row, len(old))
	for i, r := range old {
		ids[i] = r["id"]
		oldByID[normalize(r["id"])] = r
	}
	newWhere, newArgs := buildWhere([]Filter{{Column: "id", Op: FilterIn, Values: ids}})
	updated, err := m.query(ctx, tx, "SELECT * FROM "+quote(q.Table)+newWhere, newArgs...)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	changes := make([]Change, 0, len(updated))
	for _, r := range updated {
		changes = append(changes, Change{Event: EventUpdate, Table: q.Table, New: r, Old: oldByID[normalize(r["id"])]})
	}
	return updated, changes, nil
}

func (m *MySQL) delete(ctx context.Context, q *Query) ([]Row, []Change, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	where, args := buildWhere(q.Filters)
	old, err := m.query(ctx, tx, "SELECT * FROM "+quote(q.Table)+where+" FOR UPDATE", args...)
	if err != nil {
		return nil, nil, err
	}
	if len(old) == 0 {
		return nil, nil, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quote(q.Table)+where, args...); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	changes := make([]Change, 0, len(old))
	for _, r := range old {
		changes = append(changes, Change{Event: EventDelete, Table: q.Table, Old: r})
	}
	slog.Debug("Удалены строки", "table", q.Table, "count", len(old))
	return old, changes, nil
}
