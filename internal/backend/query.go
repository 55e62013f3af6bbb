// internal/backend/query.go
package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Op int

const (
	OpSelect Op = iota
	OpCount
	OpInsert
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpCount:
		return "count"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

type FilterOp string

const (
	FilterEq   FilterOp = "eq"
	FilterNeq  FilterOp = "neq"
	FilterGt   FilterOp = "gt"
	FilterGte  FilterOp = "gte"
	FilterLt   FilterOp = "lt"
	FilterLte  FilterOp = "lte"
	FilterIn   FilterOp = "in"
	FilterLike FilterOp = "ilike"
)

type Filter struct {
	Column string
	Op     FilterOp
	Value  any
	Values []any
}

// Query - построитель запроса: client.Table("orders").Select().Eq("status", "new").Order("created_at", false).Limit(10).
type Query struct {
	Op        Op
	Table     string
	Columns   []string
	Filters   []Filter
	OrderBy   string
	Ascending bool
	LimitN    int
	OffsetN   int
	Rows      []Row
	Patch     Row

	exec Executor
}

func (q *Query) Select(columns ...string) *Query {
	for _, c := range columns {
		if c == "*" {
			q.Columns = nil
			return q
		}
	}
	q.Columns = columns
	return q
}

func (q *Query) where(col string, op FilterOp, v any) *Query {
	q.Filters = append(q.Filters, Filter{Column: col, Op: op, Value: v})
	return q
}

func (q *Query) Eq(col string, v any) *Query   { return q.where(col, FilterEq, v) }
func (q *Query) Neq(col string, v any) *Query  { return q.where(col, FilterNeq, v) }
func (q *Query) Gt(col string, v any) *Query   { return q.where(col, FilterGt, v) }
func (q *Query) Gte(col string, v any) *Query  { return q.where(col, FilterGte, v) }
func (q *Query) Lt(col string, v any) *Query   { return q.where(col, FilterLt, v) }
func (q *Query) Lte(col string, v any) *Query  { return q.where(col, FilterLte, v) }
func (q *Query) ILike(col, pattern string) *Query {
	return q.where(col, FilterLike, pattern)
}

func (q *Query) In(col string, values ...any) *Query {
	q.Filters = append(q.Filters, Filter{Column: col, Op: FilterIn, Values: values})
	return q
}

func (q *Query) Order(col string, ascending bool) *Query {
	q.OrderBy = col
	q.Ascending = ascending
	return q
}

func (q *Query) Limit(n int) *Query {
	q.LimitN = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.OffsetN = n
	return q
}

// Execute выполняет выборку.
func (q *Query) Execute(ctx context.Context) ([]Row, error) {
	q.Op = OpSelect
	return q.run(ctx)
}

// Count возвращает число строк, подходящих под фильтры.
func (q *Query) Count(ctx context.Context) (int, error) {
	q.Op = OpCount
	rows, err := q.run(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int(toFloatOrZero(rows[0]["count"])), nil
}

// Insert вставляет строки и возвращает их в сохранённом виде (с id).
func (q *Query) Insert(ctx context.Context, rows ...Row) ([]Row, error) {
	q.Op = OpInsert
	q.Rows = rows
	return q.run(ctx)
}

// Update применяет patch ко всем строкам под фильтрами. Без фильтров запрос отклоняется.
func (q *Query) Update(ctx context.Context, patch Row) ([]Row, error) {
	q.Op = OpUpdate
	q.Patch = patch
	return q.run(ctx)
}

// Delete удаляет строки под фильтрами и возвращает удалённые.
func (q *Query) Delete(ctx context.Context) ([]Row, error) {
	q.Op = OpDelete
	return q.run(ctx)
}

func (q *Query) run(ctx context.Context) ([]Row, error) {
	if q.exec == nil {
		return nil, ErrNotConfigured
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q.exec.Execute(ctx, q)
}

// Validate проверяет имена и обязательные части запроса.
func (q *Query) Validate() error {
	if !ValidIdent(q.Table) {
		return fmt.Errorf("%w: таблица %q", ErrInvalidQuery, q.Table)
	}
	for _, c := range q.Columns {
		if !ValidIdent(c) {
			return fmt.Errorf("%w: колонка %q", ErrInvalidQuery, c)
		}
	}
	for _, f := range q.Filters {
		if !ValidIdent(f.Column) {
			return fmt.Errorf("%w: колонка фильтра %q", ErrInvalidQuery, f.Column)
		}
		if f.Op == FilterIn && len(f.Values) == 0 {
			return fmt.Errorf("%w: пустой список для in(%s)", ErrInvalidQuery, f.Column)
		}
	}
	if q.OrderBy != "" && !ValidIdent(q.OrderBy) {
		return fmt.Errorf("%w: сортировка %q", ErrInvalidQuery, q.OrderBy)
	}
	if q.LimitN < 0 || q.OffsetN < 0 {
		return fmt.Errorf("%w: отрицательный limit/offset", ErrInvalidQuery)
	}
	switch q.Op {
	case OpInsert:
		if len(q.Rows) == 0 {
			return fmt.Errorf("%w: нет строк для вставки", ErrInvalidQuery)
		}
		for _, r := range q.Rows {
			if err := validateRow(r); err != nil {
				return err
			}
		}
	case OpUpdate:
		if len(q.Patch) == 0 {
			return fmt.Errorf("%w: пустое обновление", ErrInvalidQuery)
		}
		if err := validateRow(q.Patch); err != nil {
			return err
		}
		if len(q.Filters) == 0 {
			return fmt.Errorf("%w: update без фильтра", ErrInvalidQuery)
		}
	case OpDelete:
		if len(q.Filters) == 0 {
			return fmt.Errorf("%w: delete без фильтра", ErrInvalidQuery)
		}
	}
	return nil
}

func validateRow(r Row) error {
	if len(r) == 0 {
		return fmt.Errorf("%w: пустая строка", ErrInvalidQuery)
	}
	for k := range r {
		if !ValidIdent(k) {
			return fmt.Errorf("%w: колонка %q", ErrInvalidQuery, k)
		}
	}
	return nil
}

// normalize приводит значение к строке для сравнения: bool -> 1/0, числа без хвостовых нулей.
func normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		switch strings.ToLower(x) {
		case "true":
			return "1"
		case "false":
			return "0"
		}
		return x
	case []byte:
		return normalize(string(x))
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(normalize(v)), 64)
	return f, err == nil
}

func toFloatOrZero(v any) float64 {
	f, _ := toFloat(v)
	return f
}

// compareValues сравнивает числа как числа, даты как даты, остальное как строки.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := normalize(a), normalize(b)
	ta, tb := parseAnyTime(sa), parseAnyTime(sb)
	if !ta.IsZero() && !tb.IsZero() {
		return ta.Compare(tb)
	}
	return strings.Compare(sa, sb)
}

func parseAnyTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Match проверяет строку на соответствие фильтру.
func (f Filter) Match(r Row) bool {
	v := r[f.Column]
	switch f.Op {
	case FilterEq:
		return compareValues(v, f.Value) == 0
	case FilterNeq:
		return compareValues(v, f.Value) != 0
	case FilterGt:
		return v != nil && compareValues(v, f.Value) > 0
	case FilterGte:
		return v != nil && compareValues(v, f.Value) >= 0
	case FilterLt:
		return v != nil && compareValues(v, f.Value) < 0
	case FilterLte:
		return v != nil && compareValues(v, f.Value) <= 0
	case FilterIn:
		for _, candidate := range f.Values {
			if compareValues(v, candidate) == 0 {
				return true
			}
		}
		return false
	case FilterLike:
		return likeMatch(normalize(v), normalize(f.Value))
	}
	return false
}

// likeMatch - ILIKE с поддержкой % по краям шаблона.
func likeMatch(value, pattern string) bool {
	value, pattern = strings.ToLower(value), strings.ToLower(pattern)
	prefix := strings.HasPrefix(pattern, "%")
	suffix := strings.HasSuffix(pattern, "%")
	core := strings.Trim(pattern, "%")
	switch {
	case prefix && suffix:
		return strings.Contains(value, core)
	case prefix:
		return strings.HasSuffix(value, core)
	case suffix:
		return strings.HasPrefix(value, core)
	}
	return value == core
}

func (q *Query) matches(r Row) bool {
	for _, f := range q.Filters {
		if !f.Match(r) {
			return false
		}
	}
	return true
}
