// internal/backend/memory.go
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory - хранилище в памяти с той же семантикой фильтров, что и MySQL.
// Используется в тестах пакетов store, stats, auth и handlers вместо MySQL.
type Memory struct {
	mu       sync.Mutex
	tables   map[string][]Row
	nextID   map[string]int64
	failures map[string]error
	pub      Publisher
	now      func() time.Time
}

func NewMemory(pub Publisher) *Memory {
	return &Memory{
		tables:   make(map[string][]Row),
		nextID:   make(map[string]int64),
		failures: make(map[string]error),
		pub:      pub,
		now:      time.Now,
	}
}

// Seed кладёт строки в таблицу без публикации изменений.
func (m *Memory) Seed(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		r = r.clone()
		if r == nil {
			r = Row{}
		}
		m.assignID(table, r)
		m.tables[table] = append(m.tables[table], r)
	}
}

// FailTable заставляет любой запрос к таблице возвращать err. nil снимает отказ.
func (m *Memory) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, table)
		return
	}
	m.failures[table] = err
}

// Rows возвращает копию содержимого таблицы.
func (m *Memory) Rows(table string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(m.tables[table]))
	for _, r := range m.tables[table] {
		out = append(out, r.clone())
	}
	return out
}

func (m *Memory) assignID(table string, r Row) {
	if id, ok := r["id"]; ok && id != nil {
		if f, ok := toFloat(id); ok && int64(f) > m.nextID[table] {
			m.nextID[table] = int64(f)
		}
		return
	}
	m.nextID[table]++
	r["id"] = m.nextID[table]
}

func (m *Memory) Execute(ctx context.Context, q *Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if err, ok := m.failures[q.Table]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s %s: %w", q.Op, q.Table, err)
	}
	var (
		result  []Row
		changes []Change
	)
	switch q.Op {
	case OpSelect:
		result = m.selectRows(q)
	case OpCount:
		n := 0
		for _, r := range m.tables[q.Table] {
			if q.matches(r) {
				n++
			}
		}
		result = []Row{{"count": int64(n)}}
	case OpInsert:
		for _, r := range q.Rows {
			r = r.clone()
			m.assignID(q.Table, r)
			if _, ok := r["created_at"]; !ok {
				r["created_at"] = m.now().UTC()
			}
			m.tables[q.Table] = append(m.tables[q.Table], r)
			result = append(result, r.clone())
			changes = append(changes, Change{Event: EventInsert, Table: q.Table, New: r.clone()})
		}
	case OpUpdate:
		for _, r := range m.tables[q.Table] {
			if !q.matches(r) {
				continue
			}
			old := r.clone()
			for k, v := range q.Patch {
				r[k] = v
			}
			result = append(result, r.clone())
			changes = append(changes, Change{Event: EventUpdate, Table: q.Table, New: r.clone(), Old: old})
		}
	case OpDelete:
		kept := m.tables[q.Table][:0]
		for _, r := range m.tables[q.Table] {
			if q.matches(r) {
				result = append(result, r.clone())
				changes = append(changes, Change{Event: EventDelete, Table: q.Table, Old: r.clone()})
				continue
			}
			kept = append(kept, r)
		}
		m.tables[q.Table] = kept
	}
	m.mu.Unlock()

	if m.pub != nil {
		for _, c := range changes {
			m.pub.Publish(c)
		}
	}
	if result == nil {
		result = []Row{}
	}
	return result, nil
}

func (m *Memory) selectRows(q *Query) []Row {
	var rows []Row
	for _, r := range m.tables[q.Table] {
		if q.matches(r) {
			rows = append(rows, r)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			c := compareValues(rows[i][q.OrderBy], rows[j][q.OrderBy])
			if q.Ascending {
				return c < 0
			}
			return c > 0
		})
	}
	if q.OffsetN > 0 {
		if q.OffsetN >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.OffsetN:]
		}
	}
	if q.LimitN > 0 && len(rows) > q.LimitN {
		rows = rows[:q.LimitN]
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if len(q.Columns) == 0 {
			out = append(out, r.clone())
			continue
		}
		projected := make(Row, len(q.Columns))
		for _, c := range q.Columns {
			projected[c] = r[c]
		}
		out = append(out, projected)
	}
	return out
}
