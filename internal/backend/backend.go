// internal/backend/backend.go
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	// ErrNotConfigured - параметры подключения к хранилищу не заданы.
	ErrNotConfigured = errors.New("backend не настроен")
	ErrInvalidQuery  = errors.New("некорректный запрос")
	ErrDuplicate     = errors.New("нарушение уникальности")
	ErrUnknownTable  = errors.New("таблица недоступна")
)

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdent проверяет имя таблицы или колонки. В SQL попадают только такие имена.
func ValidIdent(name string) bool {
	return identRegex.MatchString(name)
}

// Row - строка таблицы в виде колонка -> значение.
type Row map[string]any

func (r Row) clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Executor выполняет построенный запрос любого вида.
type Executor interface {
	Execute(ctx context.Context, q *Query) ([]Row, error)
}

// Publisher получает изменения строк после успешной записи.
type Publisher interface {
	Publish(c Change)
}

type ChangeEvent string

const (
	EventAll    ChangeEvent = "*"
	EventInsert ChangeEvent = "INSERT"
	EventUpdate ChangeEvent = "UPDATE"
	EventDelete ChangeEvent = "DELETE"
)

// Change - одно изменение строки из ленты.
type Change struct {
	Event    ChangeEvent `json:"event"`
	Schema   string      `json:"schema"`
	Table    string      `json:"table"`
	New      Row         `json:"new,omitempty"`
	Old      Row         `json:"old,omitempty"`
	CommitAt time.Time   `json:"commit_timestamp"`
}

// ChangeSpec - параметры подписки на изменения (аналог postgres_changes).
type ChangeSpec struct {
	Event  ChangeEvent
	Schema string
	Table  string
	Filter string
}

type ChannelStatus string

const (
	StatusSubscribed   ChannelStatus = "SUBSCRIBED"
	StatusChannelError ChannelStatus = "CHANNEL_ERROR"
	StatusClosed       ChannelStatus = "CLOSED"
)

// Channel - канал ленты изменений. On регистрирует обработчики до Subscribe.
type Channel interface {
	On(spec ChangeSpec, callback func(Change)) Channel
	Subscribe(status func(ChannelStatus, error)) Channel
	Unsubscribe() error
}

type Realtime interface {
	Channel(name string) Channel
}

// Client - единая точка доступа к хранилищу: запросы и лента изменений.
type Client interface {
	Executor
	Realtime
	Table(name string) *Query
}

type client struct {
	exec Executor
	rt   Realtime
}

// New собирает клиент из исполнителя запросов и ленты изменений.
func New(exec Executor, rt Realtime) Client {
	return &client{exec: exec, rt: rt}
}

func (c *client) Execute(ctx context.Context, q *Query) ([]Row, error) {
	if c.exec == nil {
		return nil, ErrNotConfigured
	}
	return c.exec.Execute(ctx, q)
}

func (c *client) Channel(name string) Channel {
	if c.rt == nil {
		return offlineChannel{}
	}
	return c.rt.Channel(name)
}

// offlineChannel - канал без ленты изменений: подписка сразу завершается ошибкой.
type offlineChannel struct{}

func (ch offlineChannel) On(ChangeSpec, func(Change)) Channel { return ch }

func (ch offlineChannel) Subscribe(status func(ChannelStatus, error)) Channel {
	if status != nil {
		status(StatusChannelError, ErrNotConfigured)
	}
	return ch
}

func (offlineChannel) Unsubscribe() error { return nil }

func (c *client) Table(name string) *Query {
	return &Query{Table: name, exec: c.exec}
}

// Decode переводит строки в модели через JSON-теги.
func Decode[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var v T
		if err := DecodeRow(r, &v); err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodeRow(r Row, dst any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("ошибка кодирования строки: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("ошибка декодирования строки: %w", err)
	}
	return nil
}

// Encode переводит значение со структурными JSON-тегами в Row.
func Encode(v any) (Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования значения: %w", err)
	}
	var r Row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("значение не является объектом: %w", err)
	}
	return r, nil
}
