// internal/realtime/subscription.go
package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/metrics"
)

var ErrNotConfigured = errors.New("realtime не настроен")

type Options struct {
	Handlers Handlers
	// Filter в синтаксисе postgres_changes: "user_type=eq.admin", "room_id=in.(a,b)".
	Filter string
	// Event ограничивает вид событий; пусто - все.
	Event  backend.ChangeEvent
	Schema string
}

// Adapter открывает подписки на изменения таблиц поверх каналов backend.
type Adapter struct {
	rt      backend.Realtime
	metrics *metrics.Metrics
}

func NewAdapter(rt backend.Realtime, m *metrics.Metrics) *Adapter {
	return &Adapter{rt: rt, metrics: m}
}

// Subscribe - подписка без метрик.
func Subscribe(rt backend.Realtime, table string, opts Options) *Subscription {
	return NewAdapter(rt, nil).Subscribe(table, opts)
}

// Subscription - одна открытая подписка. Close отписывает канал ровно один раз.
type Subscription struct {
	table   string
	name    string
	channel backend.Channel
	metrics *metrics.Metrics

	mu         sync.Mutex
	subscribed bool
	counted    bool
	err        string

	closeOnce sync.Once
	closeErr  error
}

// Subscribe открывает канал realtime:<table>:<uuid> с одним обработчиком изменений.
// Ошибка канала попадает в Err(); повторной подписки нет.
func (a *Adapter) Subscribe(table string, opts Options) *Subscription {
	s := &Subscription{
		table:   table,
		name:    fmt.Sprintf("realtime:%s:%s", table, uuid.NewString()),
		metrics: a.metrics,
	}
	if a.rt == nil {
		s.err = ErrNotConfigured.Error()
		return s
	}
	event := opts.Event
	if event == "" {
		event = backend.EventAll
	}
	schema := opts.Schema
	if schema == "" {
		schema = "public"
	}
	handlers := opts.Handlers
	s.channel = a.rt.Channel(s.name).On(backend.ChangeSpec{
		Event:  event,
		Schema: schema,
		Table:  table,
		Filter: opts.Filter,
	}, func(c backend.Change) {
		ev, ok := FromChange(c)
		if !ok {
			return
		}
		s.metrics.EventDelivered(table, string(Kind(ev)))
		handlers.Dispatch(ev)
	})
	s.channel.Subscribe(s.onStatus)
	return s
}

func (s *Subscription) onStatus(status backend.ChannelStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch status {
	case backend.StatusSubscribed:
		s.subscribed = true
		s.err = ""
		if !s.counted {
			s.counted = true
			s.metrics.SubscriptionOpened(s.table)
		}
	case backend.StatusChannelError:
		s.subscribed = false
		s.err = string(backend.StatusChannelError)
		if err != nil {
			s.err = err.Error()
		}
		s.metrics.SubscriptionFailed(s.table)
		s.release()
		slog.Warn("Ошибка канала realtime", "channel", s.name, "error", s.err)
	case backend.StatusClosed:
		s.subscribed = false
		s.release()
	}
}

// release снимает подписку с учёта метрик. Вызывается под s.mu.
func (s *Subscription) release() {
	if s.counted {
		s.counted = false
		s.metrics.SubscriptionClosed(s.table)
	}
}

func (s *Subscription) Table() string { return s.table }

func (s *Subscription) Name() string { return s.name }

func (s *Subscription) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// Err - текст ошибки канала или пустая строка.
func (s *Subscription) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close отписывает канал. Повторные вызовы ничего не делают.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		if s.channel != nil {
			s.closeErr = s.channel.Unsubscribe()
		}
		s.mu.Lock()
		s.subscribed = false
		s.release()
		s.mu.Unlock()
		slog.Debug("Подписка закрыта", "channel", s.name)
	})
	return s.closeErr
}
