// internal/backend/hub.go
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var ErrChannelClosed = errors.New("канал закрыт")

// Hub - лента изменений внутри процесса. Исполнители публикуют сюда изменения после записи,
// каналы получают их по таблице, событию и фильтру.
type Hub struct {
	mu       sync.RWMutex
	channels map[*hubChannel]struct{}
	forward  func(Change)
}

func NewHub() *Hub {
	return &Hub{channels: make(map[*hubChannel]struct{})}
}

// SetForwarder задаёт отправку локальных изменений наружу (например, в Redis).
func (h *Hub) SetForwarder(f func(Change)) {
	h.mu.Lock()
	h.forward = f
	h.mu.Unlock()
}

// Publish доставляет изменение локальным подписчикам и пересылает его дальше.
func (h *Hub) Publish(c Change) {
	if c.CommitAt.IsZero() {
		c.CommitAt = time.Now()
	}
	if c.Schema == "" {
		c.Schema = "public"
	}
	h.Dispatch(c)
	h.mu.RLock()
	forward := h.forward
	h.mu.RUnlock()
	if forward != nil {
		forward(c)
	}
}

// Dispatch доставляет изменение только локальным подписчикам.
func (h *Hub) Dispatch(c Change) {
	h.mu.RLock()
	targets := make([]*hubChannel, 0, len(h.channels))
	for ch := range h.channels {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	for _, ch := range targets {
		ch.deliver(c)
	}
}

// Len - число активных каналов.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

func (h *Hub) Channel(name string) Channel {
	return &hubChannel{hub: h, name: name}
}

type binding struct {
	spec     ChangeSpec
	filter   channelFilter
	callback func(Change)
}

type hubChannel struct {
	hub  *Hub
	name string

	mu         sync.Mutex
	bindings   []binding
	subscribed bool
	closed     bool
	status     func(ChannelStatus, error)
}

func (c *hubChannel) On(spec ChangeSpec, callback func(Change)) Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = append(c.bindings, binding{spec: spec, callback: callback})
	return c
}

func (c *hubChannel) Subscribe(status func(ChannelStatus, error)) Channel {
	if status == nil {
		status = func(ChannelStatus, error) {}
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		status(StatusChannelError, ErrChannelClosed)
		return c
	}
	for i := range c.bindings {
		f, err := parseChannelFilter(c.bindings[i].spec.Filter)
		if err != nil {
			c.mu.Unlock()
			slog.Warn("Канал не подписан: некорректный фильтр", "channel", c.name, "filter", c.bindings[i].spec.Filter, "error", err)
			status(StatusChannelError, err)
			return c
		}
		c.bindings[i].filter = f
	}
	c.status = status
	c.subscribed = true
	c.mu.Unlock()

	c.hub.mu.Lock()
	c.hub.channels[c] = struct{}{}
	c.hub.mu.Unlock()

	slog.Debug("Канал подписан", "channel", c.name)
	status(StatusSubscribed, nil)
	return c
}

func (c *hubChannel) Unsubscribe() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	wasSubscribed := c.subscribed
	c.subscribed = false
	status := c.status
	c.mu.Unlock()

	c.hub.mu.Lock()
	delete(c.hub.channels, c)
	c.hub.mu.Unlock()

	if wasSubscribed && status != nil {
		status(StatusClosed, nil)
	}
	slog.Debug("Канал отписан", "channel", c.name)
	return nil
}

func (c *hubChannel) deliver(change Change) {
	c.mu.Lock()
	if !c.subscribed {
		c.mu.Unlock()
		return
	}
	var callbacks []func(Change)
	for _, b := range c.bindings {
		if b.matches(change) {
			callbacks = append(callbacks, b.callback)
		}
	}
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(change)
	}
}

func (b binding) matches(c Change) bool {
	if b.spec.Table != "" && b.spec.Table != "*" && b.spec.Table != c.Table {
		return false
	}
	if b.spec.Schema != "" && b.spec.Schema != c.Schema {
		return false
	}
	if b.spec.Event != "" && b.spec.Event != EventAll && b.spec.Event != c.Event {
		return false
	}
	row := c.New
	if c.Event == EventDelete || row == nil {
		row = c.Old
	}
	return b.filter.match(row)
}

// channelFilter - фильтр вида "column=op.value", как в postgres_changes.
type channelFilter struct {
	filter *Filter
}

func (f channelFilter) match(r Row) bool {
	if f.filter == nil {
		return true
	}
	return f.filter.Match(r)
}

func parseChannelFilter(s string) (channelFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return channelFilter{}, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok || !ValidIdent(col) {
		return channelFilter{}, fmt.Errorf("%w: фильтр канала %q", ErrInvalidQuery, s)
	}
	op, value, ok := strings.Cut(rest, ".")
	if !ok {
		return channelFilter{}, fmt.Errorf("%w: фильтр канала %q", ErrInvalidQuery, s)
	}
	f := &Filter{Column: col, Op: FilterOp(op)}
	switch f.Op {
	case FilterEq, FilterNeq, FilterGt, FilterGte, FilterLt, FilterLte:
		f.Value = value
	case FilterIn:
		if !strings.HasPrefix(value, "(") || !strings.HasSuffix(value, ")") {
			return channelFilter{}, fmt.Errorf("%w: in ожидает (a,b): %q", ErrInvalidQuery, s)
		}
		for _, v := range strings.Split(strings.Trim(value, "()"), ",") {
			f.Values = append(f.Values, strings.TrimSpace(v))
		}
	default:
		return channelFilter{}, fmt.Errorf("%w: неизвестный оператор %q", ErrInvalidQuery, op)
	}
	return channelFilter{filter: f}, nil
}
