// internal/realtime/watcher.go
package realtime

import (
	"sync"

	"helper-admin.kz/internal/backend"
)

// Watcher держит не больше одной подписки. Новая подписка открывается только
// после закрытия предыдущей.
type Watcher struct {
	adapter *Adapter

	mu      sync.Mutex
	current *Subscription
}

func NewWatcher(a *Adapter) *Watcher {
	return &Watcher{adapter: a}
}

func (w *Watcher) Watch(table string, opts Options) *Subscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		w.current.Close()
	}
	w.current = w.adapter.Subscribe(table, opts)
	return w.current
}

func (w *Watcher) Current() *Subscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

// SubscribeOrders - все изменения заказов.
func (a *Adapter) SubscribeOrders(h Handlers) *Subscription {
	return a.Subscribe("orders", Options{Handlers: h})
}

// SubscribeNotifications - только новые уведомления для администраторов.
func (a *Adapter) SubscribeNotifications(onInsert func(Insert)) *Subscription {
	return a.Subscribe("notifications", Options{
		Handlers: Handlers{OnInsert: onInsert},
		Event:    backend.EventInsert,
		Filter:   "user_type=eq.admin",
	})
}

// SubscribeChat - новые сообщения одной комнаты.
func (a *Adapter) SubscribeChat(roomID string, onInsert func(Insert)) *Subscription {
	return a.Subscribe("chat_messages", Options{
		Handlers: Handlers{OnInsert: onInsert},
		Event:    backend.EventInsert,
		Filter:   "room_id=eq." + roomID,
	})
}
