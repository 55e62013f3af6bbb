package realtime

import (
	"sync"
	"testing"

	"helper-admin.kz/internal/backend"
)

// countingRealtime оборачивает Hub и считает отписки по именам каналов.
type countingRealtime struct {
	hub *backend.Hub

	mu           sync.Mutex
	opened       []string
	unsubscribed map[string]int
	specs        []backend.ChangeSpec
}

func newCountingRealtime() *countingRealtime {
	return &countingRealtime{hub: backend.NewHub(), unsubscribed: make(map[string]int)}
}

func (c *countingRealtime) Channel(name string) backend.Channel {
	c.mu.Lock()
	c.opened = append(c.opened, name)
	c.mu.Unlock()
	return &countingChannel{Channel: c.hub.Channel(name), name: name, parent: c}
}

type countingChannel struct {
	backend.Channel
	name   string
	parent *countingRealtime
}

func (ch *countingChannel) On(spec backend.ChangeSpec, cb func(backend.Change)) backend.Channel {
	ch.parent.mu.Lock()
	ch.parent.specs = append(ch.parent.specs, spec)
	ch.parent.mu.Unlock()
	ch.Channel.On(spec, cb)
	return ch
}

func (ch *countingChannel) Subscribe(status func(backend.ChannelStatus, error)) backend.Channel {
	ch.Channel.Subscribe(status)
	return ch
}

func (ch *countingChannel) Unsubscribe() error {
	ch.parent.mu.Lock()
	ch.parent.unsubscribed[ch.name]++
	ch.parent.mu.Unlock()
	return ch.Channel.Unsubscribe()
}

func TestDispatchByEventKind(t *testing.T) {
	rt := newCountingRealtime()
	var inserts, updates, deletes int
	sub := Subscribe(rt, "orders", Options{Handlers: Handlers{
		OnInsert: func(e Insert) { inserts++ },
		OnUpdate: func(e Update) {
			updates++
			if e.Old["status"] != "new" || e.New["status"] != "accepted" {
				t.Errorf("update = %+v", e)
			}
		},
		OnDelete: func(e Delete) { deletes++ },
	}})
	defer sub.Close()

	if !sub.Subscribed() || sub.Err() != "" {
		t.Fatalf("Subscribed = %v, Err = %q", sub.Subscribed(), sub.Err())
	}

	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "orders", New: backend.Row{"id": 1}})
	rt.hub.Publish(backend.Change{Event: backend.EventUpdate, Table: "orders", New: backend.Row{"status": "accepted"}, Old: backend.Row{"status": "new"}})
	rt.hub.Publish(backend.Change{Event: backend.EventDelete, Table: "orders", Old: backend.Row{"id": 1}})
	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "payments"})

	if inserts != 1 || updates != 1 || deletes != 1 {
		t.Errorf("inserts=%d updates=%d deletes=%d", inserts, updates, deletes)
	}
}

func TestMissingHandlersAreSkipped(t *testing.T) {
	rt := newCountingRealtime()
	n := 0
	sub := Subscribe(rt, "orders", Options{Handlers: Handlers{OnDelete: func(Delete) { n++ }}})
	defer sub.Close()

	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "orders"})
	rt.hub.Publish(backend.Change{Event: backend.EventDelete, Table: "orders"})
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}

func TestCloseIsExactlyOnce(t *testing.T) {
	rt := newCountingRealtime()
	sub := Subscribe(rt, "orders", Options{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()

	if got := rt.unsubscribed[sub.Name()]; got != 1 {
		t.Errorf("Unsubscribe вызван %d раз, want 1", got)
	}
	if sub.Subscribed() {
		t.Error("после Close подписка не должна быть активной")
	}
	if rt.hub.Len() != 0 {
		t.Errorf("hub.Len() = %d", rt.hub.Len())
	}
}

func TestWatcherTearsDownPreviousBeforeNext(t *testing.T) {
	rt := newCountingRealtime()
	w := NewWatcher(NewAdapter(rt, nil))

	first := w.Watch("chat_messages", Options{Filter: "room_id=eq.r1"})
	if rt.unsubscribed[first.Name()] != 0 {
		t.Fatal("первая подписка закрыта раньше времени")
	}

	second := w.Watch("chat_messages", Options{Filter: "room_id=eq.r2"})
	if got := rt.unsubscribed[first.Name()]; got != 1 {
		t.Errorf("первая подписка отписана %d раз при смене фильтра, want 1", got)
	}
	if rt.hub.Len() != 1 {
		t.Errorf("открыто каналов %d, want 1", rt.hub.Len())
	}
	if first.Name() == second.Name() {
		t.Error("каждая подписка должна открывать свой канал")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	first.Close()
	second.Close()
	if rt.unsubscribed[first.Name()] != 1 || rt.unsubscribed[second.Name()] != 1 {
		t.Errorf("unsubscribed = %v", rt.unsubscribed)
	}
	if rt.hub.Len() != 0 {
		t.Errorf("после Close осталось каналов: %d", rt.hub.Len())
	}
}

func TestPresets(t *testing.T) {
	rt := newCountingRealtime()
	a := NewAdapter(rt, nil)

	var adminNotes, chat int
	notes := a.SubscribeNotifications(func(Insert) { adminNotes++ })
	room := a.SubscribeChat("r7", func(Insert) { chat++ })
	defer notes.Close()
	defer room.Close()

	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "notifications", New: backend.Row{"user_type": "admin"}})
	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "notifications", New: backend.Row{"user_type": "master"}})
	rt.hub.Publish(backend.Change{Event: backend.EventUpdate, Table: "notifications", New: backend.Row{"user_type": "admin"}})
	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "chat_messages", New: backend.Row{"room_id": "r7"}})
	rt.hub.Publish(backend.Change{Event: backend.EventInsert, Table: "chat_messages", New: backend.Row{"room_id": "r8"}})

	if adminNotes != 1 {
		t.Errorf("adminNotes = %d, want 1", adminNotes)
	}
	if chat != 1 {
		t.Errorf("chat = %d, want 1", chat)
	}
	if rt.specs[0].Filter != "user_type=eq.admin" || rt.specs[0].Event != backend.EventInsert {
		t.Errorf("notifications spec = %+v", rt.specs[0])
	}
	if rt.specs[1].Filter != "room_id=eq.r7" {
		t.Errorf("chat spec = %+v", rt.specs[1])
	}
}

func TestChannelErrorSurfacesWithoutRetry(t *testing.T) {
	rt := newCountingRealtime()
	sub := Subscribe(rt, "orders", Options{Filter: "status=regex.x"})

	if sub.Subscribed() {
		t.Error("подписка с ошибкой канала не должна быть активной")
	}
	if sub.Err() == "" {
		t.Error("ожидался текст ошибки канала")
	}
	if len(rt.opened) != 1 {
		t.Errorf("открыто каналов %d, повторных попыток быть не должно", len(rt.opened))
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	sub := Subscribe(nil, "orders", Options{})
	if sub.Subscribed() || sub.Err() != ErrNotConfigured.Error() {
		t.Errorf("Subscribed = %v, Err = %q", sub.Subscribed(), sub.Err())
	}
	if err := sub.Close(); err != nil {
		t.Error(err)
	}

	offline := Subscribe(backend.New(nil, nil), "orders", Options{})
	if offline.Subscribed() || offline.Err() != backend.ErrNotConfigured.Error() {
		t.Errorf("offline Err = %q", offline.Err())
	}
}
