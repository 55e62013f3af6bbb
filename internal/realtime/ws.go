// internal/realtime/ws.go
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"helper-admin.kz/internal/backend"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Message - событие, отправляемое клиенту websocket.
type Message struct {
	Type       string      `json:"type"`
	Table      string      `json:"table,omitempty"`
	New        backend.Row `json:"new,omitempty"`
	Old        backend.Row `json:"old,omitempty"`
	CommitAt   *time.Time  `json:"commit_timestamp,omitempty"`
	Subscribed bool        `json:"subscribed,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func messageFor(e Event) Message {
	m := Message{Type: string(Kind(e)), Table: e.Table()}
	var at time.Time
	switch e := e.(type) {
	case Insert:
		m.New, at = e.New, e.CommitAt
	case Update:
		m.New, m.Old, at = e.New, e.Old, e.CommitAt
	case Delete:
		m.Old, at = e.Old, e.CommitAt
	}
	if !at.IsZero() {
		m.CommitAt = &at
	}
	return m
}

// Bridge отдаёт изменения таблиц по websocket: одна подписка на соединение,
// закрывается при разрыве соединения.
type Bridge struct {
	adapter  *Adapter
	tables   map[string]bool
	upgrader websocket.Upgrader
}

func NewBridge(a *Adapter, tables map[string]bool, checkOrigin func(r *http.Request) bool) *Bridge {
	return &Bridge{
		adapter: a,
		tables:  tables,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP: /api/realtime?table=orders&filter=status=eq.new&event=INSERT
// или /api/realtime?table=chat_messages&room=<id>.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	table := query.Get("table")
	if !b.tables[table] {
		http.Error(w, "Таблица недоступна для подписки", http.StatusBadRequest)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Не удалось установить websocket-соединение", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	send := make(chan Message, sendBuffer)
	enqueue := func(m Message) {
		select {
		case send <- m:
		default:
			slog.Warn("Очередь websocket переполнена, событие пропущено", "table", table, "type", m.Type)
		}
	}
	forward := func(e Event) { enqueue(messageFor(e)) }

	var sub *Subscription
	switch room := query.Get("room"); {
	case table == "chat_messages" && room != "":
		sub = b.adapter.SubscribeChat(room, func(e Insert) { forward(e) })
	default:
		sub = b.adapter.Subscribe(table, Options{
			Filter: query.Get("filter"),
			Event:  backend.ChangeEvent(query.Get("event")),
			Handlers: Handlers{
				OnInsert: func(e Insert) { forward(e) },
				OnUpdate: func(e Update) { forward(e) },
				OnDelete: func(e Delete) { forward(e) },
			},
		})
	}
	defer sub.Close()

	slog.Info("Клиент realtime подключён", "table", table, "channel", sub.Name(), "remote_addr", r.RemoteAddr)
	enqueue(Message{Type: "status", Table: table, Subscribed: sub.Subscribed(), Error: sub.Err()})

	done := make(chan struct{})
	go b.writeLoop(conn, send, done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket закрыт с ошибкой", "channel", sub.Name(), "error", err)
			}
			break
		}
	}
	close(done)
	slog.Info("Клиент realtime отключён", "channel", sub.Name())
}

func (b *Bridge) writeLoop(conn *websocket.Conn, send <-chan Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case m := <-send:
			data, err := json.Marshal(m)
			if err != nil {
				slog.Error("Не удалось сериализовать событие realtime", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
