// internal/realtime/event.go
package realtime

import (
	"time"

	"helper-admin.kz/internal/backend"
)

// Event - изменение строки: Insert, Update или Delete. Других реализаций нет.
type Event interface {
	Table() string
	sealed()
}

type Insert struct {
	TableName string
	New       backend.Row
	CommitAt  time.Time
}

type Update struct {
	TableName string
	New       backend.Row
	Old       backend.Row
	CommitAt  time.Time
}

type Delete struct {
	TableName string
	Old       backend.Row
	CommitAt  time.Time
}

func (e Insert) Table() string { return e.TableName }
func (e Update) Table() string { return e.TableName }
func (e Delete) Table() string { return e.TableName }

func (Insert) sealed() {}
func (Update) sealed() {}
func (Delete) sealed() {}

// Kind - имя события в ленте изменений.
func Kind(e Event) backend.ChangeEvent {
	switch e.(type) {
	case Insert:
		return backend.EventInsert
	case Update:
		return backend.EventUpdate
	case Delete:
		return backend.EventDelete
	}
	return ""
}

// FromChange переводит изменение из ленты в событие. Неизвестный тип события отбрасывается.
func FromChange(c backend.Change) (Event, bool) {
	switch c.Event {
	case backend.EventInsert:
		return Insert{TableName: c.Table, New: c.New, CommitAt: c.CommitAt}, true
	case backend.EventUpdate:
		return Update{TableName: c.Table, New: c.New, Old: c.Old, CommitAt: c.CommitAt}, true
	case backend.EventDelete:
		return Delete{TableName: c.Table, Old: c.Old, CommitAt: c.CommitAt}, true
	}
	return nil, false
}

// Handlers - необязательные обработчики по видам событий.
type Handlers struct {
	OnInsert func(Insert)
	OnUpdate func(Update)
	OnDelete func(Delete)
}

func (h Handlers) Dispatch(e Event) {
	switch e := e.(type) {
	case Insert:
		if h.OnInsert != nil {
			h.OnInsert(e)
		}
	case Update:
		if h.OnUpdate != nil {
			h.OnUpdate(e)
		}
	case Delete:
		if h.OnDelete != nil {
			h.OnDelete(e)
		}
	}
}
