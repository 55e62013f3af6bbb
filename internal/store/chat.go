// internal/store/chat.go
package store

import (
	"context"
	"fmt"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

// chatScanLimit - сколько последних сообщений просматривается для списка комнат.
const chatScanLimit = 1000

// ListChatRooms строит список комнат по последним сообщениям, самые свежие сверху.
func (s *Store) ListChatRooms(ctx context.Context) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	msgs, err := list[models.ChatMessage](ctx, s, "chat_messages", func(q *backend.Query) *backend.Query {
		return q.Order("created_at", false).Limit(chatScanLimit)
	})
	if err != nil {
		return rooms, err
	}
	index := make(map[string]int)
	for _, m := range msgs {
		i, ok := index[m.RoomID]
		if !ok {
			i = len(rooms)
			index[m.RoomID] = i
			rooms = append(rooms, models.ChatRoom{RoomID: m.RoomID, LastMessage: m})
		}
		if !m.IsRead.Bool() && m.SenderType != models.SenderAdmin {
			rooms[i].Unread++
		}
	}
	return rooms, nil
}

func (s *Store) ListChatMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	return list[models.ChatMessage](ctx, s, "chat_messages", func(q *backend.Query) *backend.Query {
		return q.Eq("room_id", roomID).Order("created_at", true).Limit(chatScanLimit)
	})
}

// SendChatMessage отправляет сообщение от имени администратора.
func (s *Store) SendChatMessage(ctx context.Context, roomID string, adminID int64, f models.ChatMessageForm) (*models.ChatMessage, error) {
	row := backend.Row{
		"room_id":      roomID,
		"sender_type":  models.SenderAdmin,
		"sender_id":    adminID,
		"message_type": f.MessageType,
		"content":      f.Content,
		"is_read":      false,
	}
	if f.MediaURL != "" {
		row["media_url"] = f.MediaURL
	}
	if f.MessageType == models.MessageTypeLocation {
		row["latitude"] = f.Latitude
		row["longitude"] = f.Longitude
	}
	return insertOne[models.ChatMessage](ctx, s, "chat_messages", row)
}

// MarkRoomRead отмечает прочитанными входящие сообщения комнаты.
func (s *Store) MarkRoomRead(ctx context.Context, roomID string) (int, error) {
	if !s.Configured() {
		return 0, backend.ErrNotConfigured
	}
	rows, err := s.client.Table("chat_messages").
		Eq("room_id", roomID).
		Neq("sender_type", models.SenderAdmin).
		Eq("is_read", false).
		Update(ctx, backend.Row{"is_read": true})
	if err != nil {
		logFailure("chat_messages", backend.OpUpdate, err)
		return 0, fmt.Errorf("не удалось отметить комнату %s: %w", roomID, err)
	}
	return len(rows), nil
}
