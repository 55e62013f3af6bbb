// internal/models/chat.go
package models

const (
	MessageTypeText     = "text"
	MessageTypeVoice    = "voice"
	MessageTypeLocation = "location"

	SenderAdmin  = "admin"
	SenderUser   = "user"
	SenderMaster = "master"
)

// ChatMessage - сообщение колл-центра между администратором и клиентом/мастером.
type ChatMessage struct {
	ID          int64     `json:"id"`
	RoomID      string    `json:"room_id"`
	SenderType  string    `json:"sender_type"`
	SenderID    int64     `json:"sender_id"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	MediaURL    string    `json:"media_url,omitempty"`
	Latitude    Numeric   `json:"latitude,omitempty"`
	Longitude   Numeric   `json:"longitude,omitempty"`
	IsRead      Flag      `json:"is_read"`
	CreatedAt   Timestamp `json:"created_at"`
}

// ChatRoom - сводка по комнате для списка диалогов.
type ChatRoom struct {
	RoomID      string      `json:"room_id"`
	LastMessage ChatMessage `json:"last_message"`
	Unread      int         `json:"unread"`
}

type ChatMessageForm struct {
	MessageType string  `json:"message_type" validate:"required,oneof=text voice location"`
	Content     string  `json:"content" validate:"required_if=MessageType text,max=4000"`
	MediaURL    string  `json:"media_url" validate:"required_if=MessageType voice,max=1024"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
}
