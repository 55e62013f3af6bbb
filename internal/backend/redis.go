// internal/backend/redis.go
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"helper-admin.kz/internal/config"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// PingRedis проверяет соединение с Redis
func PingRedis(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

type envelope struct {
	Origin string `json:"origin"`
	Change Change `json:"change"`
}

// RedisBridge связывает ленты изменений нескольких экземпляров панели:
// локальные изменения уходят в канал Redis, чужие - раздаются локальным подписчикам.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
	hub        *Hub
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	b := &RedisBridge{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		hub:        hub,
	}
	hub.SetForwarder(b.publish)
	return b
}

func (b *RedisBridge) publish(c Change) {
	payload, err := json.Marshal(envelope{Origin: b.instanceID, Change: c})
	if err != nil {
		slog.Error("Не удалось сериализовать изменение для Redis", "table", c.Table, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		slog.Error("Не удалось опубликовать изменение в Redis", "channel", b.channel, "table", c.Table, "error", err)
	}
}

// Run слушает канал Redis до отмены контекста.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("не удалось подписаться на канал Redis '%s': %w", b.channel, err)
	}
	slog.Info("Мост изменений Redis запущен", "channel", b.channel, "instance", b.instanceID)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("Некорректное сообщение в канале изменений Redis", "error", err)
		return
	}
	if env.Origin == b.instanceID {
		return
	}
	b.hub.Dispatch(env.Change)
}
