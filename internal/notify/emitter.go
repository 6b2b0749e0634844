// internal/notify/emitter.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings of the push gateway's Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a go-redis client from cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisEmitter publishes events on a per-user channel that the Socket.IO
// gateway subscribes to.
type RedisEmitter struct {
	client *redis.Client
	prefix string
}

// NewRedisEmitter creates a RedisEmitter publishing to "<prefix><userID>".
func NewRedisEmitter(client *redis.Client, prefix string) *RedisEmitter {
	if prefix == "" {
		prefix = "notifications:user:"
	}
	return &RedisEmitter{client: client, prefix: prefix}
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Channel returns the channel name for a user.
func (r *RedisEmitter) Channel(userID int64) string {
	return fmt.Sprintf("%s%d", r.prefix, userID)
}

// Notify publishes the event to the user's channel.
func (r *RedisEmitter) Notify(ctx context.Context, userID int64, event string, payload []byte) error {
	msg, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := r.client.Publish(ctx, r.Channel(userID), msg).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.Channel(userID), err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (r *RedisEmitter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (r *RedisEmitter) Close() error {
	return r.client.Close()
}

// LogEmitter writes events to the log. Used when no push gateway is configured.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

// Notify logs the event.
func (l *LogEmitter) Notify(_ context.Context, userID int64, event string, payload []byte) error {
	l.logger.Info("Notification", "user_id", userID, "event", event, "payload", string(payload))
	return nil
}
