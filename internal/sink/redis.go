package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
)

// Stream field names.
const (
	fieldRange     = "range"
	fieldLocation  = "location"
	fieldSource    = "source"
	fieldEmittedAt = "emitted_at"
)

// Streamer is the part of a redis client the stream store uses.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Redis appends events to a stream. Entry IDs are assigned by the server.
type Redis struct {
	client Streamer
	closer func() error
	stream string
	maxLen int64
}

// NewRedis appends to stream through client. maxLen <= 0 disables trimming.
func NewRedis(client Streamer, stream string, maxLen int64) *Redis {
	return &Redis{client: client, stream: stream, maxLen: maxLen}
}

// ConnectRedis dials the server and checks the connection.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("connected to redis",
		slog.String("addr", cfg.Addr),
		slog.Int("database", cfg.DB),
		slog.String("stream", cfg.Stream),
	)

	r := NewRedis(rdb, cfg.Stream, cfg.MaxLen)
	r.closer = rdb.Close
	return r, nil
}

func (r *Redis) Write(ctx context.Context, ev core.SelectionEvent) (string, error) {
	if ev.Coordinates == nil {
		return "", fmt.Errorf("write selection %q: missing coordinates", ev.Key)
	}
	location, err := ev.Coordinates.GeoJSON()
	if err != nil {
		return "", fmt.Errorf("write selection %q: %w", ev.Key, err)
	}

	emitted := ev.RecordedAt
	if emitted.IsZero() {
		emitted = time.Now()
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		ID:     "*",
		Values: map[string]interface{}{
			fieldRange:     ev.Key,
			fieldLocation:  string(location),
			fieldSource:    ev.Source,
			fieldEmittedAt: emitted.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return id, nil
}

func (r *Redis) Kind() string { return config.SinkRedis }

// Close closes the client if ConnectRedis opened it.
func (r *Redis) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
