package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
)

const (
	redisConnectTimeout = 5 * time.Second
	redisPublishTimeout = 2 * time.Second
)

// envelope is the wire format on Redis. Origin identifies the publishing
// handle so it can skip its own messages.
type envelope struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

// Redis relays messages between processes through Redis pub/sub.
type Redis struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *metrics.Collector
}

// OpenRedis connects to the Redis server at url. When the server cannot be
// reached it logs a warning and returns the no-op relay, so callers always
// get a usable Relay.
func OpenRedis(ctx context.Context, url string, logger *slog.Logger, m *metrics.Collector) Relay {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid redis url, broadcast relay disabled", slog.String("error", err.Error()))
		return Noop()
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("redis unreachable, broadcast relay disabled", slog.String("error", err.Error()))
		return Noop()
	}

	logger.Info("broadcast relay connected", slog.String("addr", opts.Addr))
	return NewRedis(client, logger, m)
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, logger *slog.Logger, m *metrics.Collector) *Redis {
	return &Redis{client: client, logger: logger, metrics: m}
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Open subscribes to channel. A failed subscription yields a no-op handle.
func (r *Redis) Open(channel string) Handle {
	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	pubsub := r.client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed so no publish after Open is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		r.logger.Warn("relay subscribe failed, handle disabled",
			slog.String("channel", channel),
			slog.String("error", err.Error()))
		return noopHandle{}
	}

	h := &redisHandle{
		relay:   r,
		channel: channel,
		origin:  uuid.NewString(),
		pubsub:  pubsub,
		done:    make(chan struct{}),
	}
	go h.receive()
	return h
}

type redisHandle struct {
	relay   *Redis
	channel string
	origin  string
	pubsub  *redis.PubSub
	done    chan struct{}

	mu        sync.RWMutex
	onMessage func(Message)
	closeOnce sync.Once
}

func (h *redisHandle) Publish(msg Message) {
	select {
	case <-h.done:
		return
	default:
	}

	payload, err := json.Marshal(envelope{Origin: h.origin, Message: msg})
	if err != nil {
		h.relay.logger.Error("relay encode failed", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPublishTimeout)
	defer cancel()
	if err := h.relay.client.Publish(ctx, h.channel, payload).Err(); err != nil {
		h.relay.logger.Warn("relay publish failed",
			slog.String("channel", h.channel),
			slog.String("error", err.Error()))
		return
	}
	h.relay.metrics.RelayMessage("out", string(msg.Action))
}

func (h *redisHandle) OnMessage(fn func(Message)) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

func (h *redisHandle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)
		if cerr := h.pubsub.Close(); cerr != nil {
			err = fmt.Errorf("close relay subscription: %w", cerr)
		}
	})
	return err
}

func (h *redisHandle) receive() {
	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.done:
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(raw.Payload), &env); err != nil {
				h.relay.logger.Debug("relay dropped undecodable message", slog.String("channel", h.channel))
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.mu.RLock()
			fn := h.onMessage
			h.mu.RUnlock()
			if fn != nil {
				fn(env.Message)
			}
		}
	}
}
