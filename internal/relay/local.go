package relay

import (
	"log/slog"
	"sync"

	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
)

const localQueueSize = 64

// Local is an in-process relay. Every handle delivers through its own
// goroutine, so a slow receiver never blocks a publisher; when a receiver's
// queue is full the message is dropped and logged. It links engines that
// share a process; separate processes need Redis.
type Local struct {
	mu       sync.Mutex
	channels map[string]map[*localHandle]struct{}
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewLocal creates an empty in-process relay.
func NewLocal(logger *slog.Logger, m *metrics.Collector) *Local {
	return &Local{
		channels: make(map[string]map[*localHandle]struct{}),
		logger:   logger,
		metrics:  m,
	}
}

// Open joins channel.
func (l *Local) Open(channel string) Handle {
	h := &localHandle{
		bus:     l,
		channel: channel,
		queue:   make(chan Message, localQueueSize),
		done:    make(chan struct{}),
	}

	l.mu.Lock()
	members, ok := l.channels[channel]
	if !ok {
		members = make(map[*localHandle]struct{})
		l.channels[channel] = members
	}
	members[h] = struct{}{}
	l.mu.Unlock()

	go h.deliver()
	return h
}

// Members returns the number of open handles on channel.
func (l *Local) Members(channel string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.channels[channel])
}

func (l *Local) publish(from *localHandle, msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for h := range l.channels[from.channel] {
		if h == from {
			continue
		}
		select {
		case h.queue <- msg:
		default:
			l.logger.Warn("relay receiver queue full, dropping message",
				slog.String("channel", from.channel),
				slog.String("action", string(msg.Action)))
		}
	}
	l.metrics.RelayMessage("out", string(msg.Action))
}

func (l *Local) leave(h *localHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	members := l.channels[h.channel]
	delete(members, h)
	if len(members) == 0 {
		delete(l.channels, h.channel)
	}
}

type localHandle struct {
	bus     *Local
	channel string
	queue   chan Message
	done    chan struct{}

	mu        sync.RWMutex
	onMessage func(Message)
	closeOnce sync.Once
}

func (h *localHandle) Publish(msg Message) {
	select {
	case <-h.done:
		return
	default:
	}
	h.bus.publish(h, msg)
}

func (h *localHandle) OnMessage(fn func(Message)) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

func (h *localHandle) Close() error {
	h.closeOnce.Do(func() {
		h.bus.leave(h)
		close(h.done)
	})
	return nil
}

func (h *localHandle) deliver() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.queue:
			// Close may race with a queued message; closed handles stay silent.
			select {
			case <-h.done:
				return
			default:
			}
			h.mu.RLock()
			fn := h.onMessage
			h.mu.RUnlock()
			if fn != nil {
				fn(msg)
			}
		}
	}
}
