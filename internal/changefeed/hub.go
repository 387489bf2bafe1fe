package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/id"
	"github.com/smartbookmarks/smartbookmarks/internal/metrics"
)

const (
	hubQueueSize          = 1000
	subscriptionQueueSize = 100
)

// Hub fans published changes out to subscriptions.
// Changes are queued and broadcast by the loop Start launches.
type Hub struct {
	subs    map[string]*subscription
	events  chan Change
	logger  *slog.Logger
	metrics *metrics.Collector
	wg      sync.WaitGroup
	mu      sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewHub creates a Hub. Call Start to begin broadcasting.
func NewHub(logger *slog.Logger, m *metrics.Collector) *Hub {
	return &Hub{
		subs:    make(map[string]*subscription),
		events:  make(chan Change, hubQueueSize),
		logger:  logger,
		metrics: m,
	}
}

// Start launches the broadcast loop, which runs until ctx is canceled or
// Shutdown is called. It returns immediately.
func (h *Hub) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	defer h.wg.Done()

	h.logger.Info("change feed hub starting")

	for {
		select {
		case c, ok := <-h.events:
			if !ok {
				return
			}
			h.broadcast(c)
		case <-ctx.Done():
			h.logger.Info("change feed hub stopping")
			h.closeAll()
			return
		}
	}
}

// Shutdown stops accepting changes, drains the queue and ends every subscription.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownMu.Lock()
	if h.shutdown {
		h.shutdownMu.Unlock()
		return nil
	}
	h.shutdown = true
	close(h.events)
	h.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for c := range h.events {
			h.broadcast(c)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		h.logger.Warn("change feed drain timeout, some changes may be lost")
	}

	h.wg.Wait()
	h.closeAll()
	h.logger.Info("change feed hub shutdown complete")
	return nil
}

// Publish queues c for broadcast. It never blocks; when the queue is full
// the change is dropped and logged.
func (h *Hub) Publish(c Change) {
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()

	if h.shutdown {
		return
	}

	select {
	case h.events <- c:
		h.metrics.FeedEvent(string(c.Table), string(c.EventType))
	default:
		h.metrics.FeedDrop(string(c.Table), "hub_full")
		h.logger.Error("change feed queue full, dropping change",
			slog.String("table", string(c.Table)),
			slog.String("event_type", string(c.EventType)))
	}
}

// Subscribe delivers every change to table regardless of owner.
func (h *Hub) Subscribe(ctx context.Context, table Table, onEvent func(Change)) (Subscription, error) {
	return h.subscribe(ctx, table, "", onEvent)
}

// SubscribeOwner delivers only changes owned by ownerID.
func (h *Hub) SubscribeOwner(ctx context.Context, table Table, ownerID string, onEvent func(Change)) (Subscription, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("subscribe %s: owner required", table)
	}
	return h.subscribe(ctx, table, ownerID, onEvent)
}

// SubscriptionCount returns the number of active subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(ctx context.Context, table Table, ownerID string, onEvent func(Change)) (Subscription, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("subscribe: unknown table %q", table)
	}

	h.shutdownMu.RLock()
	closed := h.shutdown
	h.shutdownMu.RUnlock()
	if closed {
		return nil, fmt.Errorf("subscribe %s: change feed is shut down", table)
	}

	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	s := &subscription{
		hub:         h,
		id:          subID,
		table:       table,
		ownerID:     ownerID,
		events:      make(chan Change, subscriptionQueueSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	h.subs[s.id] = s
	total := len(h.subs)
	h.mu.Unlock()
	h.metrics.FeedSubscriptions(1)

	go s.deliver(onEvent)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Unsubscribe()
		case <-s.done:
		}
	}()

	h.logger.Debug("change feed subscribed",
		slog.String("subscription_id", s.id),
		slog.String("table", string(table)),
		slog.String("owner_id", ownerID),
		slog.Int("total", total))
	return s, nil
}

func (h *Hub) broadcast(c Change) {
	var delivered, dropped, filtered int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if s.table != c.Table {
			continue
		}
		if s.ownerID != "" && s.ownerID != c.OwnerID {
			filtered++
			continue
		}

		select {
		case s.events <- c:
			delivered++
		default:
			dropped++
			h.metrics.FeedDrop(string(c.Table), "slow_subscriber")
			h.logger.Warn("dropped change for slow subscriber",
				slog.String("subscription_id", s.id),
				slog.String("table", string(c.Table)))
		}
	}

	h.logger.Debug("change broadcast",
		slog.String("table", string(c.Table)),
		slog.String("event_type", string(c.EventType)),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("filtered", filtered),
			slog.Int("dropped", dropped)))
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()
	if ok {
		h.metrics.FeedSubscriptions(-1)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	subs := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		_ = s.Unsubscribe()
	}
}

type subscription struct {
	hub         *Hub
	id          string
	table       Table
	ownerID     string
	events      chan Change
	done        chan struct{}
	once        sync.Once
	connectedAt time.Time
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
		s.hub.logger.Debug("change feed unsubscribed",
			slog.String("subscription_id", s.id),
			slog.Duration("duration", time.Since(s.connectedAt)))
	})
	return nil
}

// Done is closed when the subscription ends.
func (s *subscription) Done() <-chan struct{} {
	return s.done
}

func (s *subscription) deliver(onEvent func(Change)) {
	for {
		select {
		case <-s.done:
			return
		case c := <-s.events:
			select {
			case <-s.done:
				return
			default:
			}
			onEvent(c)
		}
	}
}
