package changefeed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	domainerrors "github.com/smartbookmarks/smartbookmarks/internal/errors"
	"github.com/smartbookmarks/smartbookmarks/internal/http/response"
)

// SSE event names written by Handler.
const (
	eventConnected = "connected"
	eventChange    = "change"
	eventHeartbeat = "heartbeat"
)

// Identify resolves the authenticated user of a request.
type Identify func(r *http.Request) (userID string, err error)

// Handler streams the caller's changes for one table at GET /api/v1/changes?table=<name>.
type Handler struct {
	hub               *Hub
	identify          Identify
	logger            *slog.Logger
	heartbeatInterval time.Duration
}

// NewHandler creates a streaming handler.
func NewHandler(hub *Hub, identify Identify, logger *slog.Logger) *Handler {
	return &Handler{
		hub:               hub,
		identify:          identify,
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// SetHeartbeatInterval overrides the keepalive interval.
func (h *Handler) SetHeartbeatInterval(d time.Duration) {
	h.heartbeatInterval = d
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", h.logger)
		return
	}

	userID, err := h.identify(r)
	if err != nil || userID == "" {
		response.Unauthorized(w, "Authentication required", h.logger)
		return
	}

	table := Table(r.URL.Query().Get("table"))
	if !table.Valid() {
		response.BadRequest(w, fmt.Sprintf("unknown table %q", table), h.logger)
		return
	}

	if r.Context().Err() != nil {
		return
	}

	ctx := r.Context()
	queue := make(chan Change, subscriptionQueueSize)
	sub, err := h.hub.SubscribeOwner(ctx, table, userID, func(c Change) {
		select {
		case queue <- c:
		default:
			h.logger.Warn("stream queue full, dropping change",
				slog.String("user_id", userID),
				slog.String("table", string(table)))
		}
	})
	if err != nil {
		h.logger.Error("failed to subscribe stream", slog.String("error", err.Error()))
		response.Error(w, http.StatusServiceUnavailable, string(domainerrors.CodeUnavailable), "Failed to establish connection", h.logger)
		return
	}
	defer func() { _ = sub.Unsubscribe() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	streamLogger := h.logger.With(slog.String("user_id", userID), slog.String("table", string(table)))

	if err := h.sendEvent(w, rc, eventConnected, map[string]string{"table": string(table)}); err != nil {
		streamLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	var done <-chan struct{}
	if s, ok := sub.(*subscription); ok {
		done = s.Done()
	}

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case c := <-queue:
			if err := h.sendEvent(w, rc, eventChange, c); err != nil {
				streamLogger.Info("client disconnected during send")
				return
			}
		case <-heartbeat.C:
			if err := h.sendEvent(w, rc, eventHeartbeat, map[string]time.Time{"timestamp": time.Now().UTC()}); err != nil {
				streamLogger.Info("client disconnected during heartbeat")
				return
			}
		case <-done:
			streamLogger.Info("stream closed by hub")
			return
		case <-ctx.Done():
			return
		}
	}
}

// sendEvent writes one SSE frame and flushes it.
func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(2 * h.heartbeatInterval)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
