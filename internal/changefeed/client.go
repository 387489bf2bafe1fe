package changefeed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultMinBackoff  = 500 * time.Millisecond
	defaultMaxBackoff  = 30 * time.Second
	defaultConnectWait = 5 * time.Second
	maxFrameSize       = 1 << 20
)

// StreamClient subscribes to a remote Handler over HTTP.
// Connection failures are logged and retried with backoff; they are never
// reported to the subscriber.
type StreamClient struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	logger      *slog.Logger
	minBackoff  time.Duration
	maxBackoff  time.Duration
	connectWait time.Duration
}

// StreamOption configures a StreamClient.
type StreamOption func(*StreamClient)

// WithHTTPClient sets the HTTP client used for streams.
func WithHTTPClient(c *http.Client) StreamOption {
	return func(s *StreamClient) { s.httpClient = c }
}

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(minDelay, maxDelay time.Duration) StreamOption {
	return func(s *StreamClient) {
		s.minBackoff = minDelay
		s.maxBackoff = maxDelay
	}
}

// WithConnectWait bounds how long Subscribe waits for the first connection.
func WithConnectWait(d time.Duration) StreamOption {
	return func(s *StreamClient) { s.connectWait = d }
}

// NewStreamClient creates a client for the server at baseURL authenticating with token.
func NewStreamClient(baseURL, token string, logger *slog.Logger, opts ...StreamOption) *StreamClient {
	c := &StreamClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		httpClient:  &http.Client{},
		logger:      logger,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		connectWait: defaultConnectWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe opens a stream for table. It waits briefly for the first
// connection so changes committed right after it returns are not missed,
// then keeps reconnecting in the background until unsubscribed.
func (c *StreamClient) Subscribe(ctx context.Context, table Table, onEvent func(Change)) (Subscription, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("subscribe: unknown table %q", table)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &streamSubscription{cancel: cancel, done: make(chan struct{})}
	connected := make(chan struct{})

	go func() {
		defer close(s.done)
		c.run(ctx, table, onEvent, connected)
	}()

	select {
	case <-connected:
	case <-time.After(c.connectWait):
		c.logger.Warn("change stream not connected yet, continuing in background",
			slog.String("table", string(table)))
	case <-ctx.Done():
	}
	return s, nil
}

func (c *StreamClient) run(ctx context.Context, table Table, onEvent func(Change), connected chan struct{}) {
	var signal sync.Once
	backoff := c.minBackoff

	for {
		err := c.stream(ctx, table, onEvent, func() {
			backoff = c.minBackoff
			signal.Do(func() { close(connected) })
		})
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("change stream interrupted",
			slog.String("table", string(table)),
			slog.String("error", err.Error()),
			slog.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// stream runs one connection until it fails or ctx ends.
func (c *StreamClient) stream(ctx context.Context, table Table, onEvent func(Change), onConnected func()) error {
	endpoint := c.baseURL + "/api/v1/changes?table=" + url.QueryEscape(string(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect: unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	var event string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.dispatch(event, data.String(), onEvent, onConnected)
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}

func (c *StreamClient) dispatch(event, data string, onEvent func(Change), onConnected func()) {
	switch event {
	case eventConnected:
		onConnected()
	case eventChange:
		var ch Change
		if err := json.Unmarshal([]byte(data), &ch); err != nil {
			c.logger.Warn("dropping undecodable change", slog.String("error", err.Error()))
			return
		}
		onEvent(ch)
	}
}

type streamSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe closes the stream and waits for the reader to exit.
// It must not be called from the onEvent callback.
func (s *streamSubscription) Unsubscribe() error {
	s.cancel()
	<-s.done
	return nil
}
