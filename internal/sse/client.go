package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/user/alsamixer-volume/internal/logging"
)

const (
	heartbeatInterval = 25 * time.Second
	clientQueueSize   = 10
)

var (
	ErrClientClosed = errors.New("client disconnected")
	ErrClientBehind = errors.New("client event queue full")
)

// Client is one subscriber of the event stream.
type Client struct {
	w      http.ResponseWriter
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan Event
	done   chan struct{}

	// lastID is the Last-Event-ID the subscriber resumed from.
	lastID uint64

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client writing to w until ctx ends.
func NewClient(w http.ResponseWriter, ctx context.Context) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		w:      w,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan Event, clientQueueSize),
		done:   make(chan struct{}),
	}
}

// WriteEvent queues event without blocking. A client that falls
// clientQueueSize events behind gets ErrClientBehind.
func (c *Client) WriteEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.queue <- event:
		return nil
	default:
		return ErrClientBehind
	}
}

// Close ends the stream. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.done)
}

// send writes one frame and flushes it to the peer.
func (c *Client) send(frame string) error {
	if _, err := io.WriteString(c.w, frame); err != nil {
		return err
	}
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Run streams queued events, with a comment line every heartbeatInterval
// to keep proxies from timing out, until the client is closed or the
// request ends.
func (c *Client) Run() {
	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		var frame string
		select {
		case <-c.ctx.Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			frame = ": keepalive\n\n"
		case event := <-c.queue:
			frame = event.String()
		}
		if err := c.send(frame); err != nil {
			logging.Debugf("SSE write failed: %v", err)
			c.Close()
			return
		}
	}
}
