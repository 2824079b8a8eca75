package errtrack

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"request-correlator/internal/metrics"
)

const defaultQueueSize = 100

var (
	// ErrClosed is returned by Capture after Close.
	ErrClosed = errors.New("errtrack: client closed")
	// ErrQueueFull is returned by Capture when the delivery queue is full.
	ErrQueueFull = errors.New("errtrack: queue full")
)

// Transport delivers events to the tracking service.
type Transport interface {
	Send(ctx context.Context, event *Event) error
}

// Options configures a Client.
type Options struct {
	Transport  Transport
	BeforeSend BeforeSend
	// QueueSize bounds the number of events waiting for delivery.
	QueueSize int
	// Logger receives delivery failures. It must not route back into a
	// Handler of the same client.
	Logger *slog.Logger
}

// Client queues events and delivers them on a background goroutine.
type Client struct {
	transport  Transport
	beforeSend BeforeSend
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan *Event
	done   chan struct{}
}

// NewClient starts a Client.
func NewClient(opts Options) *Client {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	c := &Client{
		transport:  opts.Transport,
		beforeSend: opts.BeforeSend,
		logger:     logger,
		queue:      make(chan *Event, size),
		done:       make(chan struct{}),
	}
	go c.run()

	return c
}

// Capture runs the BeforeSend chain and queues the surviving event. It never
// blocks. A dropped event is not an error. Events refused because the queue
// is full or the client is closed are counted before the error is returned.
func (c *Client) Capture(event *Event, hint Hint) error {
	if event == nil {
		return nil
	}
	if c.beforeSend != nil {
		event = c.beforeSend(event, hint)
		if event == nil {
			metrics.ErrorEvents.WithLabelValues(metrics.OutcomeFiltered).Inc()
			return nil
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		metrics.ErrorEvents.WithLabelValues(metrics.OutcomeRejected).Inc()
		return ErrClosed
	}

	select {
	case c.queue <- event:
		return nil
	default:
		metrics.ErrorEvents.WithLabelValues(metrics.OutcomeDropped).Inc()
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones were
// delivered or ctx is done.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) run() {
	defer close(c.done)

	for event := range c.queue {
		if c.transport == nil {
			continue
		}
		if err := c.transport.Send(context.Background(), event); err != nil {
			metrics.ErrorEvents.WithLabelValues(metrics.OutcomeFailed).Inc()
			c.logger.Warn("Failed to send error event",
				"event_id", event.EventID,
				"request_id", event.RequestID,
				"error", err,
			)
			continue
		}
		metrics.ErrorEvents.WithLabelValues(metrics.OutcomeSent).Inc()
	}
}
