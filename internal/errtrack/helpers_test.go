package errtrack

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (t *recordingTransport) Send(_ context.Context, event *Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
	return t.err
}

func (t *recordingTransport) Events() []*Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Event(nil), t.events...)
}

// blockingTransport holds every Send until release is closed.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{started: make(chan struct{}), release: make(chan struct{})}
}

func (t *blockingTransport) Send(_ context.Context, _ *Event) error {
	t.once.Do(func() { close(t.started) })
	<-t.release
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
