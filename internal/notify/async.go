package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const flushTimeout = 5 * time.Second

// Async queues messages for a background sender so callers never wait on the network.
type Async struct {
	inner Notifier
	queue chan string
	log   zerolog.Logger
}

// NewAsync wraps inner with a queue of the given size.
func NewAsync(inner Notifier, size int, log zerolog.Logger) *Async {
	if size <= 0 {
		size = 64
	}
	return &Async{inner: inner, queue: make(chan string, size), log: log}
}

// Send enqueues text. It reports false when the queue is full and the message was dropped.
func (a *Async) Send(_ context.Context, text string) bool {
	select {
	case a.queue <- text:
		return true
	default:
		a.log.Warn().Int("capacity", cap(a.queue)).Msg("notification queue full, dropping message")
		return false
	}
}

// Pending is the number of queued messages.
func (a *Async) Pending() int { return len(a.queue) }

// Run delivers queued messages until ctx is canceled, then flushes what is left with a short deadline.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case text := <-a.queue:
			a.inner.Send(ctx, text)
		case <-ctx.Done():
			a.flush()
			return ctx.Err()
		}
	}
}

func (a *Async) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case text := <-a.queue:
			a.inner.Send(ctx, text)
		default:
			return
		}
	}
}
