// internal/notify/dispatcher.go
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher queues events and delivers them on its own goroutine.
// Enqueue never blocks; a full queue drops the event.
type Dispatcher struct {
	emitter Emitter
	logger  *slog.Logger
	queue   chan Event
	timeout time.Duration
}

// NewDispatcher creates a Dispatcher with the given queue size and per-delivery timeout.
func NewDispatcher(emitter Emitter, logger *slog.Logger, buffer int, timeout time.Duration) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		emitter: emitter,
		logger:  logger,
		queue:   make(chan Event, buffer),
		timeout: timeout,
	}
}

// Enqueue hands an event to the dispatcher. It reports false if the event was dropped.
func (d *Dispatcher) Enqueue(e Event) bool {
	select {
	case d.queue <- e:
		return true
	default:
		d.logger.Warn("Notification queue full, dropping event",
			"event", e.Name(), "user_id", e.UserID, "request_id", e.RequestID)
		return false
	}
}

// Run delivers events until ctx is cancelled, then drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	payload, err := encode(e)
	if err != nil {
		d.logger.Error("Failed to encode notification", "error", err, "request_id", e.RequestID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.emitter.Notify(ctx, e.UserID, e.Name(), payload); err != nil {
		d.logger.Error("Failed to deliver notification",
			"error", err, "event", e.Name(), "user_id", e.UserID, "request_id", e.RequestID)
		return
	}
	d.logger.Debug("Notification delivered", "event", e.Name(), "user_id", e.UserID, "request_id", e.RequestID)
}
