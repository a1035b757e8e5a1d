// Package worker moves event handling off the request path.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/events"
)

// Notifier handles one event.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// NotificationWorker queues published events and hands them to a Notifier
// from a fixed set of goroutines. A full queue drops the event.
type NotificationWorker struct {
	notifier Notifier
	logger   *zap.Logger
	queue    chan events.Event
	workers  int

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker with the given queue size and concurrency.
func NewNotificationWorker(notifier Notifier, logger *zap.Logger, queueSize, workers int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, queueSize),
		workers:  workers,
	}
}

// Subscribe registers the worker for every event type.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range events.AllTypes {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

// Start launches the worker goroutines. They exit once Stop drains the queue.
func (w *NotificationWorker) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for event := range w.queue {
				if err := w.notifier.Notify(ctx, event); err != nil {
					w.logger.Warn("notification failed",
						zap.String("event_id", event.ID),
						zap.String("event_type", string(event.Type)),
						zap.Error(err))
				}
			}
		}()
	}
}

// Stop closes the queue and waits for queued events to be handled.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}
