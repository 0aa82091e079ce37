package notification

import (
	"context"
	"sync"
	"time"

	"github.com/ariebrainware/ayursutra-api/metrics"
	"github.com/ariebrainware/ayursutra-api/model"
	"github.com/ariebrainware/ayursutra-api/repository"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	handleTimeout    = 10 * time.Second
)

type booking struct {
	session model.Session
	therapy model.Therapy
}

// Dispatcher turns bookings into notifications on a background worker.
// Publish never blocks the booking path: a full queue drops the booking.
type Dispatcher struct {
	repo      repository.NotificationRepository
	reminders *ReminderScheduler
	metrics   *metrics.BookingMetrics
	logger    *zap.Logger

	mu      sync.RWMutex
	closed  bool
	queue   chan booking
	wg      sync.WaitGroup
	started bool
}

type DispatcherOption func(*Dispatcher)

func WithReminders(r *ReminderScheduler) DispatcherOption {
	return func(d *Dispatcher) { d.reminders = r }
}

func WithDispatcherMetrics(m *metrics.BookingMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithDispatcherLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(repo repository.NotificationRepository, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		repo:   repo,
		queue:  make(chan booking, queueSize),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker. Calling it more than once has no effect.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case b, ok := <-d.queue:
			if !ok {
				return
			}
			d.handle(ctx, b)
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx))
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case b, ok := <-d.queue:
			if !ok {
				return
			}
			d.handle(ctx, b)
		default:
			return
		}
	}
}

// Publish queues the booking for notification. It satisfies scheduler.Publisher.
func (d *Dispatcher) Publish(session model.Session, therapy model.Therapy) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped(session, "dispatcher stopped")
		return
	}
	select {
	case d.queue <- booking{session: session, therapy: therapy}:
	default:
		d.dropped(session, "queue full")
	}
}

func (d *Dispatcher) dropped(session model.Session, reason string) {
	d.metrics.ObserveNotification(metrics.NotificationDropped)
	d.logger.Warn("booking notification dropped",
		zap.String("reason", reason),
		zap.String("session_id", session.ID))
}

// Stop closes the queue and waits for queued bookings to be handled. Whatever
// the worker left behind (never started, or its context ended) is drained on the
// caller's goroutine.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.drain(context.Background())
}

func (d *Dispatcher) handle(ctx context.Context, b booking) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	notifications := BookingNotifications(b.session, b.therapy)
	if err := d.repo.CreateMany(ctx, notifications); err != nil {
		d.metrics.ObserveNotification(metrics.NotificationFailed)
		d.logger.Error("failed to store booking notifications",
			zap.String("session_id", b.session.ID),
			zap.Error(err))
	} else {
		for range notifications {
			d.metrics.ObserveNotification(metrics.NotificationPersisted)
		}
	}

	if d.reminders == nil {
		return
	}
	scheduled, err := d.reminders.Schedule(ctx, b.session, b.therapy)
	switch {
	case err != nil:
		d.metrics.ObserveNotification(metrics.NotificationFailed)
		d.logger.Error("failed to schedule session reminder",
			zap.String("session_id", b.session.ID),
			zap.Error(err))
	case scheduled:
		d.metrics.ObserveNotification(metrics.NotificationScheduled)
	}
}
