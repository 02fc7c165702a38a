package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"habboverify/internal/logger"
)

type EventKind string

const (
	EventVerified EventKind = "verified"
	EventReset    EventKind = "reset"
	EventRepair   EventKind = "repair"
)

// Event is an audit event for operators.
type Event struct {
	Kind    EventKind `json:"kind"`
	UserID  string    `json:"user_id,omitempty"`
	Habbo   string    `json:"habbo,omitempty"`
	Evicted []string  `json:"evicted,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// MultiNotifier fans an event out to every configured channel.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	ErrNotifyQueueFull = errors.New("notification queue full")
	ErrNotifierClosed  = errors.New("notifier closed")
)

const (
	defaultNotifyTimeout = 10 * time.Second
	defaultNotifyBuffer  = 64
)

// AsyncNotifier hands events to a background worker, so a slow channel never holds up a reply.
// Each delivery gets its own timeout.
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	queue   chan Event
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewAsyncNotifier(next Notifier, timeout time.Duration, buffer int) *AsyncNotifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	if buffer <= 0 {
		buffer = defaultNotifyBuffer
	}
	a := &AsyncNotifier{
		next:    next,
		timeout: timeout,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go a.loop()
	return a
}

// Notify queues ev and returns at once. A full queue drops the event.
func (a *AsyncNotifier) Notify(_ context.Context, ev Event) error {
	select {
	case <-a.done:
		return ErrNotifierClosed
	default:
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return ErrNotifyQueueFull
	}
}

// Close delivers what is already queued and stops the worker.
func (a *AsyncNotifier) Close() {
	a.once.Do(func() { close(a.done) })
	<-a.stopped
}

func (a *AsyncNotifier) loop() {
	defer close(a.stopped)
	for {
		select {
		case ev := <-a.queue:
			a.deliver(ev)
		case <-a.done:
			for {
				select {
				case ev := <-a.queue:
					a.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (a *AsyncNotifier) deliver(ev Event) {
	if a.next == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.next.Notify(ctx, ev); err != nil {
		logger.Log.WithField("event", ev.Kind).Warnf("[notify][async][err] %v", err)
	}
}

// notify is best effort: a failing channel never changes a command's outcome.
func notify(ctx context.Context, n Notifier, ev Event) {
	if n == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := n.Notify(ctx, ev); err != nil {
		logger.Log.WithField("event", ev.Kind).Warnf("[notify][err] %v", err)
	}
}
