package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultQueueSize = 64

type message struct {
	subject string
	body    string
}

// Dispatcher delivers messages on one background goroutine in enqueue order.
// Callers never wait for delivery; failures are logged as warnings.
type Dispatcher struct {
	next    Notifier
	log     *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan message
	done   chan struct{}
}

func NewDispatcher(next Notifier, queueSize int, sendTimeout time.Duration, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if sendTimeout <= 0 {
		sendTimeout = time.Minute
	}
	d := &Dispatcher{
		next:    next,
		log:     log,
		timeout: sendTimeout,
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for m := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.next.Send(ctx, m.subject, m.body)
		cancel()
		for _, e := range Errors(err) {
			d.log.Warn("notify_channel_failed", zap.String("subject", m.subject), zap.Error(e))
		}
	}
}

// Enqueue hands the message to the worker. A full queue drops the message
// and returns false, as does any call after Close.
func (d *Dispatcher) Enqueue(subject, body string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn("notify_dispatcher_closed", zap.String("subject", subject))
		return false
	}
	select {
	case d.queue <- message{subject: subject, body: body}:
		return true
	default:
		d.log.Warn("notify_queue_full", zap.String("subject", subject))
		return false
	}
}

// Send satisfies Notifier by enqueueing; it never reports delivery errors.
func (d *Dispatcher) Send(_ context.Context, subject, body string) error {
	d.Enqueue(subject, body)
	return nil
}

// Close stops accepting messages and waits for the queue to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
