package goSession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// notificationDispatcher delivers OTP notifications on a single background
// worker so request paths never wait on mail or broker latency.
type notificationDispatcher struct {
	notifier   Notifier
	timeout    time.Duration
	dropIfFull bool
	onResult   func(n OTPNotification, err error)

	ch        chan OTPNotification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newNotificationDispatcher(
	cfg NotificationConfig,
	notifier Notifier,
	onResult func(n OTPNotification, err error),
) *notificationDispatcher {
	if notifier == nil {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	d := &notificationDispatcher{
		notifier:   notifier,
		timeout:    cfg.Timeout,
		dropIfFull: cfg.DropIfFull,
		onResult:   onResult,
		ch:         make(chan OTPNotification, cfg.BufferSize),
		done:       make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *notificationDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.ch:
			d.deliver(n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *notificationDispatcher) deliver(n OTPNotification) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.notifier.SendOTP(ctx, n)
	if d.onResult != nil {
		d.onResult(n, err)
	}
}

// enqueue reports false when the notification was dropped.
func (d *notificationDispatcher) enqueue(ctx context.Context, n OTPNotification) bool {
	if d == nil || d.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.ch <- n:
			return true
		case <-d.done:
			return false
		default:
			d.dropped.Add(1)
			return false
		}
	}

	select {
	case d.ch <- n:
		return true
	case <-ctx.Done():
		d.dropped.Add(1)
		return false
	case <-d.done:
		return false
	}
}

func (d *notificationDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *notificationDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
