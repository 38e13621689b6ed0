package engine

import (
	"context"
	"sync"

	"github.com/soyeahso/irccore/internal/logging"
)

// Loop runs posted closures one at a time, in order, on the goroutine that
// called Run. Everything that touches Connection or router state goes
// through it.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	log     *logging.Logger
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop(log *logging.Logger) *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log.Sub("loop"),
	}
}

// Post queues f. It is safe to call from any goroutine, including from inside
// a running closure. It reports false once the loop has stopped.
func (l *Loop) Post(f func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call posts f and waits for it to finish. It must not be called from the
// loop goroutine.
func (l *Loop) Call(ctx context.Context, f func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		f()
	}) {
		return context.Canceled
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run executes posted closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for i, f := range batch {
			if ctx.Err() != nil {
				l.stop()
				return ctx.Err()
			}
			l.run(f)
			batch[i] = nil
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			l.stop()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) run(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("loop task panicked")
		}
	}()
	f()
}

func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
}
