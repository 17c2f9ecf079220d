package app

import (
	"context"
	"errors"
	"fmt"
	"quantdash/internal/logger"
	"sync"
)

var ErrLoopClosed = errors.New("session loop closed")

// Loop serializes every mutation of a session's view state onto a single
// goroutine. Anything touching views, the router or fields must run through
// Post or Do.
type Loop struct {
	ctx   context.Context
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}

	closed bool
}

func NewLoop(ctx context.Context) *Loop {
	l := &Loop{
		ctx:  ctx,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post queues fn without waiting. It reports false, and drops fn, once the
// loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it. Calling Do from inside the loop
// deadlocks.
func (l *Loop) Do(fn func() error) error {
	result := make(chan error, 1)
	ok := l.Post(func() {
		result <- fn()
	})
	if !ok {
		return ErrLoopClosed
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

// Close stops accepting work. Already queued work is discarded and Close
// returns once the loop goroutine has exited.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	close(l.quit)
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.queue) == 0 || l.closed {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(l.ctx).Errorw("recovered panic in session loop", "error", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
