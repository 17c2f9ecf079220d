package service

import (
	"context"
	"errors"
	"quantdash/internal/logger"
)

var ErrCoordinatorClosed = errors.New("view has been torn down")

// Dispatcher runs fn on the owning view's event loop. Post returns false
// once the loop is gone, in which case fn is dropped.
type Dispatcher interface {
	Post(fn func()) bool
}

type Request interface {
	Validate() error
}

type FetchFunc[Req Request, Res any] func(ctx context.Context, req Req) (Res, error)

type CoordinatorHooks[Res any] struct {
	// OnResult runs after the held result was replaced.
	OnResult func(Res)
	// OnFailure runs when the latest submission failed; the held result is untouched.
	OnFailure func(error)
	// OnSettled runs after every accepted resolution, success or failure.
	OnSettled func()
}

// Coordinator turns validated requests into remote calls and applies their
// results. Every method must run on the dispatcher's loop.
//
// Submissions are numbered; a response is applied only if it belongs to
// the most recent submission, whatever order the responses come back in.
// Superseded calls are never cancelled, their outcome is just dropped.
type Coordinator[Req Request, Res any] struct {
	name       string
	ctx        context.Context
	dispatcher Dispatcher
	fetch      FetchFunc[Req, Res]
	hooks      CoordinatorHooks[Res]

	seq       uint64
	loading   bool
	result    Res
	hasResult bool
	closed    bool
}

func NewCoordinator[Req Request, Res any](
	ctx context.Context,
	name string,
	dispatcher Dispatcher,
	fetch FetchFunc[Req, Res],
	hooks CoordinatorHooks[Res],
) *Coordinator[Req, Res] {
	return &Coordinator[Req, Res]{
		name:       name,
		ctx:        ctx,
		dispatcher: dispatcher,
		fetch:      fetch,
		hooks:      hooks,
	}
}

// Submit validates req and starts the remote call. The returned sequence
// number identifies the submission.
func (c *Coordinator[Req, Res]) Submit(req Req) (uint64, error) {
	if c.closed {
		return 0, ErrCoordinatorClosed
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	c.seq++
	seq := c.seq
	c.loading = true
	log := logger.FromContext(c.ctx).With("coordinator", c.name, "seq", seq)
	log.Debug("submitting analysis request")

	ctx := logger.WithContext(c.ctx, log)
	go func() {
		res, err := c.fetch(ctx, req)
		if ok := c.dispatcher.Post(func() { c.resolve(seq, res, err) }); !ok {
			log.Debug("loop closed, dropping response")
		}
	}()

	return seq, nil
}

func (c *Coordinator[Req, Res]) resolve(seq uint64, res Res, err error) {
	log := logger.FromContext(c.ctx).With("coordinator", c.name, "seq", seq)
	if c.closed {
		log.Debug("view torn down, dropping response")
		return
	}
	if seq != c.seq {
		log.Debugw("dropping superseded response", "latestSeq", c.seq)
		return
	}

	c.loading = false
	if err != nil {
		log.Warnw("analysis request failed", "error", err)
		if c.hooks.OnFailure != nil {
			c.hooks.OnFailure(err)
		}
	} else {
		c.result = res
		c.hasResult = true
		if c.hooks.OnResult != nil {
			c.hooks.OnResult(res)
		}
	}
	if c.hooks.OnSettled != nil {
		c.hooks.OnSettled()
	}
}

func (c *Coordinator[Req, Res]) Result() (Res, bool) {
	return c.result, c.hasResult
}

func (c *Coordinator[Req, Res]) Loading() bool {
	return c.loading
}

func (c *Coordinator[Req, Res]) Seq() uint64 {
	return c.seq
}

// Reset forgets the held result. Calls still in flight become stale.
func (c *Coordinator[Req, Res]) Reset() {
	var zero Res
	c.seq++
	c.loading = false
	c.result = zero
	c.hasResult = false
}

// Close marks the view dead. Anything resolving afterwards is dropped
// silently.
func (c *Coordinator[Req, Res]) Close() {
	c.closed = true
	c.loading = false
}
