package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// queueDispatcher stands in for the view loop; the test goroutine drains it.
type queueDispatcher struct {
	queue  chan func()
	closed bool
}

func newQueueDispatcher() *queueDispatcher {
	return &queueDispatcher{queue: make(chan func(), 16)}
}

func (d *queueDispatcher) Post(fn func()) bool {
	if d.closed {
		return false
	}
	d.queue <- fn
	return true
}

func (d *queueDispatcher) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-d.queue:
		fn()
	case <-time.After(time.Second):
		t.Fatal("expected a posted callback")
	}
}

func (d *queueDispatcher) requireIdle(t *testing.T) {
	t.Helper()
	select {
	case <-d.queue:
		t.Fatal("unexpected posted callback")
	case <-time.After(50 * time.Millisecond):
	}
}

type fakeRequest struct {
	id      int
	invalid error
}

func (r fakeRequest) Validate() error {
	return r.invalid
}

type reply struct {
	value string
	err   error
}

// manualFetch hands control of every response to the test.
type manualFetch struct {
	replies map[int]chan reply
}

func newManualFetch(ids ...int) *manualFetch {
	m := &manualFetch{replies: map[int]chan reply{}}
	for _, id := range ids {
		m.replies[id] = make(chan reply, 1)
	}
	return m
}

func (m *manualFetch) fetch(ctx context.Context, req fakeRequest) (string, error) {
	r := <-m.replies[req.id]
	return r.value, r.err
}

func TestCoordinator(t *testing.T) {
	type recorder struct {
		results  []string
		failures []error
	}
	setup := func(m *manualFetch) (*Coordinator[fakeRequest, string], *queueDispatcher, *recorder) {
		d := newQueueDispatcher()
		rec := &recorder{}
		c := NewCoordinator(context.Background(), "test", d, m.fetch, CoordinatorHooks[string]{
			OnResult:  func(s string) { rec.results = append(rec.results, s) },
			OnFailure: func(err error) { rec.failures = append(rec.failures, err) },
		})
		return c, d, rec
	}

	t.Run("single submission", func(t *testing.T) {
		m := newManualFetch(1)
		c, d, rec := setup(m)

		seq, err := c.Submit(fakeRequest{id: 1})
		require.NoError(t, err)
		require.Equal(t, uint64(1), seq)
		require.True(t, c.Loading())

		m.replies[1] <- reply{value: "first"}
		d.runNext(t)

		require.False(t, c.Loading())
		res, ok := c.Result()
		require.True(t, ok)
		require.Equal(t, "first", res)
		require.Equal(t, []string{"first"}, rec.results)
	})

	t.Run("latest submission wins when responses arrive out of order", func(t *testing.T) {
		m := newManualFetch(1, 2)
		c, d, rec := setup(m)

		_, err := c.Submit(fakeRequest{id: 1})
		require.NoError(t, err)
		_, err = c.Submit(fakeRequest{id: 2})
		require.NoError(t, err)

		m.replies[2] <- reply{value: "second"}
		d.runNext(t)
		m.replies[1] <- reply{value: "first"}
		d.runNext(t)

		res, _ := c.Result()
		require.Equal(t, "second", res)
		require.Equal(t, []string{"second"}, rec.results)
		require.False(t, c.Loading())
	})

	t.Run("stale response arriving first is ignored", func(t *testing.T) {
		m := newManualFetch(1, 2)
		c, d, rec := setup(m)

		_, _ = c.Submit(fakeRequest{id: 1})
		_, _ = c.Submit(fakeRequest{id: 2})

		m.replies[1] <- reply{value: "first"}
		d.runNext(t)
		require.True(t, c.Loading())
		_, ok := c.Result()
		require.False(t, ok)

		m.replies[2] <- reply{value: "second"}
		d.runNext(t)
		require.Equal(t, []string{"second"}, rec.results)
	})

	t.Run("failure keeps previous result", func(t *testing.T) {
		m := newManualFetch(1, 2)
		c, d, rec := setup(m)

		_, _ = c.Submit(fakeRequest{id: 1})
		m.replies[1] <- reply{value: "good"}
		d.runNext(t)

		_, _ = c.Submit(fakeRequest{id: 2})
		boom := errors.New("boom")
		m.replies[2] <- reply{err: boom}
		d.runNext(t)

		res, ok := c.Result()
		require.True(t, ok)
		require.Equal(t, "good", res)
		require.Len(t, rec.failures, 1)
		require.ErrorIs(t, rec.failures[0], boom)
		require.False(t, c.Loading())
	})

	t.Run("stale failure is dropped", func(t *testing.T) {
		m := newManualFetch(1, 2)
		c, d, rec := setup(m)

		_, _ = c.Submit(fakeRequest{id: 1})
		_, _ = c.Submit(fakeRequest{id: 2})
		m.replies[1] <- reply{err: errors.New("old")}
		d.runNext(t)

		require.Empty(t, rec.failures)
		require.True(t, c.Loading())
	})

	t.Run("invalid request never leaves", func(t *testing.T) {
		m := newManualFetch()
		c, d, _ := setup(m)

		invalid := errors.New("not balanced")
		_, err := c.Submit(fakeRequest{id: 1, invalid: invalid})
		require.ErrorIs(t, err, invalid)
		require.False(t, c.Loading())
		require.Equal(t, uint64(0), c.Seq())
		d.requireIdle(t)
	})

	t.Run("response after close is dropped", func(t *testing.T) {
		m := newManualFetch(1)
		c, d, rec := setup(m)

		_, _ = c.Submit(fakeRequest{id: 1})
		c.Close()
		m.replies[1] <- reply{value: "late"}
		d.runNext(t)

		require.Empty(t, rec.results)
		_, ok := c.Result()
		require.False(t, ok)

		_, err := c.Submit(fakeRequest{id: 1})
		require.ErrorIs(t, err, ErrCoordinatorClosed)
	})

	t.Run("reset makes in-flight response stale", func(t *testing.T) {
		m := newManualFetch(1, 2)
		c, d, rec := setup(m)

		_, _ = c.Submit(fakeRequest{id: 1})
		m.replies[1] <- reply{value: "kept"}
		d.runNext(t)

		_, _ = c.Submit(fakeRequest{id: 2})
		c.Reset()
		m.replies[2] <- reply{value: "late"}
		d.runNext(t)

		_, ok := c.Result()
		require.False(t, ok)
		require.Equal(t, []string{"kept"}, rec.results)
	})
}
