package app

import (
	"context"
	"errors"
	"fmt"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/tickers"
	"quantdash/pkg/analytics"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	ErrViewNotMounted = errors.New("action not valid for the mounted page")
	ErrSessionClosed  = errors.New("session closed")
)

type SessionOptions struct {
	Client        analytics.Client
	Clock         clockwork.Clock
	Catalog       tickers.Catalog
	RefreshPeriod time.Duration
	BannerPeriod  time.Duration
}

// Session composes one browser tab's worth of state: the router, the
// mounted page, the market banner and the current notice. All of it lives
// on the session's loop.
type Session struct {
	ID string

	ctx    context.Context
	loop   *Loop
	deps   ViewDependencies
	router *Router
	view   View
	banner *BannerView
	notice *string

	subscribers      map[int]chan SessionSnapshot
	nextSubscriber   int
	publishScheduled bool
	closed           bool
}

func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	id := uuid.New().String()
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("sessionID", id))
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	s := &Session{
		ID:          id,
		ctx:         ctx,
		loop:        NewLoop(ctx),
		subscribers: map[int]chan SessionSnapshot{},
	}
	s.deps = ViewDependencies{
		Ctx:           ctx,
		Client:        opts.Client,
		Clock:         opts.Clock,
		Loop:          s.loop,
		Catalog:       opts.Catalog,
		RefreshPeriod: opts.RefreshPeriod,
		Notify:        s.setNotice,
		Changed:       s.schedulePublish,
	}

	err := s.loop.Do(func() error {
		s.router = NewRouter(s.loop, domain.Tab_Overview, s.switchView)
		s.deps.Navigate = s.router.Navigate
		s.view = s.newView(domain.Tab_Overview)
		s.view.Mount()
		s.banner = NewBannerView(s.deps, opts.BannerPeriod)
		s.banner.Mount()
		return nil
	})
	if err != nil {
		s.loop.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	logger.FromContext(ctx).Info("session started")
	return s, nil
}

// Do runs fn on the session loop.
func (s *Session) Do(fn func() error) error {
	err := s.loop.Do(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		return fn()
	})
	if errors.Is(err, ErrLoopClosed) {
		return ErrSessionClosed
	}
	return err
}

func (s *Session) Snapshot() (SessionSnapshot, error) {
	out := SessionSnapshot{}
	err := s.Do(func() error {
		out = s.snapshot()
		return nil
	})
	return out, err
}

// Navigate returns once the page switch has been applied.
func (s *Session) Navigate(tab domain.Tab) error {
	if _, err := domain.NewTab(string(tab)); err != nil {
		return err
	}
	if err := s.Do(func() error {
		s.router.Navigate(tab)
		return nil
	}); err != nil {
		return err
	}
	// the router applies on the following turn
	return s.Do(func() error { return nil })
}

// OpenModule runs a module card's action on the overview page and, like
// Navigate, returns once the resulting page switch has been applied.
func (s *Session) OpenModule(id domain.Tab) error {
	if err := s.WithOverview(func(v *OverviewView) error {
		return v.OpenModule(id)
	}); err != nil {
		return err
	}
	return s.Do(func() error { return nil })
}

func (s *Session) WithPortfolio(fn func(v *PortfolioView) error) error {
	return s.Do(func() error {
		v, ok := s.view.(*PortfolioView)
		if !ok {
			return fmt.Errorf("%w: %s is mounted", ErrViewNotMounted, s.view.Tab())
		}
		return fn(v)
	})
}

func (s *Session) WithSingleAsset(fn func(v *SingleAssetView) error) error {
	return s.Do(func() error {
		v, ok := s.view.(*SingleAssetView)
		if !ok {
			return fmt.Errorf("%w: %s is mounted", ErrViewNotMounted, s.view.Tab())
		}
		return fn(v)
	})
}

func (s *Session) WithOverview(fn func(v *OverviewView) error) error {
	return s.Do(func() error {
		v, ok := s.view.(*OverviewView)
		if !ok {
			return fmt.Errorf("%w: %s is mounted", ErrViewNotMounted, s.view.Tab())
		}
		return fn(v)
	})
}

// WithField finds the ticker input on the mounted page. Portfolio rows are
// addressed by row; the single asset page has one field and ignores it.
func (s *Session) WithField(row int, fn func(f *tickers.Field) error) error {
	return s.Do(func() error {
		var (
			field *tickers.Field
			err   error
		)
		switch v := s.view.(type) {
		case *PortfolioView:
			field, err = v.Field(row)
		case *SingleAssetView:
			field = v.Field()
		default:
			err = fmt.Errorf("%w: %s has no ticker field", ErrViewNotMounted, s.view.Tab())
		}
		if err != nil {
			return err
		}
		if err := fn(field); err != nil {
			return err
		}
		s.schedulePublish()
		return nil
	})
}

func (s *Session) DismissNotice() error {
	return s.Do(func() error {
		s.notice = nil
		s.schedulePublish()
		return nil
	})
}

// Subscribe delivers a snapshot after every change. Slow readers only ever
// see the latest one.
func (s *Session) Subscribe() (<-chan SessionSnapshot, func(), error) {
	var (
		id int
		ch = make(chan SessionSnapshot, 1)
	)
	err := s.Do(func() error {
		id = s.nextSubscriber
		s.nextSubscriber++
		s.subscribers[id] = ch
		ch <- s.snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	unsubscribe := func() {
		_ = s.Do(func() error {
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
			return nil
		})
	}
	return ch, unsubscribe, nil
}

// Close tears down the mounted page and the banner. Responses still in
// flight are dropped when they land.
func (s *Session) Close() {
	_ = s.loop.Do(func() error {
		if s.closed {
			return nil
		}
		s.closed = true
		s.view.Close()
		s.banner.Close()
		for id, ch := range s.subscribers {
			delete(s.subscribers, id)
			close(ch)
		}
		return nil
	})
	s.loop.Close()
	logger.FromContext(s.ctx).Info("session closed")
}

func (s *Session) newView(tab domain.Tab) View {
	switch tab {
	case domain.Tab_Portfolio:
		return NewPortfolioView(s.deps)
	case domain.Tab_SingleAsset:
		return NewSingleAssetView(s.deps)
	default:
		return NewOverviewView(s.deps)
	}
}

func (s *Session) switchView(from, to domain.Tab) {
	if s.closed {
		return
	}
	logger.FromContext(s.ctx).Infow("switching page", "from", from, "to", to)
	s.view.Close()
	s.view = s.newView(to)
	s.view.Mount()
	s.schedulePublish()
}

func (s *Session) setNotice(err error) {
	msg := err.Error()
	s.notice = &msg
	s.schedulePublish()
}

func (s *Session) snapshot() SessionSnapshot {
	var notice *string
	if s.notice != nil {
		msg := *s.notice
		notice = &msg
	}
	return SessionSnapshot{
		ID:        s.ID,
		ActiveTab: s.router.Active(),
		Notice:    notice,
		Banner:    s.banner.Snapshot(),
		View:      s.view.Snapshot(),
	}
}

// schedulePublish coalesces every change made within one loop turn into a
// single snapshot push.
func (s *Session) schedulePublish() {
	if s.publishScheduled || len(s.subscribers) == 0 {
		return
	}
	if s.loop.Post(s.publish) {
		s.publishScheduled = true
	}
}

func (s *Session) publish() {
	s.publishScheduled = false
	if s.closed {
		return
	}
	snapshot := s.snapshot()
	for _, ch := range s.subscribers {
		// keep only the newest
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
