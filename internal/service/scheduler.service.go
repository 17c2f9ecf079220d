package service

import (
	"context"
	"quantdash/internal/logger"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultRefreshPeriod = 300_000 * time.Millisecond

type SchedulerState string

const (
	SchedulerState_Idle      SchedulerState = "idle"
	SchedulerState_Scheduled SchedulerState = "scheduled"
	SchedulerState_Stopped   SchedulerState = "stopped"
)

// RefreshScheduler re-runs an analysis at a fixed period. At most one
// ticker is ever live: Start replaces the previous one instead of adding
// another. Start, Stop and the fire callback all run on the dispatcher's
// loop.
type RefreshScheduler struct {
	name       string
	ctx        context.Context
	clock      clockwork.Clock
	period     time.Duration
	dispatcher Dispatcher
	fire       func()

	state      SchedulerState
	generation uint64
	ticker     clockwork.Ticker
	stop       chan struct{}
}

func NewRefreshScheduler(
	ctx context.Context,
	name string,
	clock clockwork.Clock,
	period time.Duration,
	dispatcher Dispatcher,
	fire func(),
) *RefreshScheduler {
	if period <= 0 {
		period = DefaultRefreshPeriod
	}
	return &RefreshScheduler{
		name:       name,
		ctx:        ctx,
		clock:      clock,
		period:     period,
		dispatcher: dispatcher,
		fire:       fire,
		state:      SchedulerState_Idle,
	}
}

// Start (re)arms the periodic firing. The first firing comes one full
// period after the call.
func (s *RefreshScheduler) Start() {
	s.release()
	s.generation++
	gen := s.generation
	s.state = SchedulerState_Scheduled

	ticker := s.clock.NewTicker(s.period)
	stop := make(chan struct{})
	s.ticker = ticker
	s.stop = stop

	logger.FromContext(s.ctx).Debugw("refresh scheduled", "scheduler", s.name, "period", s.period.String(), "generation", gen)

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				if !s.dispatcher.Post(func() { s.tick(gen) }) {
					return
				}
			}
		}
	}()
}

// Stop is synchronous: once it returns no further firing happens, even one
// already queued on the loop.
func (s *RefreshScheduler) Stop() {
	s.release()
	s.generation++
	if s.state == SchedulerState_Scheduled {
		logger.FromContext(s.ctx).Debugw("refresh stopped", "scheduler", s.name)
	}
	s.state = SchedulerState_Stopped
}

func (s *RefreshScheduler) State() SchedulerState {
	return s.state
}

func (s *RefreshScheduler) Period() time.Duration {
	return s.period
}

func (s *RefreshScheduler) tick(gen uint64) {
	if s.state != SchedulerState_Scheduled || gen != s.generation {
		return
	}
	logger.FromContext(s.ctx).Debugw("refresh firing", "scheduler", s.name, "generation", gen)
	s.fire()
}

func (s *RefreshScheduler) release() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
