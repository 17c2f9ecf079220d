package app

import (
	"context"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/tickers"
	"quantdash/pkg/analytics"
	"time"

	"github.com/jonboulle/clockwork"
)

// View is one mounted page. Every method runs on the session loop.
type View interface {
	Tab() domain.Tab
	Mount()
	Close()
	Snapshot() interface{}
}

// ViewDependencies is everything a page needs from its session. Views get
// navigation and notices as callbacks and never reach back into the
// session itself.
type ViewDependencies struct {
	Ctx           context.Context
	Client        analytics.Client
	Clock         clockwork.Clock
	Loop          *Loop
	Catalog       tickers.Catalog
	RefreshPeriod time.Duration

	Navigate NavigateFunc
	// Notify surfaces a dismissible notice.
	Notify func(err error)
	// Changed publishes a fresh snapshot to subscribers.
	Changed func()
}

func (d ViewDependencies) notify(err error) {
	if d.Notify != nil {
		d.Notify(err)
	}
}

func (d ViewDependencies) changed() {
	if d.Changed != nil {
		d.Changed()
	}
}

func logProfile(ctx context.Context, name string, profile *domain.Profile, endProfile func()) {
	endProfile()
	spans, err := profile.ToJsonBytes()
	if err != nil {
		return
	}
	logger.FromContext(ctx).Debugw(name, "totalMs", *profile.TotalMs, "spans", string(spans))
}
