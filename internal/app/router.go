package app

import (
	"quantdash/internal/domain"
	"quantdash/internal/service"
)

// NavigateFunc is handed to views so they can ask for a page change
// without knowing who owns the active tab.
type NavigateFunc func(tab domain.Tab)

// Router holds the single active tab. Requests are applied on a later loop
// turn and coalesce: only the last target requested before that turn is
// applied.
type Router struct {
	dispatcher service.Dispatcher
	onChange   func(from, to domain.Tab)

	active    domain.Tab
	pending   *domain.Tab
	scheduled bool
}

func NewRouter(dispatcher service.Dispatcher, initial domain.Tab, onChange func(from, to domain.Tab)) *Router {
	return &Router{
		dispatcher: dispatcher,
		onChange:   onChange,
		active:     initial,
	}
}

func (r *Router) Active() domain.Tab {
	return r.active
}

func (r *Router) Navigate(tab domain.Tab) {
	r.pending = &tab
	if r.scheduled {
		return
	}
	if r.dispatcher.Post(r.process) {
		r.scheduled = true
	}
}

func (r *Router) process() {
	r.scheduled = false
	if r.pending == nil {
		return
	}
	to := *r.pending
	r.pending = nil
	if to == r.active {
		return
	}

	from := r.active
	r.active = to
	if r.onChange != nil {
		r.onChange(from, to)
	}
}
