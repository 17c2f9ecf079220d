package tickers

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// BlurGracePeriod delays the focus-loss commit long enough for a
// mouse-down selection on a suggestion to land first.
const BlurGracePeriod = 200 * time.Millisecond

// Dispatcher runs fn on the owner's event loop.
type Dispatcher interface {
	Post(fn func()) bool
}

// Field is the state behind one ticker search input. Every method must be
// called on the owner's event loop; the delayed blur commit is posted back
// to the same loop.
type Field struct {
	catalog    Catalog
	clock      clockwork.Clock
	dispatcher Dispatcher
	onCommit   func(symbol string)

	text            string
	suggestions     []string
	showSuggestions bool

	pendingBlur clockwork.Timer
	blurGen     uint64
	closed      bool
}

func NewField(
	catalog Catalog,
	clock clockwork.Clock,
	dispatcher Dispatcher,
	value string,
	onCommit func(symbol string),
) *Field {
	return &Field{
		catalog:     catalog,
		clock:       clock,
		dispatcher:  dispatcher,
		onCommit:    onCommit,
		text:        value,
		suggestions: []string{},
	}
}

func (f *Field) Text() string {
	return f.text
}

// Suggestions is empty whenever the panel is hidden.
func (f *Field) Suggestions() []string {
	if !f.showSuggestions {
		return []string{}
	}
	out := make([]string, len(f.suggestions))
	copy(out, f.suggestions)
	return out
}

// SetValue syncs the field with the authoritative value held by the model.
func (f *Field) SetValue(value string) {
	f.text = value
}

func (f *Field) Type(text string) {
	f.text = NormalizeInput(text)
	f.refresh()
}

func (f *Field) Focus() {
	if f.text != "" {
		f.refresh()
	}
}

// Select commits symbol right away and cancels any focus-loss commit that
// is still waiting out its grace period.
func (f *Field) Select(symbol string) {
	f.cancelBlur()
	f.text = NormalizeInput(symbol)
	f.hide()
	f.commit(f.text)
}

// Blur commits whatever is typed once BlurGracePeriod has passed, unless a
// Select lands in between.
func (f *Field) Blur() {
	if f.closed {
		return
	}
	f.cancelBlur()
	gen := f.blurGen
	f.pendingBlur = f.clock.AfterFunc(BlurGracePeriod, func() {
		f.dispatcher.Post(func() {
			if f.closed || gen != f.blurGen {
				return
			}
			f.pendingBlur = nil
			f.hide()
			f.commit(f.text)
		})
	})
}

func (f *Field) Close() {
	f.cancelBlur()
	f.closed = true
}

func (f *Field) cancelBlur() {
	f.blurGen++
	if f.pendingBlur != nil {
		f.pendingBlur.Stop()
		f.pendingBlur = nil
	}
}

func (f *Field) refresh() {
	f.suggestions = f.catalog.Search(f.text)
	f.showSuggestions = len(f.suggestions) > 0
}

func (f *Field) hide() {
	f.showSuggestions = false
	f.suggestions = []string{}
}

func (f *Field) commit(symbol string) {
	if f.closed || f.onCommit == nil {
		return
	}
	f.onCommit(symbol)
}

func NormalizeInput(text string) string {
	return strings.ToUpper(text)
}
