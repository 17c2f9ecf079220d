package domain

import (
	"encoding/json"
	"sync"
	"time"
)

// Span times one remote call made while building a result.
type Span struct {
	Name    string    `json:"name"`
	startTs time.Time `json:"-"`
	Elapsed *int64    `json:"elapsed"`
}

// Profile is simply a list of spans. Spans may be started and ended from
// several goroutines.
type Profile struct {
	mu      sync.Mutex
	Spans   []*Span `json:"spans"`
	startTs time.Time
	TotalMs *int64 `json:"totalMs"`
}

func NewProfile() (newProfile *Profile, endNewProfile func()) {
	newProfile = &Profile{
		Spans:   []*Span{},
		startTs: time.Now(),
	}
	return newProfile, newProfile.End
}

func (p *Profile) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TotalMs == nil {
		t := time.Since(p.startTs).Milliseconds()
		p.TotalMs = &t
	}
}

// StartSpan adds a span that runs until endSpan is called
func (p *Profile) StartSpan(name string) (newSpan *Span, endSpan func()) {
	newSpan = &Span{
		Name:    name,
		startTs: time.Now(),
	}
	p.mu.Lock()
	p.Spans = append(p.Spans, newSpan)
	p.mu.Unlock()
	return newSpan, func() { p.endSpan(newSpan) }
}

func (p *Profile) endSpan(s *Span) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Elapsed == nil {
		t := time.Since(s.startTs).Milliseconds()
		s.Elapsed = &t
	}
}

func (p *Profile) ToJsonBytes() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bytes, err := json.Marshal(p.Spans)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
