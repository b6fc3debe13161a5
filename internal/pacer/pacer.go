// Package pacer enforces a minimum wall-clock interval between presents.
//
// The default strategy polls the monotonic clock instead of sleeping: coarse
// timers overshoot sub-10ms intervals on several platforms. Hybrid trades a
// little precision for CPU by sleeping first and polling the remainder.
package pacer

import (
	"runtime"
	"strings"
	"time"

	"github.com/coreman2200/neopixelsim/internal/simerr"
)

// Strategy blocks until deadline has passed.
type Strategy interface {
	WaitUntil(deadline time.Time)
}

// BusyWait polls the clock, yielding the processor between polls.
type BusyWait struct{}

func (BusyWait) WaitUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}

// Hybrid sleeps until Slack before the deadline, then polls.
type Hybrid struct {
	Slack time.Duration
}

// DefaultSlack covers one scheduler tick on common desktop kernels.
const DefaultSlack = 2 * time.Millisecond

func (h Hybrid) WaitUntil(deadline time.Time) {
	slack := h.Slack
	if slack <= 0 {
		slack = DefaultSlack
	}
	if d := time.Until(deadline) - slack; d > 0 {
		time.Sleep(d)
	}
	BusyWait{}.WaitUntil(deadline)
}

// ParseStrategy maps "busy" or "hybrid" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "busy":
		return BusyWait{}, nil
	case "hybrid":
		return Hybrid{Slack: DefaultSlack}, nil
	}
	return nil, simerr.Configf("unknown pacing strategy %q (want busy or hybrid)", name)
}

// Pacer gates presents. It is not safe for concurrent use.
type Pacer struct {
	interval time.Duration
	strategy Strategy
	last     time.Time
	now      func() time.Time
}

// New returns a Pacer; a nil strategy means BusyWait. An interval <= 0
// disables pacing.
func New(interval time.Duration, s Strategy) *Pacer {
	if s == nil {
		s = BusyWait{}
	}
	if interval < 0 {
		interval = 0
	}
	return &Pacer{interval: interval, strategy: s, now: time.Now}
}

func (p *Pacer) Interval() time.Duration { return p.interval }

// Gate waits until at least Interval has passed since the previous gate's
// release, then stamps and returns the new frame time.
func (p *Pacer) Gate() time.Time {
	if p.interval > 0 && !p.last.IsZero() {
		p.strategy.WaitUntil(p.last.Add(p.interval))
	}
	p.last = p.now()
	return p.last
}

// Last returns the previous frame time, zero before the first Gate.
func (p *Pacer) Last() time.Time { return p.last }

// Reset forgets the previous frame so the next Gate returns at once.
func (p *Pacer) Reset() { p.last = time.Time{} }
