package runtime

import (
	"math"
	"time"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

// timer raises Tick once per interval. The engine never sleeps, so the
// interval is checked at statement boundaries: a tick fires at the first
// boundary after it is due, and ticks missed while a handler runs are dropped.
type timer struct {
	now      func() time.Time
	interval time.Duration
	next     time.Time
	running  bool
}

// maxIntervalMs is the longest interval a time.Duration can hold.
const maxIntervalMs = float64(math.MaxInt64 / int64(time.Millisecond))

func newTimer(s *settings) *lang.LibraryInstance {
	t := &timer{now: s.now}
	return &lang.LibraryInstance{
		ID: lang.LibraryTimer,
		Methods: map[string]lang.Method{
			"Pause": {Execute: func(*lang.Engine, lang.Mode, diagnostics.Range) {
				t.running = false
			}},
			"Resume": {Execute: func(*lang.Engine, lang.Mode, diagnostics.Range) {
				t.start()
			}},
		},
		Properties: map[string]lang.Property{
			"Interval": {Set: t.setInterval},
		},
		Events: map[string]bool{"Tick": true},
		Install: func(e *lang.Engine) {
			e.AddStatementHook(t.tick)
		},
	}
}

func (t *timer) setInterval(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	ms := popNumber(e)
	switch {
	case !(ms > 0):
		t.interval = 0
		t.running = false
		return
	case ms >= maxIntervalMs:
		t.interval = math.MaxInt64
	default:
		t.interval = time.Duration(ms * float64(time.Millisecond))
	}
	t.start()
}

func (t *timer) start() {
	if t.interval <= 0 {
		return
	}
	t.running = true
	t.next = t.now().Add(t.interval)
}

func (t *timer) tick(e *lang.Engine) {
	if !t.running {
		return
	}
	now := t.now()
	if now.Before(t.next) {
		return
	}
	t.next = now.Add(t.interval)
	if e.RaiseEvent(lang.LibraryTimer, "Tick") {
		e.Logger().Debug("timer tick", "interval", t.interval)
	}
}
