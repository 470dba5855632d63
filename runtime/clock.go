package runtime

import (
	"time"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

type clock struct {
	now   func() time.Time
	start time.Time
}

func newClock(s *settings) *lang.LibraryInstance {
	c := &clock{now: s.now}
	getter := func(fn func(t time.Time) lang.Value) lang.Property {
		return lang.Property{Get: func(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
			e.Push(fn(c.now()))
		}}
	}
	number := func(fn func(t time.Time) int) lang.Property {
		return getter(func(t time.Time) lang.Value { return lang.NumberValue(float64(fn(t))) })
	}
	return &lang.LibraryInstance{
		ID: lang.LibraryClock,
		Properties: map[string]lang.Property{
			"Time":        getter(func(t time.Time) lang.Value { return lang.StringValue(t.Format("3:04:05 PM")) }),
			"Date":        getter(func(t time.Time) lang.Value { return lang.StringValue(t.Format("1/2/2006")) }),
			"Year":        number(time.Time.Year),
			"Month":       number(func(t time.Time) int { return int(t.Month()) }),
			"Day":         number(time.Time.Day),
			"Hour":        number(time.Time.Hour),
			"Minute":      number(time.Time.Minute),
			"Second":      number(time.Time.Second),
			"Millisecond": number(func(t time.Time) int { return t.Nanosecond() / int(time.Millisecond) }),
			// ElapsedMilliseconds counts from the start of the program.
			"ElapsedMilliseconds": number(func(t time.Time) int { return int(t.Sub(c.start).Milliseconds()) }),
		},
		Install: func(*lang.Engine) {
			c.start = c.now()
		},
	}
}
