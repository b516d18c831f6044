package clock

import (
	"sync"
	"time"
)

// DateLayout is the watermark format for calendar days.
const DateLayout = "2006-01-02"

type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is deterministic and test-friendly.
type Fake struct {
	mu sync.Mutex
	t  time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{t: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Today returns the calendar day of c in loc as YYYY-MM-DD.
func Today(c Clock, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return c.Now().In(loc).Format(DateLayout)
}
