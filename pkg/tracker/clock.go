package tracker

import (
	"time"

	"cloud.google.com/go/civil"
)

// Clock supplies the current calendar date
type Clock interface {
	Today() civil.Date
}

type locationClock struct {
	loc *time.Location
}

// NewClock returns a clock reading the wall time in loc
func NewClock(loc *time.Location) Clock {
	return &locationClock{loc: loc}
}

func (c *locationClock) Today() civil.Date {
	return civil.DateOf(time.Now().In(c.loc))
}

// FixedClock always returns the same date
type FixedClock civil.Date

// Today returns the fixed date
func (f FixedClock) Today() civil.Date {
	return civil.Date(f)
}
