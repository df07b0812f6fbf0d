// Package clock provides the wall clock used for frame timestamps and
// rate sampling, replaceable by a mock in tests.
package clock

import (
	"github.com/benbjohnson/clock"
)

type Clock = clock.Clock
type Mock = clock.Mock
type Ticker = clock.Ticker

var globalClock Clock = clock.New()

func Get() Clock {
	return globalClock
}

// Or returns clk if it is not nil, and the global clock otherwise.
func Or(clk Clock) Clock {
	if clk != nil {
		return clk
	}
	return globalClock
}

func NewMock() *Mock {
	return clock.NewMock()
}
