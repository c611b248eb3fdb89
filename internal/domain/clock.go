package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze the evaluation
// year via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for the recency window. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// CurrentYear returns the evaluation year for the recency window.
func CurrentYear() int {
	return clock.Now().Year()
}
