package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so fixtures and tests can freeze time via SetClock.
// Results carry a SolvedAt stamp; a fake clock keeps fixtures deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for solving. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
