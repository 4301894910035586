package training

import "math"

// earlyStopTracker maintains the best validation error seen, a patience
// counter that increments on non-improving epochs and resets on strict
// improvement, and the epoch at which the best error was observed.
type earlyStopTracker struct {
	patience  int
	best      float64
	bestEpoch int
	counter   int
}

func newEarlyStopTracker(patience int) *earlyStopTracker {
	return &earlyStopTracker{
		patience:  patience,
		best:      math.Inf(1),
		bestEpoch: -1,
	}
}

// observe records one epoch's validation error. improved is true only on a
// strictly lower error than the best seen so far; stop is true once patience
// consecutive non-improving epochs have accumulated.
func (s *earlyStopTracker) observe(epoch int, validationError float64) (improved, stop bool) {
	if validationError < s.best {
		s.best = validationError
		s.bestEpoch = epoch
		s.counter = 0
		return true, false
	}
	s.counter++
	return false, s.counter >= s.patience
}
