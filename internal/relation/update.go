package relation

import (
	"math"
	"time"
)

// ApplyDelta clamps r.Score+delta into bounds and returns the change actually
// applied. A zero result leaves r untouched; otherwise the change is appended
// to the history (oldest entries dropped beyond opts.HistoryLimit) and
// LastInteraction is set to now.
func ApplyDelta(r *Record, delta int, reason string, now time.Time, opts Options) int {
	next := opts.clamp(addSat(r.Score, delta))
	actual := next - r.Score
	if actual == 0 {
		return 0
	}
	r.Score = next
	r.History = append(r.History, Adjustment{Timestamp: now, Delta: actual, Reason: reason})
	if opts.HistoryLimit > 0 && len(r.History) > opts.HistoryLimit {
		r.History = append([]Adjustment(nil), r.History[len(r.History)-opts.HistoryLimit:]...)
	}
	r.LastInteraction = now
	return actual
}

// touch records an interaction without changing the score.
func touch(r *Record, now time.Time) {
	r.InteractionCount++
	r.LastInteraction = now
}

// addSat adds a and b, saturating at the int range instead of wrapping.
func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
