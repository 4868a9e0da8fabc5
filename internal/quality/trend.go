package quality

import "math"

// TrendTracker keeps a bounded history of overall quality scores and
// answers simple trend questions over it. Oldest points are evicted
// first when the capacity is reached.
type TrendTracker struct {
	capacity int
	points   []float64
}

// NewTrendTracker creates a tracker holding at most capacity points.
// capacity <= 0 selects a default of 20.
func NewTrendTracker(capacity int) *TrendTracker {
	if capacity <= 0 {
		capacity = 20
	}
	return &TrendTracker{capacity: capacity}
}

// Add records a score, evicting the oldest point when full.
func (t *TrendTracker) Add(score float64) {
	t.points = append(t.points, score)
	if len(t.points) > t.capacity {
		t.points = t.points[len(t.points)-t.capacity:]
	}
}

// Len returns the number of recorded points.
func (t *TrendTracker) Len() int { return len(t.points) }

// Points returns a copy of the recorded history, oldest first.
func (t *TrendTracker) Points() []float64 {
	out := make([]float64, len(t.points))
	copy(out, t.points)
	return out
}

// IsDeclining reports whether the last n points are strictly
// decreasing. Fewer than n recorded points, or n < 2, is false.
func (t *TrendTracker) IsDeclining(n int) bool {
	if n < 2 || len(t.points) < n {
		return false
	}
	window := t.points[len(t.points)-n:]
	for i := 1; i < len(window); i++ {
		if window[i] >= window[i-1] {
			return false
		}
	}
	return true
}

// IsPlateaued reports whether the score moved less than threshold
// between the first and last point of the trailing window. Fewer than
// window points is false.
func (t *TrendTracker) IsPlateaued(window int, threshold float64) bool {
	if window < 2 || len(t.points) < window {
		return false
	}
	span := t.points[len(t.points)-window:]
	return math.Abs(span[len(span)-1]-span[0]) < threshold
}

// MovingAverage returns the mean of the trailing window points, or of
// all points when fewer are recorded. Zero when empty.
func (t *TrendTracker) MovingAverage(window int) float64 {
	if len(t.points) == 0 || window <= 0 {
		return 0
	}
	if window > len(t.points) {
		window = len(t.points)
	}
	span := t.points[len(t.points)-window:]
	sum := 0.0
	for _, p := range span {
		sum += p
	}
	return sum / float64(window)
}
