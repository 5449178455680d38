package watchdog

import "time"

// MetricPoint is one observation in a time-ordered series.
type MetricPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricRing is a fixed-capacity FIFO series of recent observations.
// Not safe for concurrent use; the evaluation loop is the sole writer and
// guards reads with its own lock.
type MetricRing struct {
	capacity int
	points   []MetricPoint
}

func NewMetricRing(capacity int) *MetricRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &MetricRing{capacity: capacity, points: make([]MetricPoint, 0, capacity)}
}

// Push appends a point, evicting the oldest when at capacity.
func (r *MetricRing) Push(value float64, ts time.Time) {
	if len(r.points) == r.capacity {
		copy(r.points, r.points[1:])
		r.points = r.points[:len(r.points)-1]
	}
	r.points = append(r.points, MetricPoint{Value: value, Timestamp: ts})
}

func (r *MetricRing) Len() int { return len(r.points) }

// Points returns a copy of the series, oldest first.
func (r *MetricRing) Points() []MetricPoint {
	out := make([]MetricPoint, len(r.points))
	copy(out, r.points)
	return out
}

// Last returns a copy of the most recent n points, oldest first.
// If fewer than n points exist, all are returned.
func (r *MetricRing) Last(n int) []MetricPoint {
	if n > len(r.points) {
		n = len(r.points)
	}
	out := make([]MetricPoint, n)
	copy(out, r.points[len(r.points)-n:])
	return out
}

// Values returns just the values, oldest first.
func (r *MetricRing) Values() []float64 {
	out := make([]float64, len(r.points))
	for i, p := range r.points {
		out[i] = p.Value
	}
	return out
}

func mean(points []MetricPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	return sum / float64(len(points))
}

func meanValues(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
