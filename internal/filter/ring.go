// Package filter implements the sliding-window moving-average and anomaly
// rejection pre-processor that sits between the raw packet stream and the
// temporal-state derivation stage (spec §4.1).
package filter

import "gonum.org/v1/gonum/stat"

// ring is a fixed-capacity FIFO of float64 samples. Pushing past capacity
// drops the oldest sample. Together with obstacleRing it is the only
// mutable state owned by Filter.
type ring struct {
	buf      []float64
	capacity int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, 0, capacity), capacity: capacity}
}

func (r *ring) push(v float64) {
	r.buf = append(r.buf, v)
	if len(r.buf) > r.capacity {
		r.buf = r.buf[1:]
	}
}

func (r *ring) len() int { return len(r.buf) }

func (r *ring) clear() { r.buf = r.buf[:0] }

// mean returns the arithmetic mean of the stored samples, or 0 if empty.
func (r *ring) mean() float64 {
	if len(r.buf) == 0 {
		return 0
	}
	return stat.Mean(r.buf, nil)
}

func (r *ring) last() (float64, bool) {
	if len(r.buf) == 0 {
		return 0, false
	}
	return r.buf[len(r.buf)-1], true
}
