package filter

import "gonum.org/v1/gonum/stat"

// anomalyGateM is the maximum plausible jump, in meters, between
// consecutive readings of the same ultrasonic direction. Ultrasonic
// glitches routinely report multi-meter jumps that are physically
// impossible at walking speed; this gate kills them (spec §4.1).
const anomalyGateM = 1.5

// obstacleRing is a fixed-capacity FIFO of nullable distance samples. Nulls
// are appended as-is (they mark "nothing detected") but excluded from the
// mean. A new non-null sample that deviates from the most recent non-null
// sample by more than anomalyGateM is rejected outright: it is not
// appended, and the ring's last valid mean is returned unchanged.
type obstacleRing struct {
	buf        []*float64
	capacity   int
	lastMean   float64
	haveMean   bool
	lastNonNil *float64
}

func newObstacleRing(capacity int) *obstacleRing {
	return &obstacleRing{buf: make([]*float64, 0, capacity), capacity: capacity}
}

func (r *obstacleRing) clear() {
	r.buf = r.buf[:0]
	r.lastMean = 0
	r.haveMean = false
	r.lastNonNil = nil
}

func (r *obstacleRing) len() int { return len(r.buf) }

// push applies anomaly rejection and returns the filtered value: the mean
// of non-null samples in the window, or nil if the window holds no non-null
// samples yet.
func (r *obstacleRing) push(sample *float64) *float64 {
	if sample != nil && r.lastNonNil != nil {
		delta := *sample - *r.lastNonNil
		if delta < 0 {
			delta = -delta
		}
		if delta > anomalyGateM {
			// Reject: do not append, return the last valid mean unchanged.
			if r.haveMean {
				v := r.lastMean
				return &v
			}
			return nil
		}
	}

	r.append(sample)
	if sample != nil {
		v := *sample
		r.lastNonNil = &v
	}

	nonNull := make([]float64, 0, len(r.buf))
	for _, s := range r.buf {
		if s != nil {
			nonNull = append(nonNull, *s)
		}
	}
	if len(nonNull) == 0 {
		return nil
	}
	m := stat.Mean(nonNull, nil)
	r.lastMean = m
	r.haveMean = true
	return &m
}

func (r *obstacleRing) append(sample *float64) {
	r.buf = append(r.buf, sample)
	if len(r.buf) > r.capacity {
		r.buf = r.buf[1:]
	}
}
