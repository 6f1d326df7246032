package filter

import "github.com/open-eyes/handheld/internal/model"

const (
	// MinWindow and MaxWindow bound the configurable window capacity W.
	MinWindow     = 2
	MaxWindow     = 20
	DefaultWindow = 5
)

// Filter is a streaming moving-average pre-processor. It owns five sliding
// windows — one per IMU axis (yaw, pitch, roll) and one each for the upper
// and lower obstacle distances — as the only mutable state in the
// perception pipeline (spec §4.1, §9 "mutable windows").
//
// The ObstaclePair model carries two distances (upper and lower), so there
// are two obstacle windows, not one per sweep direction.
type Filter struct {
	window int

	yaw, pitch, roll *ring
	upper, lower     *obstacleRing
}

// New builds a Filter with the given window capacity, clamped to
// [MinWindow, MaxWindow].
func New(window int) *Filter {
	if window < MinWindow {
		window = MinWindow
	}
	if window > MaxWindow {
		window = MaxWindow
	}
	f := &Filter{window: window}
	f.Reset()
	return f
}

// Reset clears all five windows, discarding history.
func (f *Filter) Reset() {
	f.yaw = newRing(f.window)
	f.pitch = newRing(f.window)
	f.roll = newRing(f.window)
	f.upper = newObstacleRing(f.window)
	f.lower = newObstacleRing(f.window)
}

// IsWarmedUp reports whether every window holds a full W samples.
func (f *Filter) IsWarmedUp() bool {
	return f.yaw.len() >= f.window &&
		f.pitch.len() >= f.window &&
		f.roll.len() >= f.window &&
		f.upper.len() >= f.window &&
		f.lower.len() >= f.window
}

func filterAxis(r *ring, raw float64) float64 {
	r.push(raw)
	if r.len() < 2 {
		return raw
	}
	return r.mean()
}

func filterDirection(r *obstacleRing, raw *float64) *float64 {
	filtered := r.push(raw)
	if r.len() < 2 {
		return raw
	}
	return filtered
}

// Filter pushes packet's IMU and obstacle readings into their windows and
// returns a packet with those fields replaced by the current window mean
// (or, during warm-up / anomaly rejection, the appropriate passthrough or
// held value per spec §4.1). All other fields (water, GPS, timestamp,
// servo angle) pass through unchanged.
func (f *Filter) Filter(p model.Packet) model.Packet {
	out := p

	out.IMU = model.IMU{
		Yaw:   filterAxis(f.yaw, p.IMU.Yaw),
		Pitch: filterAxis(f.pitch, p.IMU.Pitch),
		Roll:  filterAxis(f.roll, p.IMU.Roll),
	}

	out.Obstacles.Upper = filterDirection(f.upper, p.Obstacles.Upper)
	out.Obstacles.Lower = filterDirection(f.lower, p.Obstacles.Lower)

	return out
}
