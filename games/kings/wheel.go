package kings

import (
	"math"
	"time"
)

const (
	// MinimumSpin is how far every spin turns before the random offset, in
	// degrees.
	MinimumSpin = 1800 + 360*3
)

// Timing holds the animation delays. The client animates with the same
// values, so the winner reported here is where the wheel visibly stops.
type Timing struct {
	Spin   time.Duration `json:"spin"`
	Settle time.Duration `json:"settle"`
}

var DefaultTiming = Timing{
	Spin:   4 * time.Second,
	Settle: 1500 * time.Millisecond,
}

// Spin describes one accepted spin, for the animation.
type Spin struct {
	From     int           `json:"from"`
	To       int           `json:"to"`
	Duration time.Duration `json:"duration"`
}

// Wheel splits the circle into one equal segment per player, in roster
// order, clockwise from the pointer at the top. Rotation only ever grows so
// the wheel always turns the same way.
type Wheel struct {
	segments int
	duration time.Duration
	rng      Random

	rotation int
	spinning bool
}

// NewWheel builds a wheel with a fixed number of segments.
func NewWheel(segments int, duration time.Duration, rng Random) *Wheel {
	return &Wheel{
		segments: segments,
		duration: duration,
		rng:      rng,
	}
}

func (w *Wheel) Segments() int {
	return w.segments
}

func (w *Wheel) Rotation() int {
	return w.rotation
}

func (w *Wheel) Spinning() bool {
	return w.spinning
}

// Spin starts the wheel. The caller is expected to call Stop once the
// returned duration has elapsed.
func (w *Wheel) Spin() (Spin, error) {
	if w.spinning {
		return Spin{}, ErrAlreadySpinning
	}

	from := w.rotation
	w.rotation += MinimumSpin + w.rng.Intn(360)
	w.spinning = true

	return Spin{
		From:     from,
		To:       w.rotation,
		Duration: w.duration,
	}, nil
}

// Stop resolves the current spin and returns the winning segment. It
// succeeds exactly once per spin.
func (w *Wheel) Stop() (int, error) {
	if !w.spinning {
		return 0, ErrNotSpinning
	}

	w.spinning = false

	return SegmentIndex(w.rotation, w.segments), nil
}

// SegmentIndex maps a final rotation in degrees to the segment under the
// pointer.
func SegmentIndex(rotation, segments int) int {
	if segments <= 0 {
		return 0
	}

	final := ((rotation % 360) + 360) % 360
	pointer := (360 - final) % 360
	i := int(math.Floor(float64(pointer) / (360 / float64(segments))))

	return min(max(i, 0), segments-1)
}
