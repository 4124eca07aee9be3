package attitude

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// DefaultJumpThreshold is how far the target may move in one tick before the
// controller history is considered stale.
const DefaultJumpThreshold = 10 * math.Pi / 180

// Tracker remembers the previous tick's target and flags discontinuities.
type Tracker struct {
	Threshold float64

	last Desired
	seen bool
}

func NewTracker(threshold float64) *Tracker {
	if !dynamo.IsFinite(threshold) || threshold <= 0 {
		threshold = DefaultJumpThreshold
	}
	return &Tracker{Threshold: threshold}
}

// Observe records d and reports whether it moved more than Threshold from
// the previous target. Switching into or out of a null target is a jump.
func (t *Tracker) Observe(d Desired) bool {
	prev, seen := t.last, t.seen
	t.last, t.seen = d, true
	if !seen {
		return false
	}
	if prev.Null || d.Null {
		return prev.Null != d.Null
	}
	return Separation(prev, d) > t.Threshold
}

func (t *Tracker) Reset() {
	t.last, t.seen = Desired{}, false
}

// Separation is the angle between two targets. When either leaves roll free
// only the forward axes are compared.
func Separation(a, b Desired) float64 {
	if a.FreeRoll || b.FreeRoll {
		fa := a.Orientation.Rotate(BodyForward)
		fb := b.Orientation.Rotate(BodyForward)
		return math.Atan2(fa.Cross(fb).Len(), fa.Dot(fb))
	}
	return quatAngle(a.Orientation, b.Orientation)
}

func quatAngle(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return 2 * math.Acos(dynamo.Clamp(d, 0, 1))
}
