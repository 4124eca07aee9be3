package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/attitude"
)

// Camera orbits the world origin. World axes are east, north, up.
type Camera struct {
	Azimuth   float64
	Elevation float64
	Distance  float64
	Zoom      float64
}

func NewCamera() *Camera {
	return &Camera{Azimuth: -0.6, Elevation: 0.35, Distance: 6, Zoom: 1}
}

func (c *Camera) Orbit(dAz, dEl float64) {
	c.Azimuth += dAz
	c.Elevation = math.Max(-1.5, math.Min(1.5, c.Elevation+dEl))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(4, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.25, c.Zoom/1.2) }

// view rotates a world point into camera space: x right, y up, z toward the viewer.
func (c *Camera) view(p mgl64.Vec3) mgl64.Vec3 {
	q := mgl64.QuatRotate(-c.Elevation, mgl64.Vec3{1, 0, 0}).
		Mul(mgl64.QuatRotate(-c.Azimuth, mgl64.Vec3{0, 0, 1}))
	p = q.Rotate(p)
	// world north/up become screen depth/up
	return mgl64.Vec3{p[0], p[2], -p[1]}
}

// Project maps a world point to dot coordinates on a w by h surface.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (int, int, float64, bool) {
	v := c.view(p).Mul(c.Zoom)
	if v[2] >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - v[2])
	scale := float64(min(w, h)) / 4
	x := int(v[0]*persp*scale) + w/2
	// dots are roughly twice as tall as wide
	y := int(-v[1]*persp*scale/2) + h/2
	return x, y, v[2], x >= 0 && x < w && y >= 0 && y < h
}

type Edge struct {
	Start, End mgl64.Vec3
	Dash       int
}

type Wireframe struct{ Edges []Edge }

func (w *Wireframe) Add(s, e mgl64.Vec3, dash int) {
	w.Edges = append(w.Edges, Edge{Start: s, End: e, Dash: dash})
}

// Render draws the wireframe onto the canvas.
func Render(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	cw, ch := c.Dots()
	for _, e := range w.Edges {
		x1, y1, _, v1 := cam.Project(e.Start, cw, ch)
		x2, y2, _, v2 := cam.Project(e.End, cw, ch)
		if v1 || v2 {
			c.DrawLine(x1, y1, x2, y2, e.Dash)
		}
	}
}

// VesselWireframe is a box for the body rotated by orientation, a nose line
// along body forward, a mast along body up and a dashed line to the target
// forward direction.
func VesselWireframe(orientation mgl64.Quat, target attitude.Desired) *Wireframe {
	w := &Wireframe{}
	half := mgl64.Vec3{0.5, 1, 0.35}
	var corners [8]mgl64.Vec3
	for i := range corners {
		p := mgl64.Vec3{-half[0], -half[1], -half[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				p[axis] = half[axis]
			}
		}
		corners[i] = orientation.Rotate(p)
	}
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if j := i | 1<<axis; j != i {
				w.Add(corners[i], corners[j], 0)
			}
		}
	}

	origin := mgl64.Vec3{}
	w.Add(origin, orientation.Rotate(attitude.BodyForward.Mul(2)), 0)
	w.Add(origin, orientation.Rotate(attitude.BodyUp.Mul(1)), 0)
	if !target.Null {
		w.Add(origin, target.Orientation.Rotate(attitude.BodyForward.Mul(2.2)), 3)
	}
	return w
}
