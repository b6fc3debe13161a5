package render

import (
	"math"
	"sort"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

// Camera projects LED positions onto a 2D surface. World Z is up.
type Camera struct {
	RotX, RotY float64 // tilt and spin, radians
	Zoom       float64
	Distance   float64 // eye distance in units of the largest box side
}

func DefaultCamera() Camera {
	return Camera{RotX: -0.35, RotY: 0.6, Zoom: 1, Distance: 4}
}

// Point is a projected LED. Depth grows toward the viewer.
type Point struct {
	Index int
	X, Y  float64
	Depth float64
}

// Project maps p, which lies inside b, onto a w by h surface. Axes are scaled
// by one common factor so the box keeps its aspect ratio.
func (c Camera) Project(p pixel.Vec3, b Bounds, w, h float64) (Point, bool) {
	ext := b.Extent()
	span := math.Max(ext.X, math.Max(ext.Y, ext.Z))
	if span == 0 {
		span = 1
	}
	ctr := b.Center()
	x := (p.X - ctr.X) / span
	y := (p.Z - ctr.Z) / span
	z := (p.Y - ctr.Y) / span

	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	x, z = x*cy+z*sy, -x*sy+z*cy
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	y, z = y*cx-z*sx, y*sx+z*cx

	zoom := c.Zoom
	if zoom == 0 {
		zoom = 1
	}
	dist := c.Distance
	if dist <= 0 {
		dist = 4
	}
	if z >= dist {
		return Point{}, false
	}
	scale := dist / (dist - z) * zoom * math.Min(w, h) * 0.8

	pt := Point{X: x*scale + w/2, Y: -y*scale + h/2, Depth: z}
	return pt, pt.X >= 0 && pt.X < w && pt.Y >= 0 && pt.Y < h
}

// ProjectAll projects every visible location, farthest first so that nearer
// LEDs paint over farther ones.
func (c Camera) ProjectAll(locs []pixel.Vec3, b Bounds, w, h float64) []Point {
	out := make([]Point, 0, len(locs))
	for i, p := range locs {
		pt, ok := c.Project(p, b, w, h)
		if !ok {
			continue
		}
		pt.Index = i
		out = append(out, pt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}
