package stage

import "math"

// Rect is an axis-aligned rectangle with float64 coordinates.
// Width and Height may be zero; such rectangles are considered empty.
type Rect struct {
	X, Y, Width, Height float64
}

// R is a convenience function to create a Rect.
func R(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	if r.IsEmpty() {
		return false
	}
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersect returns the intersection of two rectangles.
// If they do not overlap, the zero Rect is returned.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Union returns the smallest rectangle containing both r and o.
// Empty rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Pad grows the rectangle by p on every side. Negative p shrinks it.
func (r Rect) Pad(p float64) Rect {
	return Rect{X: r.X - p, Y: r.Y - p, Width: r.Width + 2*p, Height: r.Height + 2*p}
}

// ceilEps absorbs float noise when snapping rectangle edges, so that a
// width of 99.99999999 does not round up to 101.
const ceilEps = 0.001

// Ceil snaps the rectangle outward to the pixel grid of the given
// resolution: the origin floors, the far edges ceil.
func (r Rect) Ceil(resolution float64) Rect {
	x1 := math.Ceil((r.X+r.Width-ceilEps)*resolution) / resolution
	y1 := math.Ceil((r.Y+r.Height-ceilEps)*resolution) / resolution
	x0 := math.Floor((r.X+ceilEps)*resolution) / resolution
	y0 := math.Floor((r.Y+ceilEps)*resolution) / resolution
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Fit clamps the rectangle to lie within bounds. The result may be empty.
func (r Rect) Fit(bounds Rect) Rect {
	return r.Intersect(bounds)
}
