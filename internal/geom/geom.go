// Package geom holds the small amount of 2D math shared by the canvas,
// viewport and renderers.
package geom

import "math"

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool { return Finite(p.X) && Finite(p.Y) }

// Mid returns the straight-line midpoint of a and b.
func Mid(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Quad evaluates the quadratic curve p0 -> c -> p1 at t in [0, 1].
func Quad(p0, c, p1 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
	}
}

type Size struct {
	W, H float64
}

func (s Size) Center() Point { return Point{s.W / 2, s.H / 2} }

func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Rect is an axis-aligned box. The zero Rect is empty and absorbs the first
// point passed to Extend.
type Rect struct {
	Min, Max Point
	set      bool
}

func (r Rect) Extend(p Point) Rect {
	if !r.set {
		return Rect{Min: p, Max: p, set: true}
	}
	r.Min.X = math.Min(r.Min.X, p.X)
	r.Min.Y = math.Min(r.Min.Y, p.Y)
	r.Max.X = math.Max(r.Max.X, p.X)
	r.Max.Y = math.Max(r.Max.Y, p.Y)
	return r
}

func (r Rect) Empty() bool { return !r.set }

func (r Rect) Center() Point { return Mid(r.Min, r.Max) }

func (r Rect) Contains(p Point) bool {
	return r.set && p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// RectAround returns the box of size s centered on c.
func RectAround(c Point, s Size) Rect {
	return Rect{
		Min: Point{c.X - s.W/2, c.Y - s.H/2},
		Max: Point{c.X + s.W/2, c.Y + s.H/2},
		set: true,
	}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
