// Package viewport maps canvas coordinates to screen coordinates through a
// zoom scale and a pan offset:
//
//	screen = (canvas + offset) × scale
//
// Gestures (pan, pinch) work from a base captured when the gesture begins,
// so successive frames never compound rounding error and a cancelled
// gesture falls back to the last committed state.
package viewport

import (
	"treemind/internal/geom"
)

const (
	MinScale = 0.4
	MaxScale = 3.0

	// DefaultPanSensitivity damps screen deltas so panning is slower than
	// the pointer.
	DefaultPanSensitivity = 0.25
)

type Viewport struct {
	scale  float64
	offset geom.Point

	panSensitivity float64

	zoomBase float64
	zooming  bool
	panBase  geom.Point
	panning  bool
}

func New() *Viewport {
	return &Viewport{
		scale:          1,
		zoomBase:       1,
		panSensitivity: DefaultPanSensitivity,
	}
}

// SetPanSensitivity overrides the pan damping. Values outside (0, 1] are
// ignored.
func (v *Viewport) SetPanSensitivity(k float64) {
	if k > 0 && k <= 1 {
		v.panSensitivity = k
	}
}

func (v *Viewport) Scale() float64 { return v.scale }

func (v *Viewport) Offset() geom.Point { return v.offset }

func (v *Viewport) ToScreen(p geom.Point) geom.Point {
	return p.Add(v.offset).Scale(v.scale)
}

func (v *Viewport) ToCanvas(s geom.Point) geom.Point {
	return s.Scale(1 / v.scale).Sub(v.offset)
}

// ScreenDeltaToCanvas converts a pointer delta into canvas units, damped by
// sensitivity.
func (v *Viewport) ScreenDeltaToCanvas(d geom.Point, sensitivity float64) geom.Point {
	return d.Scale(sensitivity / v.scale)
}

// CenterOn moves the offset so p renders at the center of a view of the
// given size.
func (v *Viewport) CenterOn(p geom.Point, view geom.Size) {
	if !p.Finite() || view.Empty() {
		return
	}
	v.offset = geom.Point{
		X: view.W/2/v.scale - p.X,
		Y: view.H/2/v.scale - p.Y,
	}
	if !v.panning {
		v.panBase = v.offset
	}
}

// ZoomBy adds delta to the scale and re-centers on focus so the view does
// not drift.
func (v *Viewport) ZoomBy(delta float64, focus geom.Point, view geom.Size) {
	if !geom.Finite(delta) {
		return
	}
	v.scale = clampScale(v.scale + delta)
	if !v.zooming {
		v.zoomBase = v.scale
	}
	v.CenterOn(focus, view)
}

func (v *Viewport) BeginZoom() {
	v.zoomBase = v.scale
	v.zooming = true
}

// UpdateZoom applies the live pinch magnification to the scale captured by
// BeginZoom.
func (v *Viewport) UpdateZoom(magnification float64) {
	if !v.zooming || !geom.Finite(magnification) || magnification <= 0 {
		return
	}
	v.scale = clampScale(v.zoomBase * magnification)
}

func (v *Viewport) EndZoom() {
	if !v.zooming {
		return
	}
	v.zoomBase = v.scale
	v.zooming = false
}

func (v *Viewport) CancelZoom() {
	if !v.zooming {
		return
	}
	v.scale = v.zoomBase
	v.zooming = false
}

func (v *Viewport) Zooming() bool { return v.zooming }

func (v *Viewport) BeginPan() {
	v.panBase = v.offset
	v.panning = true
}

// UpdatePan sets the offset to the gesture base plus the damped,
// scale-corrected screen delta accumulated since BeginPan.
func (v *Viewport) UpdatePan(screenDelta geom.Point) {
	if !v.panning || !screenDelta.Finite() {
		return
	}
	v.offset = v.panBase.Add(v.ScreenDeltaToCanvas(screenDelta, v.panSensitivity))
}

func (v *Viewport) EndPan() {
	if !v.panning {
		return
	}
	v.panBase = v.offset
	v.panning = false
}

func (v *Viewport) CancelPan() {
	if !v.panning {
		return
	}
	v.offset = v.panBase
	v.panning = false
}

func (v *Viewport) Panning() bool { return v.panning }

func clampScale(s float64) float64 {
	return geom.Clamp(s, MinScale, MaxScale)
}
