package fractal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// PixelsPerLine converts line based scrolling into pixels.
	PixelsPerLine = 12.0
	// PixelsPerHalfScale is how many scrolled pixels halve the scale.
	PixelsPerHalfScale = 50.0

	// MotionEpsilon is the smallest cursor movement that updates a drag.
	MotionEpsilon = 0.0001
	// ScrollEpsilon is the smallest scroll amount that zooms.
	ScrollEpsilon = 0.001
)

// ScrollUnit is the unit of a scroll delta.
type ScrollUnit uint8

const (
	ScrollLines ScrollUnit = iota
	ScrollPixels
)

// Pixels converts a scroll amount in unit u to pixels.
func (u ScrollUnit) Pixels(amount float64) float64 {
	if u == ScrollLines {
		return amount * PixelsPerLine
	}
	return amount
}

// Viewport is the logical rectangle the fractal is drawn into, in the same
// coordinates as the cursor (y down).
type Viewport struct {
	Origin mgl64.Vec2
	Size   mgl64.Vec2
}

// Empty reports whether v has no area, including inverted rectangles.
func (v Viewport) Empty() bool {
	return !(v.Size[0] > 0 && v.Size[1] > 0)
}

// Contains reports whether p lies inside v.
func (v Viewport) Contains(p mgl64.Vec2) bool {
	d := p.Sub(v.Origin)
	return d[0] >= 0 && d[1] >= 0 && d[0] < v.Size[0] && d[1] < v.Size[1]
}

// PixelsPerUnit is the number of pixels spanning one normalized unit. The
// longer side of the viewport spans two units.
func (v Viewport) PixelsPerUnit() float64 {
	return math.Max(v.Size[0], v.Size[1]) / 2
}

// Aspect is the width over height of v, or 0 when v is empty.
func (v Viewport) Aspect() float64 {
	if v.Empty() {
		return 0
	}
	return v.Size[0] / v.Size[1]
}

// Normalize maps a cursor position to viewport-centred normalized
// coordinates with y up. World position is Normalize(p)*scale + offset.
func (v Viewport) Normalize(p mgl64.Vec2) mgl64.Vec2 {
	centred := p.Sub(v.Origin).Sub(v.Size.Mul(0.5))
	ppu := v.PixelsPerUnit()
	return mgl64.Vec2{centred[0] / ppu, -centred[1] / ppu}
}

// World returns the world position under cursor p for the view of s.
func (v Viewport) World(s *State, p mgl64.Vec2) mgl64.Vec2 {
	return v.Normalize(p).Mul(s.Scale).Add(s.Offset)
}

// DragState is the drag in progress. Every pan frame is computed from the
// start values so that long drags do not accumulate rounding error.
type DragState struct {
	StartCursor    mgl64.Vec2
	PreviousCursor mgl64.Vec2
	StartOffset    mgl64.Vec2
}

// ViewTransform pans and zooms a State from pointer input. It is idle when
// no drag is held.
//
// All arithmetic is float64 regardless of the evaluation tier.
type ViewTransform struct {
	drag *DragState
}

// Dragging reports whether a drag is in progress.
func (t *ViewTransform) Dragging() bool {
	return t.drag != nil
}

// Drag returns the drag in progress, if any.
func (t *ViewTransform) Drag() (DragState, bool) {
	if t.drag == nil {
		return DragState{}, false
	}
	return *t.drag, true
}

// Press starts a drag when the primary button goes down inside vp.
func (t *ViewTransform) Press(s *State, vp Viewport, cursor mgl64.Vec2) bool {
	if s == nil || vp.Empty() || !vp.Contains(cursor) {
		return false
	}

	t.drag = &DragState{
		StartCursor:    cursor,
		PreviousCursor: cursor,
		StartOffset:    s.Offset,
	}
	return true
}

// Release ends any drag, wherever the cursor is.
func (t *ViewTransform) Release() {
	t.drag = nil
}

// Move pans s while a drag is held. It reports whether s changed.
func (t *ViewTransform) Move(s *State, vp Viewport, cursor mgl64.Vec2) bool {
	if t.drag == nil || s == nil {
		return false
	}
	if vp.Empty() {
		Logger().Warn("skipping pan on empty viewport", "size", vp.Size)
		return false
	}

	delta := t.drag.PreviousCursor.Sub(cursor)
	if math.Abs(delta[0]) <= MotionEpsilon && math.Abs(delta[1]) <= MotionEpsilon {
		return false
	}

	// Offset moves against the cursor; screen y points down.
	total := t.drag.StartCursor.Sub(cursor)
	ppu := vp.PixelsPerUnit()
	scaled := mgl64.Vec2{total[0] / ppu * s.Scale, -total[1] / ppu * s.Scale}

	s.Offset = t.drag.StartOffset.Add(scaled)
	t.drag.PreviousCursor = cursor
	return true
}

// Scroll zooms s around cursor so that the world point under the cursor
// stays put. Positive amounts zoom in. It reports whether s changed.
func (t *ViewTransform) Scroll(s *State, vp Viewport, cursor mgl64.Vec2, amount float64, unit ScrollUnit) bool {
	if s == nil || math.Abs(amount) <= ScrollEpsilon {
		return false
	}
	if vp.Empty() {
		Logger().Warn("skipping zoom on empty viewport", "size", vp.Size)
		return false
	}

	pixels := unit.Pixels(amount)
	scale := s.Scale * math.Exp2(-pixels/PixelsPerHalfScale)
	if !(scale > 0) || math.IsInf(scale, 0) {
		return false
	}

	normalized := vp.Normalize(cursor)
	world := normalized.Mul(s.Scale).Add(s.Offset)

	s.Scale = scale
	s.Offset = world.Sub(normalized.Mul(scale))

	// Re-anchor so the next pan frame starts from the zoomed view.
	if t.drag != nil {
		t.drag.StartCursor = cursor
		t.drag.PreviousCursor = cursor
		t.drag.StartOffset = s.Offset
	}
	return true
}
