package stage

import "math"

// ScissorSystem applies rectangular masks with the device scissor test.
// Nested scissor masks only ever intersect: the active rectangle never
// grows while masks are pushed.
type ScissorSystem struct {
	renderer *Renderer

	// enabled mirrors the device scissor-test toggle.
	enabled bool
}

func newScissorSystem(r *Renderer) *ScissorSystem {
	return &ScissorSystem{renderer: r}
}

// top returns the innermost active scissor mask, or nil.
func (s *ScissorSystem) top() *MaskData {
	stack := s.renderer.Mask.stack()
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Type == MaskScissor {
			return stack[i]
		}
	}
	return nil
}

// Push computes md's device-space rectangle, intersects it with the
// enclosing scissor mask and applies it. The mask system calls it before
// md joins the stack.
func (s *ScissorSystem) Push(md *MaskData) {
	world := scaleTranslateRect(md.Region, md.Transform)
	rect := s.deviceRect(world)
	if prev := s.top(); prev != nil {
		rect = rect.Intersect(prev.scissorRect)
	}
	md.scissorRect = rect
	s.apply(rect)
}

// Pop restores the rectangle of the scissor mask below md, or disables
// the scissor test when none remains. md has already left the stack.
func (s *ScissorSystem) Pop(md *MaskData) {
	s.Reapply()
}

// Reapply puts the device scissor state back in sync with the current
// mask stack. The render-texture system calls it after a partial clear,
// and the mask system after a stack swap.
func (s *ScissorSystem) Reapply() {
	if t := s.top(); t != nil {
		s.apply(t.scissorRect)
		return
	}
	if s.enabled {
		s.renderer.device().SetScissorTest(false)
		s.enabled = false
	}
}

// deviceRect maps a world-space rectangle into device pixels of the
// bound render target, through the active source-to-destination frame
// mapping and the target resolution.
func (s *ScissorSystem) deviceRect(world Rect) Rect {
	rts := s.renderer.RenderTexture
	src := rts.SourceFrame()
	dst := rts.DestinationFrame()
	if src.Width <= 0 || src.Height <= 0 {
		return Rect{}
	}
	res := s.renderer.Resolution()
	if cur := rts.Current(); cur != nil {
		res = cur.Base.Resolution()
	}
	sx := dst.Width / src.Width
	sy := dst.Height / src.Height
	return R(
		((world.X-src.X)*sx+dst.X)*res,
		((world.Y-src.Y)*sy+dst.Y)*res,
		world.Width*sx*res,
		world.Height*sy*res,
	)
}

func (s *ScissorSystem) apply(rect Rect) {
	x := int(math.Round(rect.X))
	y := int(math.Round(rect.Y))
	w := int(math.Round(rect.Right())) - x
	h := int(math.Round(rect.Bottom())) - y
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if s.renderer.RenderTexture.Current() == nil {
		// The backbuffer's scissor origin is its bottom-left corner.
		_, ph := s.renderer.pixelSize()
		y = ph - y - h
	}
	dev := s.renderer.device()
	if !s.enabled {
		dev.SetScissorTest(true)
		s.enabled = true
	}
	dev.Scissor(x, y, w, h)
}

// scaleTranslateRect maps r through an axis-aligned transform,
// normalizing negative scales.
func scaleTranslateRect(r Rect, m Matrix) Rect {
	p0 := m.TransformPoint(Point{X: r.X, Y: r.Y})
	p1 := m.TransformPoint(Point{X: r.Right(), Y: r.Bottom()})
	x0 := math.Min(p0.X, p1.X)
	y0 := math.Min(p0.Y, p1.Y)
	x1 := math.Max(p0.X, p1.X)
	y1 := math.Max(p0.Y, p1.Y)
	return R(x0, y0, x1-x0, y1-y0)
}
