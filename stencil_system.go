package stage

import "github.com/gogpu/stage/gl"

// StencilSystem applies masks through the stencil buffer. Each active
// mask increments the stencil value over the pixels it covers, and draws
// are tested against the nesting depth, so content renders only where
// every active mask overlaps.
type StencilSystem struct {
	renderer *Renderer

	// enabled mirrors the device stencil-test toggle.
	enabled bool
}

func newStencilSystem(r *Renderer) *StencilSystem {
	return &StencilSystem{renderer: r}
}

// depth counts the stencil masks on the current stack.
func (s *StencilSystem) depth() int {
	n := 0
	for _, md := range s.renderer.Mask.stack() {
		if md.Type == MaskStencil {
			n++
		}
	}
	return n
}

// Push carves md's shape into the stencil buffer, incrementing the
// value where it lands inside the enclosing masks, then arms the test
// for the new depth. The mask system calls it before md joins the
// stack.
func (s *StencilSystem) Push(md *MaskData) {
	dev := s.renderer.device()
	prev := s.depth()
	if prev == 0 {
		dev.SetStencilTest(true)
		s.enabled = true
	}

	// Write phase. Color output is suppressed; only pixels already
	// covered by every enclosing mask are incremented.
	dev.ColorMask(false, false, false, false)
	dev.StencilFunc(gl.Equal, prev, 0xFFFFFFFF)
	dev.StencilOp(gl.StencilKeep, gl.StencilKeep, gl.StencilIncr)
	s.renderShape(md)
	s.renderer.Batch.Flush()

	s.useCurrent(prev + 1)
}

// Pop erases md's contribution by redrawing its shape with a decrement,
// then re-arms the test for the remaining depth. When the last stencil
// mask leaves, the buffer is cleared and the test disabled. md has
// already left the stack.
func (s *StencilSystem) Pop(md *MaskData) {
	dev := s.renderer.device()
	cur := s.depth()
	if cur == 0 {
		dev.SetStencilTest(false)
		s.enabled = false
		dev.Clear(gl.StencilBufferBit)
		return
	}

	dev.ColorMask(false, false, false, false)
	dev.StencilFunc(gl.Equal, cur+1, 0xFFFFFFFF)
	dev.StencilOp(gl.StencilKeep, gl.StencilKeep, gl.StencilDecr)
	s.renderShape(md)
	s.renderer.Batch.Flush()

	s.useCurrent(cur)
}

// Reapply puts the stencil test back in sync with the current mask
// stack after a stack swap. The stencil contents live in the target's
// own buffer, so only the test configuration needs restoring.
func (s *StencilSystem) Reapply() {
	d := s.depth()
	if d > 0 {
		s.renderer.device().SetStencilTest(true)
		s.enabled = true
		s.useCurrent(d)
		return
	}
	if s.enabled {
		s.renderer.device().SetStencilTest(false)
		s.enabled = false
	}
}

// useCurrent restores color output and tests subsequent draws against
// the given mask depth without modifying the buffer.
func (s *StencilSystem) useCurrent(depth int) {
	dev := s.renderer.device()
	dev.ColorMask(true, true, true, true)
	dev.StencilFunc(gl.Equal, depth, 0xFFFFFFFF)
	dev.StencilOp(gl.StencilKeep, gl.StencilKeep, gl.StencilKeep)
}

// renderShape draws the mask geometry: the custom shape when one is
// set, otherwise md's rectangle pushed through the batcher so rotated
// region masks work without a dedicated pipeline.
func (s *StencilSystem) renderShape(md *MaskData) {
	if md.Shape != nil {
		md.Shape.Render(s.renderer)
		return
	}
	q := &stencilQuad{tex: s.renderer.Texture.emptyTexture}
	corners := [4]Point{
		md.Transform.TransformPoint(Point{X: md.Region.X, Y: md.Region.Y}),
		md.Transform.TransformPoint(Point{X: md.Region.Right(), Y: md.Region.Y}),
		md.Transform.TransformPoint(Point{X: md.Region.Right(), Y: md.Region.Bottom()}),
		md.Transform.TransformPoint(Point{X: md.Region.X, Y: md.Region.Bottom()}),
	}
	for i, p := range corners {
		q.verts[i*2] = float32(p.X)
		q.verts[i*2+1] = float32(p.Y)
	}
	s.renderer.Batch.Add(q)
}

// stencilQuad is the batchable quad stencil masks are carved with.
type stencilQuad struct {
	verts [8]float32
	tex   *BaseTexture
}

var (
	stencilQuadUVs     = []float32{0, 0, 1, 0, 1, 1, 0, 1}
	stencilQuadIndices = []uint16{0, 1, 2, 0, 2, 3}
)

func (q *stencilQuad) BatchVertexData() []float32 { return q.verts[:] }
func (q *stencilQuad) BatchUVs() []float32        { return stencilQuadUVs }
func (q *stencilQuad) BatchIndices() []uint16     { return stencilQuadIndices }
func (q *stencilQuad) BatchTexture() *BaseTexture { return q.tex }
func (q *stencilQuad) BatchBlendMode() BlendMode  { return BlendNormal }
func (q *stencilQuad) BatchTint() uint32          { return 0xFFFFFF }
func (q *stencilQuad) BatchAlpha() float64        { return 1 }
