// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stage

import (
	"errors"
	"sync"

	"github.com/gogpu/stage/gl"
)

// ErrMaskStackUnderflow is returned by MaskSystem.Pop when the current
// mask stack is empty. Every push must be matched by exactly one pop on
// the same render target.
var ErrMaskStackUnderflow = errors.New("stage: mask pop without matching push")

// MaskType selects the technique used to apply a mask.
type MaskType int

const (
	// MaskNone marks a mask whose technique has not been decided yet.
	// Pushing it with AutoDetect set picks the cheapest correct type.
	MaskNone MaskType = iota

	// MaskScissor restricts rendering with the scissor rectangle. Only
	// axis-aligned rectangular masks qualify.
	MaskScissor

	// MaskStencil carves the mask shape into the stencil buffer and
	// tests subsequent draws against it.
	MaskStencil

	// MaskSprite samples a texture's alpha through the filter pipeline.
	MaskSprite
)

func (t MaskType) String() string {
	switch t {
	case MaskNone:
		return "none"
	case MaskScissor:
		return "scissor"
	case MaskStencil:
		return "stencil"
	case MaskSprite:
		return "sprite"
	}
	return "unknown"
}

// MaskData describes one entry of a mask stack: the mask shape, the
// technique used to apply it, and the working state the scissor and
// stencil systems attach while the mask is active.
//
// A mask is one of three shapes. Region with Transform describes a
// rectangle in world space; it can be applied with the scissor when
// Transform is axis-aligned and through the stencil buffer otherwise.
// SpriteTexture with Transform samples a texture's alpha over the
// masked content. Shape renders arbitrary geometry into the stencil
// buffer (or into a pooled texture when the device has no stencil).
type MaskData struct {
	// Type selects the masking technique. Leave MaskNone with
	// AutoDetect set to let Push decide.
	Type MaskType

	// AutoDetect lets Push replace Type with the cheapest technique
	// that renders this mask correctly.
	AutoDetect bool

	// Region is a rectangular mask in its own space, placed in the
	// world by Transform.
	Region Rect

	// Transform places Region or SpriteTexture in world space.
	Transform Matrix

	// SpriteTexture is the alpha source for sprite masks.
	SpriteTexture *Texture

	// Shape draws the mask geometry for stencil masks.
	Shape Renderable

	// TargetBounds is the world-space area the masked content covers.
	// Sprite masks capture it into a temporary texture; leaving it
	// empty captures the whole source frame.
	TargetBounds Rect

	// scissorRect is the device-space rectangle applied while this
	// scissor mask is active, already intersected with enclosing
	// scissor masks.
	scissorRect Rect

	// filter applies this sprite mask; owned by the mask system.
	filter *SpriteMaskFilter

	// renderedMask holds the pooled texture a Shape was rasterized
	// into when the sprite fallback is in effect.
	renderedMask *RenderTexture

	pooled bool
}

// NewMaskData returns a MaskData with an identity transform that picks
// its technique automatically when pushed.
func NewMaskData() *MaskData {
	return &MaskData{AutoDetect: true, Transform: Identity()}
}

func (m *MaskData) reset() {
	*m = MaskData{AutoDetect: true, Transform: Identity(), pooled: true}
}

var maskDataPool = sync.Pool{New: func() any { return NewMaskData() }}

// MaskSystem applies and removes masks. Masks nest: each push restricts
// rendering further and each pop restores the previous restriction. The
// stack itself belongs to the bound render target, so masks applied
// while rendering into a texture never leak onto the screen.
type MaskSystem struct {
	renderer *Renderer

	// maskStack points at the bound target's stack so appends are seen
	// by the owner.
	maskStack *[]*MaskData

	// spriteFilters pools one filter per sprite-mask nesting level.
	spriteFilters []*SpriteMaskFilter
	spriteDepth   int
}

func newMaskSystem(r *Renderer) *MaskSystem {
	return &MaskSystem{renderer: r}
}

// SetMaskStack points the system at a render target's stack and
// re-applies the scissor and stencil state the new stack calls for.
func (s *MaskSystem) SetMaskStack(stack *[]*MaskData) {
	if s.maskStack == stack {
		return
	}
	s.maskStack = stack
	s.renderer.Scissor.Reapply()
	s.renderer.Stencil.Reapply()
}

// Depth returns the number of masks on the current stack.
func (s *MaskSystem) Depth() int {
	if s.maskStack == nil {
		return 0
	}
	return len(*s.maskStack)
}

// stack returns the current stack contents.
func (s *MaskSystem) stack() []*MaskData {
	if s.maskStack == nil {
		return nil
	}
	return *s.maskStack
}

// Push applies md on top of the active masks. Pending batched geometry
// is flushed first so it is clipped by the state before the push.
func (s *MaskSystem) Push(md *MaskData) {
	s.renderer.Batch.Flush()

	if md.AutoDetect || md.Type == MaskNone {
		s.detect(md)
	}

	switch md.Type {
	case MaskScissor:
		s.renderer.Scissor.Push(md)
	case MaskStencil:
		s.renderer.Stencil.Push(md)
	case MaskSprite:
		s.pushSpriteMask(md)
	}

	if s.maskStack != nil {
		*s.maskStack = append(*s.maskStack, md)
	}
}

// PushRegion applies a rectangular mask placed by transform, drawing the
// MaskData from an internal pool. Pop returns it automatically.
func (s *MaskSystem) PushRegion(region Rect, transform Matrix) *MaskData {
	md := maskDataPool.Get().(*MaskData)
	md.reset()
	md.Region = region
	md.Transform = transform
	s.Push(md)
	return md
}

// PushSprite applies a texture's alpha as a mask, placed by transform.
func (s *MaskSystem) PushSprite(tex *Texture, transform Matrix) *MaskData {
	md := maskDataPool.Get().(*MaskData)
	md.reset()
	md.SpriteTexture = tex
	md.Transform = transform
	s.Push(md)
	return md
}

// PushShape applies arbitrary geometry as a mask. bounds is the
// world-space area the masked content covers; the sprite fallback
// rasterizes shape into a texture of that size when the device has no
// stencil buffer.
func (s *MaskSystem) PushShape(shape Renderable, bounds Rect) *MaskData {
	md := maskDataPool.Get().(*MaskData)
	md.reset()
	md.Shape = shape
	md.TargetBounds = bounds
	s.Push(md)
	return md
}

// Pop removes the top mask and restores the state of the one below it.
func (s *MaskSystem) Pop() error {
	s.renderer.Batch.Flush()

	st := s.stack()
	if len(st) == 0 {
		return ErrMaskStackUnderflow
	}
	md := st[len(st)-1]
	*s.maskStack = st[:len(st)-1]

	switch md.Type {
	case MaskScissor:
		s.renderer.Scissor.Pop(md)
	case MaskStencil:
		s.renderer.Stencil.Pop(md)
	case MaskSprite:
		s.popSpriteMask(md)
	}

	if md.pooled {
		md.reset()
		maskDataPool.Put(md)
	}
	return nil
}

// detect picks the cheapest technique that renders md correctly: the
// scissor for axis-aligned rectangles, the stencil buffer for other
// shapes, and a sampled texture when no stencil buffer exists.
func (s *MaskSystem) detect(md *MaskData) {
	switch {
	case md.SpriteTexture != nil:
		md.Type = MaskSprite
	case md.Shape == nil && md.Transform.IsScaleOnly():
		md.Type = MaskScissor
	case s.renderer.device().Caps().Features.Has(gl.FeatureStencil):
		md.Type = MaskStencil
	default:
		md.Type = MaskSprite
	}
}

func (s *MaskSystem) pushSpriteMask(md *MaskData) {
	tex := md.SpriteTexture
	transform := md.Transform
	if tex == nil {
		// Stencil fallback: rasterize the shape into a pooled texture
		// and sample that.
		md.renderedMask = s.renderShapeMask(md)
		if md.renderedMask == nil {
			Logger().Warn("mask dropped: no stencil support and nothing to sample")
			return
		}
		tex = md.renderedMask.Texture
		frame := md.renderedMask.filterFrame
		transform = Translate(frame.X, frame.Y)
	}

	if s.spriteDepth >= len(s.spriteFilters) {
		s.spriteFilters = append(s.spriteFilters, NewSpriteMaskFilter())
	}
	md.filter = s.spriteFilters[s.spriteDepth]
	s.spriteDepth++
	md.filter.SetMask(tex, transform)

	bounds := md.TargetBounds
	if bounds.IsEmpty() {
		bounds = s.renderer.RenderTexture.SourceFrame()
	}
	s.renderer.Filter.Push(bounds, md.filter)
}

func (s *MaskSystem) popSpriteMask(md *MaskData) {
	// A dropped sprite mask never pushed a filter; popping one here
	// would unbalance the filter stack.
	if md.filter != nil {
		s.renderer.Filter.Pop()
		s.spriteDepth--
		md.filter = nil
	}
	if md.renderedMask != nil {
		s.renderer.TexturePool.ReturnTexture(md.renderedMask)
		md.renderedMask = nil
	}
}

// renderShapeMask draws md.Shape alone into a pooled texture covering
// md.TargetBounds, restoring the previous render target afterwards.
func (s *MaskSystem) renderShapeMask(md *MaskData) *RenderTexture {
	if md.Shape == nil {
		return nil
	}
	bounds := md.TargetBounds
	if bounds.IsEmpty() {
		bounds = s.renderer.RenderTexture.SourceFrame()
	}

	rts := s.renderer.RenderTexture
	prev := rts.Current()
	prevSrc, prevDst := rts.SourceFrame(), rts.DestinationFrame()

	rt := s.renderer.TexturePool.GetOptimalTexture(bounds.Width, bounds.Height, s.renderer.Resolution())
	frame := bounds
	rt.filterFrame = &frame

	rts.Bind(rt, Rect{}, Rect{})
	rts.Clear(RGBA{}, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
	md.Shape.Render(s.renderer)
	s.renderer.Batch.Flush()
	rts.Bind(prev, prevSrc, prevDst)
	return rt
}
