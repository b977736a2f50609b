package stage

import (
	"math"

	"github.com/gogpu/stage/gl"
)

// RenderTextureSystem routes rendering between the screen and render
// textures. Binding a target flushes pending batches, binds the right
// framebuffer and viewport, updates the projection and swaps in the
// target's mask stack.
type RenderTextureSystem struct {
	renderer *Renderer

	// current is the bound target; nil means the screen.
	current *RenderTexture

	sourceFrame      Rect
	destinationFrame Rect

	// viewportFrame is destinationFrame in device pixels, flipped to
	// GL's bottom-left origin when rendering to the screen.
	viewportFrame Rect

	// defaultMaskStack holds the masks active while the screen is the
	// target.
	defaultMaskStack []*MaskData
}

func newRenderTextureSystem(r *Renderer) *RenderTextureSystem {
	return &RenderTextureSystem{renderer: r}
}

// Current returns the bound render texture, nil when drawing to the
// screen.
func (s *RenderTextureSystem) Current() *RenderTexture { return s.current }

// SourceFrame returns the world-space frame being rendered.
func (s *RenderTextureSystem) SourceFrame() Rect { return s.sourceFrame }

// DestinationFrame returns the target-space frame receiving it.
func (s *RenderTextureSystem) DestinationFrame() Rect { return s.destinationFrame }

// ViewportFrame returns the destination frame in device pixels, in GL
// viewport orientation.
func (s *RenderTextureSystem) ViewportFrame() Rect { return s.viewportFrame }

// Bind makes rt the render target; nil selects the screen. Zero frames
// choose the target's natural frames: the full texture (or its filter
// frame) and a destination of equal size at the origin.
func (s *RenderTextureSystem) Bind(rt *RenderTexture, sourceFrame, destinationFrame Rect) {
	s.renderer.Batch.Flush()
	s.current = rt

	var resolution float64
	if rt != nil {
		base := rt.BaseRT
		resolution = base.Resolution()
		if sourceFrame.IsEmpty() {
			if rt.filterFrame != nil {
				sourceFrame = *rt.filterFrame
			} else {
				sourceFrame = rt.Frame()
			}
		}
		if destinationFrame.IsEmpty() {
			destinationFrame = R(0, 0, sourceFrame.Width, sourceFrame.Height)
		}
		s.viewportFrame = scaleFrame(destinationFrame, resolution)
		s.renderer.Framebuffer.Bind(base.Framebuffer, s.viewportFrame)
		s.renderer.Projection.Update(destinationFrame, sourceFrame, false)
		s.renderer.Mask.SetMaskStack(&base.maskStack)
	} else {
		resolution = s.renderer.Resolution()
		if sourceFrame.IsEmpty() {
			sourceFrame = s.renderer.Screen()
		}
		if destinationFrame.IsEmpty() {
			destinationFrame = sourceFrame
		}
		vf := scaleFrame(destinationFrame, resolution)
		// The backbuffer's origin is bottom left.
		_, ph := s.renderer.pixelSize()
		vf.Y = float64(ph) - (vf.Y + vf.Height)
		s.viewportFrame = vf
		s.renderer.Framebuffer.Bind(nil, vf)
		s.renderer.Projection.Update(destinationFrame, sourceFrame, true)
		s.renderer.Mask.SetMaskStack(&s.defaultMaskStack)
	}
	s.sourceFrame = sourceFrame
	s.destinationFrame = destinationFrame
}

// Clear fills the selected buffers of the bound target with color. When
// the destination frame covers only part of the target, the clear is
// scissored to it.
func (s *RenderTextureSystem) Clear(color RGBA, mask gl.ClearMask) {
	dev := s.renderer.device()

	full := s.renderer.Screen()
	if s.current != nil {
		full = s.current.Frame()
	}
	partial := s.destinationFrame.Width != full.Width ||
		s.destinationFrame.Height != full.Height
	if partial {
		vf := s.viewportFrame
		dev.SetScissorTest(true)
		dev.Scissor(int(vf.X), int(vf.Y), int(vf.Width), int(vf.Height))
	}

	pm := color.Premultiply()
	s.renderer.Framebuffer.Clear(
		float32(pm.R), float32(pm.G), float32(pm.B), float32(pm.A), mask)

	if partial {
		s.renderer.Scissor.Reapply()
	}
}

// Flush resolves multisampled contents of the current target. Called by
// the filter and render paths before the target's texture is sampled.
func (s *RenderTextureSystem) Flush() {
	s.renderer.Framebuffer.Blit()
}

func scaleFrame(frame Rect, resolution float64) Rect {
	return R(
		math.Round(frame.X*resolution),
		math.Round(frame.Y*resolution),
		math.Round(frame.Width*resolution),
		math.Round(frame.Height*resolution),
	)
}
