package stage

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

// GLFramebuffer is the GPU side of a Framebuffer on one context.
type GLFramebuffer struct {
	FB gl.Framebuffer

	// DepthStencil is the combined depth/stencil renderbuffer, when the
	// framebuffer asked for either.
	DepthStencil gl.Renderbuffer

	// MSAA is the multisampled color renderbuffer and ResolveFB the
	// single-sampled framebuffer holding the color texture the samples
	// resolve into. Both are nil when Samples <= 1.
	MSAA      gl.Renderbuffer
	ResolveFB gl.Framebuffer

	// Samples is the effective sample count after clamping to the device.
	Samples int

	DirtyID     int
	DirtyFormat int
	DirtySize   int
}

// FramebufferSystem owns GPU framebuffers: creation, attachment updates,
// resizes, multisample resolves and the viewport.
type FramebufferSystem struct {
	renderer *Renderer

	// current is the bound framebuffer; nil means the backbuffer.
	current *Framebuffer

	viewport [4]int

	managed map[int]*Framebuffer
}

func newFramebufferSystem(r *Renderer) *FramebufferSystem {
	return &FramebufferSystem{
		renderer: r,
		managed:  make(map[int]*Framebuffer),
	}
}

// ContextChange drops the GPU records of the previous context.
func (s *FramebufferSystem) ContextChange(oldUID int) {
	for _, f := range s.managed {
		delete(f.glFramebuffers, oldUID)
		f.removeListener(s)
	}
	s.managed = make(map[int]*Framebuffer)
	s.current = nil
	s.viewport = [4]int{}
}

// Current returns the bound framebuffer, nil for the backbuffer.
func (s *FramebufferSystem) Current() *Framebuffer { return s.current }

// Viewport returns the active viewport in device pixels.
func (s *FramebufferSystem) Viewport() (x, y, width, height int) {
	return s.viewport[0], s.viewport[1], s.viewport[2], s.viewport[3]
}

// Bind makes fb the render target and sets the viewport to frame. A nil
// fb selects the backbuffer; an empty frame selects the full target.
func (s *FramebufferSystem) Bind(fb *Framebuffer, frame Rect) error {
	dev := s.renderer.device()
	if fb == nil {
		if s.current != nil {
			s.current = nil
			dev.BindFramebuffer(nil)
		}
		if frame.IsEmpty() {
			w, h := s.renderer.pixelSize()
			s.SetViewport(0, 0, w, h)
		} else {
			s.SetViewport(int(frame.X), int(frame.Y), int(frame.Width), int(frame.Height))
		}
		return nil
	}

	glfb, err := s.glFramebuffer(fb)
	if err != nil {
		return err
	}
	if s.current != fb {
		s.current = fb
		dev.BindFramebuffer(glfb.FB)
	}
	if glfb.DirtyID != fb.dirtyID {
		glfb.DirtyID = fb.dirtyID
		switch {
		case glfb.DirtyFormat != fb.dirtyFormat:
			glfb.DirtyFormat = fb.dirtyFormat
			glfb.DirtySize = fb.dirtySize
			s.updateFramebuffer(fb, glfb)
		case glfb.DirtySize != fb.dirtySize:
			glfb.DirtySize = fb.dirtySize
			s.resizeFramebuffer(fb, glfb)
		}
	}
	if frame.IsEmpty() {
		s.SetViewport(0, 0, fb.width, fb.height)
	} else {
		s.SetViewport(int(frame.X), int(frame.Y), int(frame.Width), int(frame.Height))
	}
	return nil
}

// Unbind returns rendering to the backbuffer at full size.
func (s *FramebufferSystem) Unbind() {
	s.Bind(nil, Rect{})
}

// SetViewport sets the drawable region, skipping redundant calls.
func (s *FramebufferSystem) SetViewport(x, y, width, height int) {
	v := [4]int{x, y, width, height}
	if v == s.viewport {
		return
	}
	s.viewport = v
	s.renderer.device().Viewport(x, y, width, height)
}

// Clear fills the selected buffers of the bound target.
func (s *FramebufferSystem) Clear(r, g, b, a float32, mask gl.ClearMask) {
	dev := s.renderer.device()
	dev.ClearColor(r, g, b, a)
	dev.Clear(mask)
}

// Blit resolves the multisampled samples of the bound framebuffer into
// its color texture. A no-op for single-sampled targets.
func (s *FramebufferSystem) Blit() {
	fb := s.current
	if fb == nil {
		return
	}
	glfb := fb.glFramebuffers[s.renderer.contextUID()]
	if glfb == nil || glfb.Samples <= 1 || glfb.ResolveFB == nil {
		return
	}
	s.renderer.device().BlitFramebuffer(glfb.FB, glfb.ResolveFB, fb.width, fb.height)
}

// glFramebuffer returns the GPU copy of fb on the current context,
// creating an empty one on first use; Bind fills the attachments.
func (s *FramebufferSystem) glFramebuffer(fb *Framebuffer) (*GLFramebuffer, error) {
	uid := s.renderer.contextUID()
	if glfb, ok := fb.glFramebuffers[uid]; ok {
		return glfb, nil
	}
	raw, err := s.renderer.device().NewFramebuffer()
	if err != nil {
		return nil, err
	}
	glfb := &GLFramebuffer{FB: raw, DirtyID: -1, DirtyFormat: -1, DirtySize: -1}
	fb.glFramebuffers[uid] = glfb
	if _, ok := s.managed[fb.UID]; !ok {
		s.managed[fb.UID] = fb
		fb.addListener(s)
	}
	return glfb, nil
}

// updateFramebuffer builds the attachment set. Requires glfb.FB bound.
func (s *FramebufferSystem) updateFramebuffer(fb *Framebuffer, glfb *GLFramebuffer) {
	dev := s.renderer.device()
	glfb.Samples = s.detectSamples(fb.multisample)

	if glfb.Samples > 1 {
		s.attachMultisampled(fb, glfb)
	} else {
		for i, base := range fb.colorTextures {
			if base == nil {
				continue
			}
			s.renderer.Texture.Bind(base, 0)
			if glt := base.glTextures[s.renderer.contextUID()]; glt != nil {
				glfb.FB.AttachColor(i, glt.Tex)
			}
		}
	}

	if fb.depthTexture != nil && dev.Caps().Features.Has(gl.FeatureDepthTexture) {
		s.renderer.Texture.Bind(fb.depthTexture, 0)
		if glt := fb.depthTexture.glTextures[s.renderer.contextUID()]; glt != nil {
			glfb.FB.AttachDepthTexture(glt.Tex)
		}
	} else if fb.depth || fb.stencil {
		rb, err := dev.NewRenderbuffer()
		if err != nil {
			return
		}
		rb.Storage(fb.width, fb.height, glfb.Samples, gputypes.TextureFormatDepth24PlusStencil8)
		glfb.FB.AttachDepthStencil(rb)
		glfb.DepthStencil = rb
	}

	if err := glfb.FB.IsComplete(); err != nil {
		Logger().Warn("framebuffer incomplete",
			"width", fb.width, "height", fb.height, "error", err)
	}
}

// attachMultisampled gives glfb a multisampled color renderbuffer and a
// single-sampled resolve framebuffer around the color texture.
func (s *FramebufferSystem) attachMultisampled(fb *Framebuffer, glfb *GLFramebuffer) {
	dev := s.renderer.device()
	base := fb.ColorTexture(0)
	if base == nil {
		return
	}
	rb, err := dev.NewRenderbuffer()
	if err != nil {
		return
	}
	rb.Storage(fb.width, fb.height, glfb.Samples, base.Format())
	glfb.FB.AttachColorRenderbuffer(0, rb)
	glfb.MSAA = rb

	resolve, err := dev.NewFramebuffer()
	if err != nil {
		return
	}
	s.renderer.Texture.Bind(base, 0)
	glt := base.glTextures[s.renderer.contextUID()]
	if glt == nil {
		return
	}
	// Attachment calls need the target bound; restore ours afterwards.
	dev.BindFramebuffer(resolve)
	resolve.AttachColor(0, glt.Tex)
	dev.BindFramebuffer(glfb.FB)
	glfb.ResolveFB = resolve
}

// resizeFramebuffer reallocates size-dependent storage after Resize.
// Texture reallocation rides on the texture dirty tracking; renderbuffers
// are re-storaged in place, which GL permits without re-attaching.
func (s *FramebufferSystem) resizeFramebuffer(fb *Framebuffer, glfb *GLFramebuffer) {
	for _, base := range fb.colorTextures {
		if base != nil {
			s.renderer.Texture.Bind(base, 0)
		}
	}
	if fb.depthTexture != nil {
		s.renderer.Texture.Bind(fb.depthTexture, 0)
	}
	if glfb.MSAA != nil {
		if base := fb.ColorTexture(0); base != nil {
			glfb.MSAA.Storage(fb.width, fb.height, glfb.Samples, base.Format())
		}
	}
	if glfb.DepthStencil != nil {
		glfb.DepthStencil.Storage(fb.width, fb.height, glfb.Samples, gputypes.TextureFormatDepth24PlusStencil8)
	}
}

// detectSamples clamps a multisample request to what the device can
// render and resolve.
func (s *FramebufferSystem) detectSamples(requested int) int {
	caps := s.renderer.device().Caps()
	if requested <= 1 ||
		!caps.Features.Has(gl.FeatureMSAA) || !caps.Features.Has(gl.FeatureBlit) {
		return 1
	}
	if requested > caps.MaxSamples {
		return caps.MaxSamples
	}
	return requested
}

// framebufferDisposed releases this context's GPU objects for f.
func (s *FramebufferSystem) framebufferDisposed(f *Framebuffer) {
	uid := s.renderer.contextUID()
	if glfb, ok := f.glFramebuffers[uid]; ok {
		if s.current == f {
			s.Unbind()
		}
		if !s.renderer.device().IsLost() {
			glfb.FB.Release()
			if glfb.DepthStencil != nil {
				glfb.DepthStencil.Release()
			}
			if glfb.MSAA != nil {
				glfb.MSAA.Release()
			}
			if glfb.ResolveFB != nil {
				glfb.ResolveFB.Release()
			}
		}
		delete(f.glFramebuffers, uid)
	}
	delete(s.managed, f.UID)
	f.removeListener(s)
}

// Destroy releases every managed framebuffer on this context.
func (s *FramebufferSystem) Destroy() {
	for _, f := range s.managed {
		s.framebufferDisposed(f)
	}
}
