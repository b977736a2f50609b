// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

// Framebuffer describes an offscreen render target: color textures,
// optional depth/stencil storage and a multisample request. The GPU
// objects are created per context by the framebuffer system and tracked
// in glFramebuffers.
type Framebuffer struct {
	// UID identifies this framebuffer in per-context caches.
	UID int

	width, height int

	depth   bool
	stencil bool

	// multisample is the requested per-pixel sample count. The effective
	// count is clamped to device limits at bind time; 0 and 1 disable
	// multisampling.
	multisample int

	colorTextures []*BaseTexture
	depthTexture  *BaseTexture

	// dirtyID advances on any change. dirtyFormat advances when the
	// attachment set changes shape, dirtySize when only dimensions do.
	dirtyID     int
	dirtyFormat int
	dirtySize   int

	glFramebuffers map[int]*GLFramebuffer

	listeners []framebufferListener
}

type framebufferListener interface {
	framebufferDisposed(f *Framebuffer)
}

// NewFramebuffer creates a framebuffer descriptor with no attachments.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		UID:            nextUID(),
		width:          width,
		height:         height,
		glFramebuffers: make(map[int]*GLFramebuffer),
	}
}

// Width returns the pixel width.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the pixel height.
func (f *Framebuffer) Height() int { return f.height }

// AddColorTexture attaches base as color attachment index. The texture
// is marked as a render target, exempting it from texture garbage
// collection. Returns f for chaining.
func (f *Framebuffer) AddColorTexture(index int, base *BaseTexture) *Framebuffer {
	for len(f.colorTextures) <= index {
		f.colorTextures = append(f.colorTextures, nil)
	}
	f.colorTextures[index] = base
	base.isRenderTarget = true
	f.dirtyID++
	f.dirtyFormat++
	return f
}

// ColorTexture returns the texture at color attachment index, or nil.
func (f *Framebuffer) ColorTexture(index int) *BaseTexture {
	if index < 0 || index >= len(f.colorTextures) {
		return nil
	}
	return f.colorTextures[index]
}

// SetDepthTexture attaches a sampled depth texture. Requires device
// depth texture support at bind time.
func (f *Framebuffer) SetDepthTexture(base *BaseTexture) *Framebuffer {
	f.depthTexture = base
	if base != nil {
		base.isRenderTarget = true
	}
	f.depth = true
	f.dirtyID++
	f.dirtyFormat++
	return f
}

// EnableDepth requests a depth buffer.
func (f *Framebuffer) EnableDepth() *Framebuffer {
	if !f.depth {
		f.depth = true
		f.dirtyID++
		f.dirtyFormat++
	}
	return f
}

// EnableStencil requests a stencil buffer. Stencil masking into this
// framebuffer needs it.
func (f *Framebuffer) EnableStencil() *Framebuffer {
	if !f.stencil {
		f.stencil = true
		f.dirtyID++
		f.dirtyFormat++
	}
	return f
}

// SetMultisample requests multisampled rendering. The drawn samples are
// resolved into the color texture when the render texture system is done
// with the target.
func (f *Framebuffer) SetMultisample(samples int) *Framebuffer {
	if f.multisample != samples {
		f.multisample = samples
		f.dirtyID++
		f.dirtyFormat++
	}
	return f
}

// Multisample returns the requested sample count.
func (f *Framebuffer) Multisample() int { return f.multisample }

// Resize changes the pixel dimensions, resizing attached textures along.
func (f *Framebuffer) Resize(width, height int) {
	if width == f.width && height == f.height {
		return
	}
	f.width, f.height = width, height
	f.dirtyID++
	f.dirtySize++
	for _, base := range f.colorTextures {
		if base != nil {
			base.SetSize(float64(width)/base.Resolution(), float64(height)/base.Resolution())
		}
	}
	if f.depthTexture != nil {
		f.depthTexture.SetSize(float64(width)/f.depthTexture.Resolution(), float64(height)/f.depthTexture.Resolution())
	}
}

func (f *Framebuffer) addListener(l framebufferListener) {
	for _, have := range f.listeners {
		if have == l {
			return
		}
	}
	f.listeners = append(f.listeners, l)
}

func (f *Framebuffer) removeListener(l framebufferListener) {
	for i, have := range f.listeners {
		if have == l {
			f.listeners = append(f.listeners[:i], f.listeners[i+1:]...)
			return
		}
	}
}

// Dispose releases the GPU framebuffers on every context. Attached
// textures are not touched; they belong to the texture system.
func (f *Framebuffer) Dispose() {
	ls := make([]framebufferListener, len(f.listeners))
	copy(ls, f.listeners)
	for _, l := range ls {
		l.framebufferDisposed(f)
	}
}
