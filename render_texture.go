// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

// BaseRenderTexture is a BaseTexture that can be rendered into. It owns
// the framebuffer wrapping itself and the mask stack that applies while
// it is the render target.
//
// Mipmaps are off by default: nothing regenerates the chain after a
// render, so a mipmap filter would sample stale levels.
type BaseRenderTexture struct {
	*BaseTexture

	// Framebuffer renders into this texture. Stencil is enabled so masks
	// work inside render textures.
	Framebuffer *Framebuffer

	// maskStack holds the masks active while this texture is the target.
	// The mask system swaps it in on bind.
	maskStack []*MaskData
}

// NewBaseRenderTexture creates a render target texture. Zero or negative
// dimensions are clamped to 1.
func NewBaseRenderTexture(opts *BaseTextureOptions) *BaseRenderTexture {
	if opts == nil {
		opts = &BaseTextureOptions{}
	}
	o := *opts
	if o.Width <= 0 {
		o.Width = 1
	}
	if o.Height <= 0 {
		o.Height = 1
	}
	o.Mipmap = MipmapOff
	base := NewBaseTexture(nil, &o)
	base.isRenderTarget = true

	fb := NewFramebuffer(base.RealWidth(), base.RealHeight())
	fb.AddColorTexture(0, base)
	fb.EnableStencil()

	return &BaseRenderTexture{BaseTexture: base, Framebuffer: fb}
}

// Resize changes the nominal dimensions, resizing the framebuffer and
// the texture storage along.
func (b *BaseRenderTexture) Resize(width, height float64) {
	b.Framebuffer.Resize(
		int(width*b.Resolution()),
		int(height*b.Resolution()),
	)
}

// Destroy disposes the framebuffer and destroys the texture.
func (b *BaseRenderTexture) Destroy() {
	b.Framebuffer.Dispose()
	b.BaseTexture.Destroy()
}

// RenderTextureOptions configures NewRenderTexture.
type RenderTextureOptions struct {
	// Width and Height are the nominal dimensions. Defaults to 1.
	Width, Height float64

	// Resolution is the pixel density. Defaults to 1.
	Resolution float64

	// ScaleMode of the sampler. Defaults to gl.Linear.
	ScaleMode gl.TextureFilter

	// Format of the color storage. Defaults to RGBA8.
	Format gputypes.TextureFormat

	// Multisample requests antialiased rendering, resolved into the
	// texture when the target is unbound. 0 and 1 disable it.
	Multisample int
}

// RenderTexture is a texture view whose contents come from rendering
// instead of an uploaded resource. It exposes the whole base, tracking
// resizes.
type RenderTexture struct {
	*Texture

	// BaseRT is the render target descriptor; its embedded BaseTexture is
	// the same object as Texture.Base.
	BaseRT *BaseRenderTexture

	// filterFrame is the logical region a pooled texture stands in for
	// while filters ping-pong through it. Nil outside filter passes.
	filterFrame *Rect

	// filterPoolKey remembers which pool bucket the texture came from.
	// Zero means the texture was never pooled.
	filterPoolKey int64
}

// NewRenderTexture creates a render texture.
func NewRenderTexture(opts *RenderTextureOptions) *RenderTexture {
	if opts == nil {
		opts = &RenderTextureOptions{}
	}
	brt := NewBaseRenderTexture(&BaseTextureOptions{
		Width:      opts.Width,
		Height:     opts.Height,
		Resolution: opts.Resolution,
		ScaleMode:  opts.ScaleMode,
		Format:     opts.Format,
	})
	brt.Framebuffer.SetMultisample(opts.Multisample)
	return &RenderTexture{
		Texture: NewTexture(brt.BaseTexture, nil),
		BaseRT:  brt,
	}
}

// Resize changes the nominal dimensions. The view frame follows.
func (rt *RenderTexture) Resize(width, height float64) {
	rt.BaseRT.Resize(width, height)
}

// Framebuffer returns the target framebuffer.
func (rt *RenderTexture) Framebuffer() *Framebuffer {
	return rt.BaseRT.Framebuffer
}

// Destroy releases the view, the framebuffer and the texture storage.
func (rt *RenderTexture) Destroy() {
	if rt.BaseRT != nil {
		rt.BaseRT.Framebuffer.Dispose()
		rt.BaseRT = nil
	}
	rt.Texture.Destroy()
}
