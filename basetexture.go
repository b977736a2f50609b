// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"image"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

// MipmapMode controls mipmap generation for a BaseTexture.
type MipmapMode int

const (
	// MipmapPow2 generates mipmaps only for power-of-two textures.
	MipmapPow2 MipmapMode = iota
	// MipmapOff never generates mipmaps.
	MipmapOff
	// MipmapOn always generates mipmaps.
	MipmapOn
)

// AlphaMode declares how the alpha channel of uploaded pixels is stored.
type AlphaMode int

const (
	// AlphaPremultiplied marks pixels whose color channels are already
	// multiplied by alpha. This is the storage produced by image/draw
	// conversion and by rendering to a texture.
	AlphaPremultiplied AlphaMode = iota
	// AlphaStraight marks pixels with unassociated alpha. Drawing them
	// uses the NPM blend mode variants.
	AlphaStraight
)

// BaseTextureOptions configures NewBaseTexture. The zero value of each
// field selects the default noted on it.
type BaseTextureOptions struct {
	// Width and Height are the nominal (unscaled) dimensions. When a
	// resource is given they default to the resource dimensions divided
	// by Resolution.
	Width, Height float64

	// Resolution is the pixel density. Defaults to 1.
	Resolution float64

	// Format of the GPU storage. Defaults to gputypes.TextureFormatRGBA8Unorm.
	Format gputypes.TextureFormat

	// ScaleMode of the sampler. Defaults to gl.Linear.
	ScaleMode gl.TextureFilter

	// WrapMode of the sampler. Defaults to gl.ClampToEdge.
	WrapMode gl.TextureWrap

	// Mipmap generation policy. Defaults to MipmapPow2.
	Mipmap MipmapMode

	// AlphaMode of the uploaded pixels. Defaults to AlphaPremultiplied.
	AlphaMode AlphaMode
}

// BaseTexture is the CPU-side descriptor of one texture: dimensions,
// format, sampler style and the pixel resource. GPU copies are created
// lazily per context by the texture system and tracked in glTextures.
//
// Several Texture views can share one BaseTexture; the base is reference
// counted and destroyed when the last view releases it.
type BaseTexture struct {
	// UID identifies this texture in per-context caches.
	UID int

	resource Resource

	width, height float64
	resolution    float64

	format    gputypes.TextureFormat
	scaleMode gl.TextureFilter
	wrapMode  gl.TextureWrap
	mipmap    MipmapMode
	alphaMode AlphaMode

	// dirtyID advances whenever the pixel contents change; the texture
	// system re-uploads when a GLTexture lags behind.
	dirtyID int
	// dirtyStyleID advances whenever sampler state changes.
	dirtyStyleID int

	// touched records the garbage collector tick of the last bind.
	touched int

	// batchTick and batchSlot are scratch state owned by the batcher.
	batchTick int
	batchSlot int

	// cacheIDs lists the names this texture is registered under in a
	// TextureCache.
	cacheIDs []string

	// isRenderTarget marks textures backing a framebuffer. The texture
	// garbage collector never unloads those.
	isRenderTarget bool

	valid     bool
	destroyed bool

	refs int

	// glTextures holds the GPU copy for each context UID.
	glTextures map[int]*GLTexture

	listeners []baseTextureListener
}

// baseTextureListener is notified when a BaseTexture releases its GPU
// copies or is destroyed. Texture systems register themselves to evict
// their per-context records.
type baseTextureListener interface {
	baseTextureDisposed(b *BaseTexture)
}

// NewBaseTexture creates a texture descriptor over a pixel resource.
// resource may be nil for textures that are rendered to.
func NewBaseTexture(resource Resource, opts *BaseTextureOptions) *BaseTexture {
	if opts == nil {
		opts = &BaseTextureOptions{}
	}
	b := &BaseTexture{
		UID:        nextUID(),
		resource:   resource,
		width:      opts.Width,
		height:     opts.Height,
		resolution: opts.Resolution,
		format:     opts.Format,
		scaleMode:  opts.ScaleMode,
		wrapMode:   opts.WrapMode,
		mipmap:     opts.Mipmap,
		alphaMode:  opts.AlphaMode,
		glTextures: make(map[int]*GLTexture),
	}
	if b.resolution <= 0 {
		b.resolution = 1
	}
	if b.format == gputypes.TextureFormatUndefined {
		b.format = gputypes.TextureFormatRGBA8Unorm
	}
	if resource != nil && b.width == 0 && b.height == 0 {
		b.width = float64(resource.Width()) / b.resolution
		b.height = float64(resource.Height()) / b.resolution
	}
	if b.width > 0 && b.height > 0 {
		b.valid = true
	}
	return b
}

// NewBaseTextureFromImage creates a premultiplied RGBA base texture over img.
func NewBaseTextureFromImage(img image.Image, opts *BaseTextureOptions) *BaseTexture {
	return NewBaseTexture(NewImageResource(img), opts)
}

// Resource returns the pixel source, or nil for render targets.
func (b *BaseTexture) Resource() Resource { return b.resource }

// Width returns the nominal width in texture space.
func (b *BaseTexture) Width() float64 { return b.width }

// Height returns the nominal height in texture space.
func (b *BaseTexture) Height() float64 { return b.height }

// Resolution returns the pixel density.
func (b *BaseTexture) Resolution() float64 { return b.resolution }

// RealWidth returns the pixel width of the GPU storage.
func (b *BaseTexture) RealWidth() int {
	return int(math.Round(b.width * b.resolution))
}

// RealHeight returns the pixel height of the GPU storage.
func (b *BaseTexture) RealHeight() int {
	return int(math.Round(b.height * b.resolution))
}

// Format returns the GPU storage format.
func (b *BaseTexture) Format() gputypes.TextureFormat { return b.format }

// ScaleMode returns the sampler filter.
func (b *BaseTexture) ScaleMode() gl.TextureFilter { return b.scaleMode }

// SetScaleMode changes the sampler filter.
func (b *BaseTexture) SetScaleMode(m gl.TextureFilter) {
	if b.scaleMode != m {
		b.scaleMode = m
		b.dirtyStyleID++
	}
}

// WrapMode returns the sampler wrap behavior.
func (b *BaseTexture) WrapMode() gl.TextureWrap { return b.wrapMode }

// SetWrapMode changes the sampler wrap behavior.
func (b *BaseTexture) SetWrapMode(m gl.TextureWrap) {
	if b.wrapMode != m {
		b.wrapMode = m
		b.dirtyStyleID++
	}
}

// Mipmap returns the mipmap policy.
func (b *BaseTexture) Mipmap() MipmapMode { return b.mipmap }

// SetMipmap changes the mipmap policy.
func (b *BaseTexture) SetMipmap(m MipmapMode) {
	if b.mipmap != m {
		b.mipmap = m
		b.dirtyStyleID++
	}
}

// AlphaMode reports how uploaded pixels store alpha.
func (b *BaseTexture) AlphaMode() AlphaMode { return b.alphaMode }

// SetAlphaMode declares how uploaded pixels store alpha.
func (b *BaseTexture) SetAlphaMode(m AlphaMode) { b.alphaMode = m }

// Premultiplied reports whether drawing this texture should use the
// premultiplied blend modes.
func (b *BaseTexture) Premultiplied() bool { return b.alphaMode == AlphaPremultiplied }

// Valid reports whether the texture has usable dimensions.
func (b *BaseTexture) Valid() bool { return b.valid }

// Destroyed reports whether Destroy has run.
func (b *BaseTexture) Destroyed() bool { return b.destroyed }

// IsRenderTarget reports whether the texture backs a framebuffer.
func (b *BaseTexture) IsRenderTarget() bool { return b.isRenderTarget }

// IsPowerOfTwo reports whether both pixel dimensions are powers of two.
func (b *BaseTexture) IsPowerOfTwo() bool {
	return isPow2(b.RealWidth()) && isPow2(b.RealHeight())
}

// SetSize changes the nominal dimensions and invalidates GPU copies.
func (b *BaseTexture) SetSize(width, height float64) {
	b.setRealSize(width*b.resolution, height*b.resolution, b.resolution)
}

// SetResolution changes the pixel density, keeping the pixel dimensions.
func (b *BaseTexture) SetResolution(resolution float64) {
	if resolution <= 0 || resolution == b.resolution {
		return
	}
	b.setRealSize(b.width*b.resolution, b.height*b.resolution, resolution)
}

func (b *BaseTexture) setRealSize(realWidth, realHeight, resolution float64) {
	b.resolution = resolution
	b.width = realWidth / resolution
	b.height = realHeight / resolution
	b.valid = b.width > 0 && b.height > 0
	b.Update()
}

// Update marks the pixel contents dirty so the next bind re-uploads.
func (b *BaseTexture) Update() {
	if b.valid {
		b.dirtyID++
	}
}

// DirtyID returns the content revision, advanced by Update.
func (b *BaseTexture) DirtyID() int { return b.dirtyID }

// CacheIDs returns the names this texture is registered under. The
// returned slice is a copy.
func (b *BaseTexture) CacheIDs() []string {
	out := make([]string, len(b.cacheIDs))
	copy(out, b.cacheIDs)
	return out
}

func (b *BaseTexture) addListener(l baseTextureListener) {
	for _, have := range b.listeners {
		if have == l {
			return
		}
	}
	b.listeners = append(b.listeners, l)
}

func (b *BaseTexture) removeListener(l baseTextureListener) {
	for i, have := range b.listeners {
		if have == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Dispose releases the GPU copies on every context while keeping the
// CPU descriptor and resource intact. Binding the texture again after
// Dispose re-creates and re-uploads the GPU copy.
func (b *BaseTexture) Dispose() {
	// Listeners mutate the listener slice while evicting, so walk a copy.
	ls := make([]baseTextureListener, len(b.listeners))
	copy(ls, b.listeners)
	for _, l := range ls {
		l.baseTextureDisposed(b)
	}
}

// Destroy disposes the GPU copies and releases the resource. The texture
// must not be used afterwards. Destroy is idempotent.
func (b *BaseTexture) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.valid = false
	b.Dispose()
	if b.resource != nil {
		b.resource.Destroy()
		b.resource = nil
	}
}

// acquire and release implement the view refcount used by Texture.
func (b *BaseTexture) acquire() { b.refs++ }

func (b *BaseTexture) release() {
	b.refs--
	if b.refs <= 0 {
		b.Destroy()
	}
}

func isPow2(v int) bool {
	return v > 0 && v&(v-1) == 0
}
