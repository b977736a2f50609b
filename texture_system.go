// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import "github.com/gogpu/stage/gl"

// GLTexture is the GPU copy of a BaseTexture on one context. It lives in
// BaseTexture.glTextures keyed by context UID and records which revisions
// of the contents and sampler style it carries.
type GLTexture struct {
	Tex gl.Texture

	// Width and Height of the allocated storage in pixels. -1 until the
	// first allocation, so any real size triggers one.
	Width, Height int

	// DirtyID and DirtyStyleID are the BaseTexture revisions last synced.
	DirtyID      int
	DirtyStyleID int

	// Mipmap records whether the storage carries a generated mip chain.
	Mipmap bool
}

// TextureSystem owns the GPU side of textures: it creates GLTextures
// lazily per context, re-uploads dirty contents, applies sampler style
// and caches which BaseTexture sits on which texture unit so redundant
// binds cost nothing.
type TextureSystem struct {
	renderer *Renderer

	// boundTextures mirrors the device's texture units.
	boundTextures []*BaseTexture

	// managed holds every base texture with a GPU copy on this context,
	// keyed by UID. The texture garbage collector walks it.
	managed map[int]*BaseTexture

	// emptyTexture is bound in place of nil so units never sample an
	// unbound slot. invalidTexture stands in for textures that are not
	// usable yet; magenta, so broken content is visible instead of subtle.
	emptyTexture   *BaseTexture
	invalidTexture *BaseTexture
}

func newTextureSystem(r *Renderer) *TextureSystem {
	return &TextureSystem{
		renderer:       r,
		managed:        make(map[int]*BaseTexture),
		emptyTexture:   sentinelTexture(Transparent),
		invalidTexture: sentinelTexture(Magenta),
	}
}

// sentinelTexture builds a 1x1 base texture of a solid color.
func sentinelTexture(c RGBA) *BaseTexture {
	r, g, b, a := c.RGBA()
	px := []byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)}
	return NewBaseTexture(NewBufferResource(px, 1, 1), nil)
}

// ContextChange drops the GPU records of the previous context and sizes
// the unit cache for the new one. The old records are not released; the
// context that owned them is gone.
func (s *TextureSystem) ContextChange(oldUID int) {
	for _, base := range s.managed {
		delete(base.glTextures, oldUID)
		base.removeListener(s)
	}
	s.managed = make(map[int]*BaseTexture)
	delete(s.emptyTexture.glTextures, oldUID)
	delete(s.invalidTexture.glTextures, oldUID)
	s.boundTextures = make([]*BaseTexture, s.renderer.device().Caps().MaxTextureUnits)
}

// Bind makes base current on a texture unit, creating, uploading and
// styling the GPU copy as needed. A nil base binds the transparent empty
// texture; an invalid one binds the magenta placeholder.
func (s *TextureSystem) Bind(base *BaseTexture, unit int) {
	if unit < 0 || unit >= len(s.boundTextures) {
		return
	}
	if base != nil && base.Destroyed() {
		base = nil
	}
	if base == nil {
		base = s.emptyTexture
	} else if !base.Valid() {
		base = s.invalidTexture
	}
	base.touched = s.renderer.gcTick()

	glt, err := s.glTexture(base)
	if err != nil {
		return
	}
	rebound := false
	if s.boundTextures[unit] != base {
		s.renderer.device().BindTexture(unit, glt.Tex)
		s.boundTextures[unit] = base
		s.renderer.stats.TextureBinds++
		rebound = true
	}
	if glt.DirtyID == base.dirtyID && glt.DirtyStyleID == base.dirtyStyleID {
		return
	}
	if !rebound {
		// Texture updates act on the active unit; move it here first.
		s.renderer.device().BindTexture(unit, glt.Tex)
	}
	if glt.DirtyID != base.dirtyID {
		s.updateTexture(base, glt)
	} else {
		s.updateStyle(base, glt)
	}
}

// Unbind removes base from every unit it occupies.
func (s *TextureSystem) Unbind(base *BaseTexture) {
	dev := s.renderer.device()
	for unit, have := range s.boundTextures {
		if have == base {
			dev.BindTexture(unit, nil)
			s.boundTextures[unit] = nil
		}
	}
}

// Bound returns the base texture cached on a unit, or nil.
func (s *TextureSystem) Bound(unit int) *BaseTexture {
	if unit < 0 || unit >= len(s.boundTextures) {
		return nil
	}
	return s.boundTextures[unit]
}

// glTexture returns the GPU copy of base on the current context, creating
// it on first use and registering base with the managed set.
func (s *TextureSystem) glTexture(base *BaseTexture) (*GLTexture, error) {
	uid := s.renderer.contextUID()
	if glt, ok := base.glTextures[uid]; ok {
		return glt, nil
	}
	tex, err := s.renderer.device().NewTexture()
	if err != nil {
		return nil, err
	}
	glt := &GLTexture{Tex: tex, Width: -1, Height: -1, DirtyID: -1, DirtyStyleID: -1}
	base.glTextures[uid] = glt
	if _, ok := s.managed[base.UID]; !ok {
		s.managed[base.UID] = base
		base.addListener(s)
	}
	return glt, nil
}

// updateTexture pushes dirty contents into the GPU copy. Render targets
// and failed resource uploads fall back to a bare storage allocation so
// the texture stays attachable and samples deterministic.
func (s *TextureSystem) updateTexture(base *BaseTexture, glt *GLTexture) {
	uploaded := false
	if res := base.Resource(); res != nil {
		uploaded = res.Upload(s.renderer.device(), base, glt)
	}
	if !uploaded {
		w, h := base.RealWidth(), base.RealHeight()
		if glt.Width != w || glt.Height != h {
			glt.Tex.Storage(w, h, base.Format())
			glt.Width, glt.Height = w, h
		}
	}
	if s.mipmapEnabled(base) && glt.Width > 0 {
		glt.Tex.GenerateMipmap()
		glt.Mipmap = true
	} else {
		glt.Mipmap = false
	}
	glt.DirtyID = base.dirtyID
	s.updateStyle(base, glt)
}

// updateStyle applies sampler filter and wrap state to the GPU copy.
func (s *TextureSystem) updateStyle(base *BaseTexture, glt *GLTexture) {
	mips := s.mipmapEnabled(base)
	if mips && !glt.Mipmap && glt.Width > 0 {
		glt.Tex.GenerateMipmap()
		glt.Mipmap = true
	}
	min := base.ScaleMode()
	if mips {
		if min == gl.Nearest {
			min = gl.NearestMipmapNearest
		} else {
			min = gl.LinearMipmapLinear
		}
	}
	glt.Tex.SetFilter(min, base.ScaleMode())
	glt.Tex.SetWrap(base.WrapMode(), base.WrapMode())
	glt.DirtyStyleID = base.dirtyStyleID
}

func (s *TextureSystem) mipmapEnabled(base *BaseTexture) bool {
	switch base.Mipmap() {
	case MipmapOn:
		return true
	case MipmapOff:
		return false
	default:
		return base.IsPowerOfTwo()
	}
}

// baseTextureDisposed evicts this context's GPU copy when a base texture
// is disposed or destroyed.
func (s *TextureSystem) baseTextureDisposed(base *BaseTexture) {
	uid := s.renderer.contextUID()
	if glt, ok := base.glTextures[uid]; ok {
		s.Unbind(base)
		if !s.renderer.device().IsLost() {
			glt.Tex.Release()
		}
		delete(base.glTextures, uid)
	}
	delete(s.managed, base.UID)
	base.removeListener(s)
}

// Destroy releases the GPU copies of all managed textures.
func (s *TextureSystem) Destroy() {
	for _, base := range s.managed {
		s.baseTextureDisposed(base)
	}
	s.emptyTexture.Destroy()
	s.invalidTexture.Destroy()
}
