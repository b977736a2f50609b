// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import "image"

// TextureOptions configures NewTexture. Zero-value fields fall back to
// the defaults noted on each field.
type TextureOptions struct {
	// Frame is the region of the base texture this view exposes, in
	// texture space. Empty means the whole base; the frame then tracks
	// the base dimensions as they change.
	Frame Rect

	// Orig is the untrimmed logical size. Empty means same as Frame.
	Orig Rect

	// Trim describes where the frame's pixels sit inside Orig after an
	// atlas packer removed transparent borders. Empty means untrimmed.
	Trim Rect

	// Rotate is the packing orientation of the frame.
	Rotate Rotation
}

// Texture is a view over a region of a BaseTexture. Many textures can
// share one base; each view holds a reference, and the base is destroyed
// when the last view is.
type Texture struct {
	Base *BaseTexture

	frame   Rect
	orig    Rect
	trim    Rect
	rotate  Rotation
	noFrame bool

	uvs      UVQuad
	uvsDirty bool

	updateID  int
	destroyed bool
}

// NewTexture creates a view over base. A nil opts or an empty Frame
// exposes the whole base texture.
func NewTexture(base *BaseTexture, opts *TextureOptions) *Texture {
	if opts == nil {
		opts = &TextureOptions{}
	}
	t := &Texture{
		Base:     base,
		rotate:   opts.Rotate,
		uvsDirty: true,
	}
	base.acquire()

	if opts.Frame.IsEmpty() {
		t.noFrame = true
		t.frame = R(0, 0, base.Width(), base.Height())
	} else {
		t.frame = opts.Frame
	}
	t.orig = opts.Orig
	if t.orig.IsEmpty() {
		t.orig = t.frame
	}
	t.trim = opts.Trim
	return t
}

// NewTextureFromImage creates a base texture over img and a view of it.
func NewTextureFromImage(img image.Image) *Texture {
	return NewTexture(NewBaseTextureFromImage(img, nil), nil)
}

// NewWhiteTexture returns a 16x16 opaque white texture. Tinted by vertex
// color it doubles as the solid-fill texture.
func NewWhiteTexture() *Texture {
	const size = 16
	data := make([]byte, size*size*4)
	for i := range data {
		data[i] = 0xFF
	}
	return NewTexture(NewBaseTexture(NewBufferResource(data, size, size), nil), nil)
}

// Frame returns the exposed region in texture space. Whole-base views
// track the base dimensions.
func (t *Texture) Frame() Rect {
	if t.noFrame {
		t.syncNoFrame()
	}
	return t.frame
}

func (t *Texture) syncNoFrame() {
	full := R(0, 0, t.Base.Width(), t.Base.Height())
	if t.frame != full {
		t.frame = full
		t.orig = full
		t.uvsDirty = true
		t.updateID++
	}
}

// SetFrame changes the exposed region. The frame must lie within the
// base texture; out-of-range frames mark the texture invalid.
func (t *Texture) SetFrame(frame Rect) {
	t.noFrame = false
	t.frame = frame
	if t.trim.IsEmpty() {
		t.orig = frame
	}
	t.uvsDirty = true
	t.updateID++
}

// Orig returns the untrimmed logical size of the texture.
func (t *Texture) Orig() Rect {
	if t.noFrame {
		t.syncNoFrame()
	}
	return t.orig
}

// Trim returns the trim rectangle. The zero Rect means untrimmed.
func (t *Texture) Trim() Rect { return t.trim }

// Trimmed reports whether an atlas packer removed transparent borders.
func (t *Texture) Trimmed() bool { return !t.trim.IsEmpty() }

// Rotate returns the packing orientation.
func (t *Texture) Rotate() Rotation { return t.rotate }

// SetRotate changes the packing orientation.
func (t *Texture) SetRotate(r Rotation) {
	t.rotate = r
	t.uvsDirty = true
	t.updateID++
}

// Width returns the logical width, in texture space.
func (t *Texture) Width() float64 { return t.Orig().Width }

// Height returns the logical height, in texture space.
func (t *Texture) Height() float64 { return t.Orig().Height }

// Valid reports whether the texture can be drawn: the base is valid and
// the frame fits inside it.
func (t *Texture) Valid() bool {
	if t.destroyed || t.Base == nil || !t.Base.Valid() {
		return false
	}
	f := t.Frame()
	return !f.IsEmpty() &&
		f.X >= 0 && f.Y >= 0 &&
		f.Right() <= t.Base.Width() && f.Bottom() <= t.Base.Height()
}

// Update marks the underlying pixels dirty, forcing a re-upload on the
// next bind.
func (t *Texture) Update() {
	if t.Base != nil {
		t.Base.Update()
	}
}

// UpdateID returns the view revision. It advances whenever the frame,
// orientation or trim changes.
func (t *Texture) UpdateID() int { return t.updateID }

// UVs returns the normalized corner coordinates of the frame, refreshed
// if the view changed.
func (t *Texture) UVs() *UVQuad {
	if t.uvsDirty {
		t.uvs.Set(t.Frame(), t.Base, t.rotate)
		t.uvsDirty = false
	}
	return &t.uvs
}

// Clone returns a new view of the same base with the same frame.
func (t *Texture) Clone() *Texture {
	opts := &TextureOptions{Orig: t.orig, Trim: t.trim, Rotate: t.rotate}
	if !t.noFrame {
		opts.Frame = t.frame
	}
	return NewTexture(t.Base, opts)
}

// Destroy releases this view's reference on the base texture. The base
// is destroyed when its last view goes. Destroy is idempotent.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.Base != nil {
		t.Base.release()
		t.Base = nil
	}
}
