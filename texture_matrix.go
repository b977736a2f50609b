package stage

// TextureMatrix tracks the affine mapping from a texture's logical unit
// square to the base texture's UV space, honoring frame, trim and
// packing orientation. The sprite mask filter feeds it to the shader so
// mask sampling lands on the right atlas region.
type TextureMatrix struct {
	texture *Texture

	// MapCoord maps (u, v) in [0,1]² over the logical texture onto base
	// UV coordinates.
	MapCoord Matrix

	// UClampFrame is (minU, minV, maxU, maxV) of the sampleable region,
	// pulled in by ClampMargin to keep bilinear taps off neighbors.
	UClampFrame [4]float32

	// UClampOffset shifts the clamp window, in base pixels.
	UClampOffset [2]float32

	// ClampOffset and ClampMargin tune the clamp window, in pixels of
	// the texture's own resolution.
	ClampOffset float64
	ClampMargin float64

	// IsSimple is true when the texture covers its whole base unrotated,
	// so MapCoord is the identity.
	IsSimple bool

	textureID int
	updateID  int
}

// NewTextureMatrix creates a matrix for tex. clampMargin is the bilinear
// safety margin in pixels; 0.5 suits atlases with 1px padding.
func NewTextureMatrix(tex *Texture, clampMargin float64) *TextureMatrix {
	tm := &TextureMatrix{
		texture:     tex,
		MapCoord:    Identity(),
		ClampMargin: clampMargin,
		textureID:   -1,
	}
	return tm
}

// Texture returns the tracked texture.
func (tm *TextureMatrix) Texture() *Texture { return tm.texture }

// SetTexture switches the tracked texture and forces the next Update to
// recompute.
func (tm *TextureMatrix) SetTexture(tex *Texture) {
	if tm.texture != tex {
		tm.texture = tex
		tm.textureID = -1
	}
}

// UpdateID returns the recompute revision.
func (tm *TextureMatrix) UpdateID() int { return tm.updateID }

// Update recomputes the mapping if the texture view changed since the
// last call, or unconditionally when force is set. It reports whether a
// recompute happened.
func (tm *TextureMatrix) Update(force bool) bool {
	tex := tm.texture
	if tex == nil || !tex.Valid() {
		return false
	}
	if !force && tm.textureID == tex.UpdateID() {
		return false
	}
	tm.textureID = tex.UpdateID()
	tm.updateID++

	uvs := tex.UVs()
	tm.MapCoord = Matrix{
		A: float64(uvs.X1 - uvs.X0), B: float64(uvs.X3 - uvs.X0), C: float64(uvs.X0),
		D: float64(uvs.Y1 - uvs.Y0), E: float64(uvs.Y3 - uvs.Y0), F: float64(uvs.Y0),
	}

	if tex.Trimmed() {
		orig, trim := tex.Orig(), tex.Trim()
		adjust := Matrix{
			A: orig.Width / trim.Width, B: 0, C: -trim.X / trim.Width,
			D: 0, E: orig.Height / trim.Height, F: -trim.Y / trim.Height,
		}
		tm.MapCoord = tm.MapCoord.Multiply(adjust)
	}

	base := tex.Base
	frame := tex.Frame()
	margin := tm.ClampMargin / base.Resolution()
	offset := tm.ClampOffset

	tm.UClampFrame[0] = float32((frame.X + margin + offset) / base.Width())
	tm.UClampFrame[1] = float32((frame.Y + margin + offset) / base.Height())
	tm.UClampFrame[2] = float32((frame.Right() - margin + offset) / base.Width())
	tm.UClampFrame[3] = float32((frame.Bottom() - margin + offset) / base.Height())
	tm.UClampOffset[0] = float32(offset / float64(base.RealWidth()))
	tm.UClampOffset[1] = float32(offset / float64(base.RealHeight()))

	tm.IsSimple = frame.Width == base.Width() &&
		frame.Height == base.Height() &&
		tex.Rotate() == Rotate0

	return true
}
