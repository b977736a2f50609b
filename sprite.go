package stage

import "math"

// spriteIndices splits the quad into two triangles.
var spriteIndices = []uint16{0, 1, 2, 0, 2, 3}

// Sprite is a textured quad, the simplest drawable. It places its
// texture in the world with a single transform and renders through the
// sprite batcher. Sprites carry no hierarchy; callers compose world
// transforms themselves.
type Sprite struct {
	// Texture is the drawn view. Trimmed and rotated atlas frames are
	// honored.
	Texture *Texture

	// Transform places the sprite's local rectangle in world space.
	Transform Matrix

	// Anchor is the normalized local origin: {0, 0} is the top-left
	// corner, {0.5, 0.5} the center.
	Anchor Point

	// Tint multiplies the texture color, as 0xRRGGBB.
	Tint uint32

	// Alpha is the opacity in [0, 1].
	Alpha float64

	// Blend selects the compositing mode.
	Blend BlendMode

	vertexData [8]float32
	uvData     [8]float32
}

// NewSprite creates an untinted, opaque sprite over tex.
func NewSprite(tex *Texture) *Sprite {
	return &Sprite{
		Texture:   tex,
		Transform: Identity(),
		Tint:      0xFFFFFF,
		Alpha:     1,
		Blend:     BlendNormal,
	}
}

// Render implements Renderable by submitting the quad to the batcher.
func (s *Sprite) Render(r *Renderer) {
	if s.Texture == nil || !s.Texture.Valid() || s.Alpha <= 0 {
		return
	}
	s.calculateVertices()
	s.uvData = s.Texture.UVs().Floats()
	r.Batch.Add(s)
}

// calculateVertices places the four corners in world space. A trimmed
// texture offsets the quad so the surviving pixels land where the
// untrimmed image would have put them.
func (s *Sprite) calculateVertices() {
	tex := s.Texture
	orig := tex.Orig()
	ax := s.Anchor.X * orig.Width
	ay := s.Anchor.Y * orig.Height

	var x0, y0, x1, y1 float64
	if tex.Trimmed() {
		trim := tex.Trim()
		x0 = trim.X - ax
		y0 = trim.Y - ay
		x1 = x0 + trim.Width
		y1 = y0 + trim.Height
	} else {
		x0 = -ax
		y0 = -ay
		x1 = x0 + orig.Width
		y1 = y0 + orig.Height
	}

	corners := [4]Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	for i, p := range corners {
		wp := s.Transform.TransformPoint(p)
		s.vertexData[i*2] = float32(wp.X)
		s.vertexData[i*2+1] = float32(wp.Y)
	}
}

// Bounds returns the world-space bounding box of the transformed quad.
func (s *Sprite) Bounds() Rect {
	if s.Texture == nil {
		return Rect{}
	}
	s.calculateVertices()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < 4; i++ {
		x := float64(s.vertexData[i*2])
		y := float64(s.vertexData[i*2+1])
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return R(minX, minY, maxX-minX, maxY-minY)
}

// BatchVertexData implements Batchable.
func (s *Sprite) BatchVertexData() []float32 { return s.vertexData[:] }

// BatchUVs implements Batchable.
func (s *Sprite) BatchUVs() []float32 { return s.uvData[:] }

// BatchIndices implements Batchable.
func (s *Sprite) BatchIndices() []uint16 { return spriteIndices }

// BatchTexture implements Batchable.
func (s *Sprite) BatchTexture() *BaseTexture { return s.Texture.Base }

// BatchBlendMode implements Batchable.
func (s *Sprite) BatchBlendMode() BlendMode { return s.Blend }

// BatchTint implements Batchable.
func (s *Sprite) BatchTint() uint32 { return s.Tint }

// BatchAlpha implements Batchable.
func (s *Sprite) BatchAlpha() float64 { return s.Alpha }
