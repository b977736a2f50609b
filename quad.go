package stage

// Quad is the unit-square geometry the filter pipeline draws with, laid
// out for a two-triangle strip.
type Quad struct {
	*Geometry
}

// NewQuad creates the unit quad.
func NewQuad() *Quad {
	g := NewGeometry()
	g.AddAttribute("aVertexPosition",
		NewBuffer(Float32Bytes([]float32{0, 0, 1, 0, 1, 1, 0, 1}), true),
		Attribute{Size: 2})
	g.AddIndex(NewIndexBuffer(Uint16Bytes([]uint16{0, 1, 3, 2}), true))
	return &Quad{Geometry: g}
}

// QuadUV is a unit quad carrying texture coordinates, drawn as two
// triangles. The sprite mask filter renders through it.
type QuadUV struct {
	*Geometry

	vertices [8]float32
	uvs      [8]float32

	vertexBuf *Buffer
	uvBuf     *Buffer
}

// NewQuadUV creates the textured unit quad.
func NewQuadUV() *QuadUV {
	q := &QuadUV{
		Geometry: NewGeometry(),
		vertices: [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
		uvs:      [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
	}
	q.vertexBuf = NewBuffer(Float32Bytes(q.vertices[:]), false)
	q.uvBuf = NewBuffer(Float32Bytes(q.uvs[:]), false)
	q.AddAttribute("aVertexPosition", q.vertexBuf, Attribute{Size: 2}).
		AddAttribute("aTextureCoord", q.uvBuf, Attribute{Size: 2}).
		AddIndex(NewIndexBuffer(Uint16Bytes([]uint16{0, 1, 2, 0, 2, 3}), true))
	return q
}

// SetRect positions the quad corners at the given rectangle and uploads.
func (q *QuadUV) SetRect(r Rect) {
	x0, y0 := float32(r.X), float32(r.Y)
	x1, y1 := float32(r.Right()), float32(r.Bottom())
	q.vertices = [8]float32{x0, y0, x1, y0, x1, y1, x0, y1}
	q.vertexBuf.Update(Float32Bytes(q.vertices[:]))
}

// SetUVs maps a sub-region of a texture frame onto the quad corners.
// frame is the on-screen rectangle the quad covers; region is the
// texture-space rectangle it samples, normalized against size.
func (q *QuadUV) SetUVs(frame, region Rect, width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	u0 := float32(region.X / width)
	v0 := float32(region.Y / height)
	u1 := float32(region.Right() / width)
	v1 := float32(region.Bottom() / height)
	q.uvs = [8]float32{u0, v0, u1, v0, u1, v1, u0, v1}
	q.uvBuf.Update(Float32Bytes(q.uvs[:]))
	q.SetRect(frame)
}

// Vertices returns the current corner positions.
func (q *QuadUV) Vertices() [8]float32 { return q.vertices }

// UVs returns the current corner texture coordinates.
func (q *QuadUV) UVs() [8]float32 { return q.uvs }
