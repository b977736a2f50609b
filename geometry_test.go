package stage

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/stage/gl"
)

func TestFloat32Bytes(t *testing.T) {
	got := Float32Bytes([]float32{1.5, -2})
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
	if bits := binary.NativeEndian.Uint32(got[0:4]); bits != math.Float32bits(1.5) {
		t.Errorf("first float bits = %#x", bits)
	}
	if bits := binary.NativeEndian.Uint32(got[4:8]); bits != math.Float32bits(-2) {
		t.Errorf("second float bits = %#x", bits)
	}
}

func TestUint16Bytes(t *testing.T) {
	got := Uint16Bytes([]uint16{0x1234, 7})
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if v := binary.NativeEndian.Uint16(got[0:2]); v != 0x1234 {
		t.Errorf("first index = %#x", v)
	}
}

func TestBufferUpdate(t *testing.T) {
	b := NewBuffer([]byte{1, 2, 3, 4}, false)
	id := b.UpdateID()

	b.Update([]byte{5, 6, 7, 8})
	if b.UpdateID() != id+1 {
		t.Error("Update with data should advance UpdateID")
	}
	if b.Data()[0] != 5 {
		t.Error("Update did not replace data")
	}

	b.Update(nil)
	if b.UpdateID() != id+2 {
		t.Error("Update(nil) should still advance UpdateID")
	}
	if b.Data()[0] != 5 {
		t.Error("Update(nil) must keep current data")
	}
}

func TestGeometryAttributes(t *testing.T) {
	pos := NewBuffer(Float32Bytes([]float32{0, 0, 1, 0, 1, 1}), true)
	uv := NewBuffer(Float32Bytes([]float32{0, 0, 1, 0, 1, 1}), true)

	g := NewGeometry().
		AddAttribute("aVertexPosition", pos, Attribute{Size: 2}).
		AddAttribute("aTextureCoord", uv, Attribute{Size: 2})

	if len(g.Buffers) != 2 {
		t.Fatalf("buffer count = %d, want 2", len(g.Buffers))
	}
	if got := g.AttributeNames(); len(got) != 2 || got[0] != "aVertexPosition" || got[1] != "aTextureCoord" {
		t.Errorf("attribute order = %v", got)
	}
	if g.AttributeBuffer("aTextureCoord") != uv {
		t.Error("AttributeBuffer returned wrong buffer")
	}
	if g.Attribute("missing") != nil {
		t.Error("missing attribute should be nil")
	}
}

func TestGeometrySharedBufferDeduplicated(t *testing.T) {
	interleaved := NewBuffer(make([]byte, 24*4), false)
	g := NewGeometry().
		AddAttribute("aVertexPosition", interleaved, Attribute{Size: 2, Stride: 24, Offset: 0}).
		AddAttribute("aTextureCoord", interleaved, Attribute{Size: 2, Stride: 24, Offset: 8})

	if len(g.Buffers) != 1 {
		t.Errorf("shared buffer registered %d times", len(g.Buffers))
	}
	if g.Attribute("aTextureCoord").Buffer != 0 {
		t.Error("second attribute should reference buffer 0")
	}
}

func TestGeometrySize(t *testing.T) {
	pos := NewBuffer(Float32Bytes(make([]float32, 12)), true) // 6 vec2 vertices
	g := NewGeometry().AddAttribute("aVertexPosition", pos, Attribute{Size: 2})
	if got := g.Size(); got != 6 {
		t.Errorf("unindexed Size = %d, want 6", got)
	}

	g.AddIndex(NewIndexBuffer(Uint16Bytes([]uint16{0, 1, 2}), true))
	if got := g.Size(); got != 3 {
		t.Errorf("indexed Size = %d, want 3", got)
	}
}

func TestGeometryIndexMarksBuffer(t *testing.T) {
	idx := NewBuffer(Uint16Bytes([]uint16{0, 1, 2}), true)
	g := NewGeometry().AddIndex(idx)
	if !idx.Index {
		t.Error("AddIndex should mark the buffer as element data")
	}
	if g.IndexBuffer != idx {
		t.Error("IndexBuffer not set")
	}
	if g.IndexType != gl.UnsignedShort {
		t.Errorf("IndexType = %v, want UnsignedShort", g.IndexType)
	}
}

func TestGeometryBindRejectsMissingAttribute(t *testing.T) {
	r, _ := newTestRenderer(t)
	geo := NewGeometry()
	geo.AddAttribute("aVertexPosition",
		NewBuffer(Float32Bytes([]float32{0, 0, 1, 0, 1, 1}), true),
		Attribute{Size: 2})

	shader := NewShaderFromSource(`
attribute vec2 aVertexPosition;
attribute vec2 aTextureCoord;
void main(void) { gl_Position = vec4(aVertexPosition + aTextureCoord, 0.0, 1.0); }
`, `void main(void) { gl_FragColor = vec4(1.0); }`)

	err := r.Geometry.Bind(geo, shader)
	if !errors.Is(err, ErrIncompatibleGeometry) {
		t.Fatalf("err = %v, want ErrIncompatibleGeometry", err)
	}
}

func TestQuadLayout(t *testing.T) {
	q := NewQuad()
	if q.Size() != 4 {
		t.Errorf("quad index count = %d, want 4", q.Size())
	}
	if q.Attribute("aVertexPosition") == nil {
		t.Fatal("quad missing aVertexPosition")
	}
}

func TestQuadUVSetUVs(t *testing.T) {
	q := NewQuadUV()
	q.SetUVs(R(10, 10, 20, 20), R(0, 0, 50, 50), 100, 100)

	uvs := q.UVs()
	if uvs[4] != 0.5 || uvs[5] != 0.5 {
		t.Errorf("bottom-right uv = (%v, %v), want (0.5, 0.5)", uvs[4], uvs[5])
	}
	verts := q.Vertices()
	if verts[0] != 10 || verts[4] != 30 {
		t.Errorf("vertices = %v", verts)
	}
}

func TestUniformGroupDirtyTracking(t *testing.T) {
	u := NewUniformGroup()
	start := u.DirtyID()

	u.Set("uAlpha", float32(0.5))
	if u.DirtyID() == start {
		t.Error("Set should advance DirtyID")
	}
	if !u.Has("uAlpha") || u.Get("uAlpha").(float32) != 0.5 {
		t.Error("stored value not retrievable")
	}

	before := u.DirtyID()
	u.Update()
	if u.DirtyID() != before+1 {
		t.Error("Update should advance DirtyID")
	}
}
