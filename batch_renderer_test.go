package stage

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/stage/gl"
	"github.com/gogpu/stage/gl/gltest"
)

// polyList is a batchable with an arbitrary vertex count, for capacity
// tests.
type polyList struct {
	tex   *Texture
	verts []float32
	idx   []uint16
}

func (p *polyList) BatchVertexData() []float32 { return p.verts }
func (p *polyList) BatchUVs() []float32        { return p.verts }
func (p *polyList) BatchIndices() []uint16     { return p.idx }
func (p *polyList) BatchTexture() *BaseTexture { return p.tex.Base }
func (p *polyList) BatchBlendMode() BlendMode  { return BlendNormal }
func (p *polyList) BatchTint() uint32          { return 0xFFFFFF }
func (p *polyList) BatchAlpha() float64        { return 1 }

// tintedQuad overrides the test quad's color inputs.
type tintedQuad struct {
	*testQuad
	tint  uint32
	alpha float64
}

func (q *tintedQuad) BatchTint() uint32   { return q.tint }
func (q *tintedQuad) BatchAlpha() float64 { return q.alpha }

// batchVertex decodes one interleaved vertex from the serialized stream.
func batchVertex(stream []byte, i int) (pos, uv [2]float32, color [4]byte, slot float32) {
	p := stream[i*batchVertexBytes:]
	f := func(off int) float32 {
		return math.Float32frombits(binary.NativeEndian.Uint32(p[off:]))
	}
	pos = [2]float32{f(0), f(4)}
	uv = [2]float32{f(8), f(12)}
	copy(color[:], p[16:20])
	slot = f(20)
	return
}

func glTex(t *testing.T, r *Renderer, tex *Texture) *gltest.Texture {
	t.Helper()
	glt := tex.Base.glTextures[r.contextUID()]
	if glt == nil {
		t.Fatal("texture has no GPU copy")
	}
	return glt.Tex.(*gltest.Texture)
}

func TestBatchMergesIntoOneDraw(t *testing.T) {
	r, dev := newTestRenderer(t)
	texA := newTestTexture(4, 4)
	texB := newTestTexture(8, 8)

	r.Batch.Add(newTestQuad(texA))
	r.Batch.Add(newTestQuad(texB))
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.Draws))
	}
	dc := dev.Draws[0]
	if dc.Mode != gl.Triangles || dc.Count != 12 || !dc.Indexed {
		t.Errorf("draw = %v x%d indexed=%v", dc.Mode, dc.Count, dc.Indexed)
	}
	if dc.Type != gl.UnsignedShort {
		t.Errorf("index type = %v", dc.Type)
	}
	if dc.Textures[0] != glTex(t, r, texA) {
		t.Error("first texture not on unit 0")
	}
	if dc.Textures[1] != glTex(t, r, texB) {
		t.Error("second texture not on unit 1")
	}
}

func TestBatchReusesSamplerSlots(t *testing.T) {
	r, dev := newTestRenderer(t)
	texA := newTestTexture(4, 4)
	texB := newTestTexture(8, 8)

	// A, B, A: the third quad reuses A's slot instead of claiming a new
	// one.
	r.Batch.Add(newTestQuad(texA))
	r.Batch.Add(newTestQuad(texB))
	r.Batch.Add(newTestQuad(texA))
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.Draws))
	}
	if dc := dev.Draws[0]; dc.Count != 18 {
		t.Errorf("index count = %d", dc.Count)
	}

	stream := r.Batch.Batcher().vertexBytes
	for i, want := range map[int]float32{0: 0, 4: 1, 8: 0} {
		if _, _, _, slot := batchVertex(stream, i); slot != want {
			t.Errorf("vertex %d sampler slot = %v, want %v", i, slot, want)
		}
	}
}

func TestBatchSplitsOnTextureBudget(t *testing.T) {
	caps := gltest.DefaultCaps()
	caps.MaxTextureUnits = 2
	r, dev := newTestRendererWithCaps(t, caps)
	if got := r.Batch.Batcher().MaxTextures(); got != 2 {
		t.Fatalf("max textures = %d", got)
	}

	r.Batch.Add(newTestQuad(newTestTexture(2, 2)))
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))
	r.Batch.Add(newTestQuad(newTestTexture(8, 8)))
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(dev.Draws))
	}
	first, second := dev.Draws[0], dev.Draws[1]
	if first.Count != 12 || first.Offset != 0 {
		t.Errorf("first draw count=%d offset=%d", first.Count, first.Offset)
	}
	// The second call starts where the first left off: index 12, two
	// bytes each.
	if second.Count != 6 || second.Offset != 24 {
		t.Errorf("second draw count=%d offset=%d", second.Count, second.Offset)
	}
}

func TestBatchSplitsOnBlendChange(t *testing.T) {
	r, dev := newTestRenderer(t)
	tex := newTestTexture(4, 4)

	normal := newTestQuad(tex)
	add := newTestQuad(tex)
	add.blend = BlendAdd

	r.Batch.Add(normal)
	r.Batch.Add(add)
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(dev.Draws))
	}
	wantNormal := [4]gl.BlendFactor{gl.One, gl.OneMinusSrcAlpha, gl.One, gl.OneMinusSrcAlpha}
	wantAdd := [4]gl.BlendFactor{gl.One, gl.One, gl.One, gl.One}
	if dev.Draws[0].BlendFunc != wantNormal {
		t.Errorf("first blend = %v", dev.Draws[0].BlendFunc)
	}
	if dev.Draws[1].BlendFunc != wantAdd {
		t.Errorf("second blend = %v", dev.Draws[1].BlendFunc)
	}
	// Both calls share the texture array; no rebind in between.
	if dev.Draws[1].Textures[0] != glTex(t, r, tex) {
		t.Error("texture lost across the blend cut")
	}
}

func TestBatchStraightAlphaSwitchesBlend(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4),
		&BaseTextureOptions{AlphaMode: AlphaStraight})
	tex := NewTexture(base, nil)

	r.Batch.Add(newTestQuad(tex))
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.Draws))
	}
	want := [4]gl.BlendFactor{gl.SrcAlpha, gl.OneMinusSrcAlpha, gl.One, gl.OneMinusSrcAlpha}
	if dev.Draws[0].BlendFunc != want {
		t.Errorf("blend = %v, want straight-alpha normal", dev.Draws[0].BlendFunc)
	}
}

func TestBatchVertexLayout(t *testing.T) {
	r, _ := newTestRenderer(t)
	q := &tintedQuad{
		testQuad: newTestQuad(newTestTexture(4, 4)),
		tint:     0xFF8040,
		alpha:    0.5,
	}

	r.Batch.Add(q)
	r.Batch.Flush()

	stream := r.Batch.Batcher().vertexBytes
	if len(stream) != 4*batchVertexBytes {
		t.Fatalf("stream = %d bytes", len(stream))
	}
	pos, uv, color, slot := batchVertex(stream, 2)
	if pos != [2]float32{10, 10} {
		t.Errorf("position = %v", pos)
	}
	if uv != [2]float32{1, 1} {
		t.Errorf("uv = %v", uv)
	}
	// Tint channels arrive premultiplied by alpha.
	if color != [4]byte{128, 64, 32, 128} {
		t.Errorf("color = %v", color)
	}
	if slot != 0 {
		t.Errorf("sampler slot = %v", slot)
	}
}

func TestBatchRebasesIndices(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))
	r.Batch.Add(newTestQuad(newTestTexture(8, 8)))
	r.Batch.Flush()

	raw := r.Batch.Batcher().indexBytes
	if len(raw) != 12*2 {
		t.Fatalf("index stream = %d bytes", len(raw))
	}
	want := []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}
	for i, w := range want {
		if got := binary.NativeEndian.Uint16(raw[i*2:]); got != w {
			t.Errorf("index %d = %d, want %d", i, got, w)
		}
	}
}

func TestBatchFlushesWhenFull(t *testing.T) {
	r, dev := newTestRenderer(t)
	big := &polyList{
		tex:   newTestTexture(4, 4),
		verts: make([]float32, 2*maxBatchVertices),
		idx:   []uint16{0, 1, 2},
	}

	r.Batch.Add(big)
	dev.ResetCalls()
	// One more vertex than fits: the batcher flushes what it holds
	// before accepting the quad.
	r.Batch.Add(newTestQuad(newTestTexture(8, 8)))

	if len(dev.Draws) != 1 {
		t.Fatalf("draws after overflow = %d, want 1", len(dev.Draws))
	}
	if dev.Draws[0].Count != 3 {
		t.Errorf("flushed count = %d", dev.Draws[0].Count)
	}

	r.Batch.Flush()
	if len(dev.Draws) != 2 {
		t.Errorf("draws after final flush = %d, want 2", len(dev.Draws))
	}
}

func TestBatchManySpritesFewDraws(t *testing.T) {
	r, dev := newTestRenderer(t)
	tex := newTestTexture(4, 4)

	dev.ResetCalls()
	for i := 0; i < 5000; i++ {
		r.Batch.Add(newTestQuad(tex))
	}
	r.Batch.Flush()

	// 4096 quads fill a batch exactly; the rest go in a second one.
	if len(dev.Draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(dev.Draws))
	}
	if dev.Draws[0].Count != 4096*6 {
		t.Errorf("first draw count = %d, want %d", dev.Draws[0].Count, 4096*6)
	}
	if dev.Draws[1].Count != 904*6 {
		t.Errorf("second draw count = %d, want %d", dev.Draws[1].Count, 904*6)
	}
	if dev.Draws[0].Program != dev.Draws[1].Program {
		t.Error("batches should share the batch shader")
	}
}

func TestBatchDropsOversizePrimitive(t *testing.T) {
	r, dev := newTestRenderer(t)
	huge := &polyList{
		tex:   newTestTexture(4, 4),
		verts: make([]float32, 2*(maxBatchVertices+1)),
		idx:   []uint16{0, 1, 2},
	}

	dev.ResetCalls()
	r.Batch.Add(huge)
	r.Batch.Flush()

	if len(dev.Draws) != 0 {
		t.Errorf("draws = %d, oversize primitive must be dropped", len(dev.Draws))
	}
}

func TestBatchEmptyFlushIsNoop(t *testing.T) {
	r, dev := newTestRenderer(t)
	dev.ResetCalls()
	r.Batch.Flush()
	if n := len(dev.Ops()); n != 0 {
		t.Errorf("ops = %d, want none", n)
	}
}

func TestBatchUniforms(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))
	dev.ResetCalls()
	r.Batch.Flush()

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d", len(dev.Draws))
	}
	uv := dev.Draws[0].Program.UniformValues

	samplers, ok := uv["uSamplers"].([]int32)
	if !ok || len(samplers) != 16 {
		t.Fatalf("uSamplers = %v", uv["uSamplers"])
	}
	for i, s := range samplers {
		if s != int32(i) {
			t.Errorf("uSamplers[%d] = %d", i, s)
		}
	}
	// The projection arrives through the shared globals group.
	if _, ok := uv["projectionMatrix"].([9]float32); !ok {
		t.Errorf("projectionMatrix = %v", uv["projectionMatrix"])
	}
}

func TestBatchResetFlushesAndDeactivates(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))
	dev.ResetCalls()

	r.Batch.Reset()
	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, reset must flush", len(dev.Draws))
	}

	// Deactivated: a further flush routes to the nop renderer.
	dev.ResetCalls()
	r.Batch.Flush()
	if n := len(dev.Ops()); n != 0 {
		t.Errorf("ops after reset = %d", n)
	}
}

func TestBatchShaderSamplerCountFollowsCaps(t *testing.T) {
	src := batchFragmentSrc(2)
	want := "uniform sampler2D uSamplers[2]"
	if !strings.Contains(src, want) {
		t.Errorf("fragment source missing %q:\n%s", want, src)
	}
	if !strings.Contains(src, "vTextureId < 0.5") {
		t.Errorf("fragment source missing slot comparison:\n%s", src)
	}

	single := batchFragmentSrc(1)
	if strings.Contains(single, "vTextureId <") {
		t.Errorf("single-sampler source must not branch:\n%s", single)
	}
}
