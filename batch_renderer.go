package stage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/stage/gl"
)

// batchVertexBytes is the interleaved vertex footprint: two position
// floats, two uv floats, four normalized color bytes and a sampler
// index float.
const batchVertexBytes = 24

// Batch capacity. Indices are 16-bit, so a batch may never address more
// than 65536 vertices; the limits stay under that to keep uploads small.
const (
	maxBatchVertices = 16 * 1024
	maxBatchIndices  = 24 * 1024
)

// batchTextureLimit caps the sampler array regardless of device caps.
// The generated fragment if-chain gets slower the longer it is.
const batchTextureLimit = 16

// batchTickSource hands out stamps for texture slot deduplication. A
// stamp is never reused, so stale batchTick values on a texture can
// never collide with a live batch.
var batchTickSource atomic.Int64

// BatchDrawCall is one GPU draw: a contiguous index range sharing a
// texture array and blend mode.
type BatchDrawCall struct {
	TexArray *BatchTextureArray
	Blend    BlendMode
	Start    int // first index
	Size     int // index count
}

// BatchTextureArray is the set of textures bound for a draw call,
// indexed by sampler slot.
type BatchTextureArray struct {
	Textures []*BaseTexture
	Count    int
}

func (ta *BatchTextureArray) clear() {
	for i := 0; i < ta.Count; i++ {
		ta.Textures[i] = nil
	}
	ta.Count = 0
}

var (
	drawCallPool = sync.Pool{New: func() any { return &BatchDrawCall{} }}
	texArrayPool = sync.Pool{New: func() any { return &BatchTextureArray{} }}
)

// BatchRenderer folds textured triangle lists into as few draw calls as
// the device's sampler count allows. Primitives are serialized into one
// interleaved vertex stream in submission order; a draw call is cut
// whenever the blend mode changes or a draw would need more textures
// than can be bound at once.
type BatchRenderer struct {
	renderer *Renderer

	shader    *Shader
	geometry  *Geometry
	vertexBuf *Buffer
	indexBuf  *Buffer

	maxTextures int

	elements    []Batchable
	vertexCount int
	indexCount  int

	// vertexBytes and indexBytes are reused across flushes; uploads
	// copy out of them synchronously.
	vertexBytes []byte
	indexBytes  []byte
	calls       []*BatchDrawCall

	state *State
}

func newBatchRenderer(r *Renderer) *BatchRenderer {
	b := &BatchRenderer{
		renderer:  r,
		state:     NewState(),
		vertexBuf: NewBuffer(nil, false),
		indexBuf:  NewIndexBuffer(nil, false),
	}
	b.geometry = NewGeometry().
		AddAttribute("aVertexPosition", b.vertexBuf,
			Attribute{Size: 2, Type: gl.Float, Stride: batchVertexBytes, Offset: 0}).
		AddAttribute("aTextureCoord", b.vertexBuf,
			Attribute{Size: 2, Type: gl.Float, Stride: batchVertexBytes, Offset: 8}).
		AddAttribute("aColor", b.vertexBuf,
			Attribute{Size: 4, Type: gl.UnsignedByte, Normalized: true, Stride: batchVertexBytes, Offset: 16}).
		AddAttribute("aTextureId", b.vertexBuf,
			Attribute{Size: 1, Type: gl.Float, Stride: batchVertexBytes, Offset: 20}).
		AddIndex(b.indexBuf)
	return b
}

// MaxTextures returns the sampler count the generated shader uses.
func (b *BatchRenderer) MaxTextures() int { return b.maxTextures }

// ContextChange sizes the sampler array to the new context and
// regenerates the shader when the count changed.
func (b *BatchRenderer) ContextChange(oldUID int) {
	limit := b.renderer.device().Caps().MaxTextureUnits
	if limit > batchTextureLimit {
		limit = batchTextureLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit == b.maxTextures && b.shader != nil {
		return
	}
	b.maxTextures = limit

	samplers := make([]int32, limit)
	for i := range samplers {
		samplers[i] = int32(i)
	}
	uniforms := NewUniformGroup()
	uniforms.Set("uSamplers", samplers)
	uniforms.Set("globals", b.renderer.globalUniforms)
	b.shader = NewShader(NewProgram(batchVertexSrc, batchFragmentSrc(limit)), uniforms)
}

// Start implements ObjectRenderer.
func (b *BatchRenderer) Start() {}

// Stop implements ObjectRenderer.
func (b *BatchRenderer) Stop() { b.Flush() }

// Add accepts el for the next flush. When el would overflow the batch it
// flushes first, so submission order is preserved across the cut.
func (b *BatchRenderer) Add(el Batchable) {
	nv := len(el.BatchVertexData()) / 2
	ni := len(el.BatchIndices())
	if nv == 0 || ni == 0 {
		return
	}
	if nv > maxBatchVertices || ni > maxBatchIndices {
		Logger().Warn("stage: primitive exceeds batch capacity",
			"vertices", nv, "indices", ni)
		return
	}
	if b.vertexCount+nv > maxBatchVertices || b.indexCount+ni > maxBatchIndices {
		b.Flush()
	}
	b.elements = append(b.elements, el)
	b.vertexCount += nv
	b.indexCount += ni
}

// Flush serializes the accumulated primitives, uploads them and issues
// the draw calls.
func (b *BatchRenderer) Flush() {
	if len(b.elements) == 0 {
		return
	}
	if b.shader == nil {
		b.ContextChange(0)
	}
	r := b.renderer

	calls := b.buildDrawCalls()
	b.vertexBuf.Update(b.vertexBytes)
	b.indexBuf.Update(b.indexBytes)

	if _, err := r.Shader.Bind(b.shader); err != nil {
		Logger().Error("stage: batch shader failed", "error", err)
		b.release(calls)
		return
	}
	if err := r.Geometry.Bind(b.geometry, b.shader); err != nil {
		Logger().Error("stage: batch geometry failed", "error", err)
		b.release(calls)
		return
	}
	r.State.SetState(b.state)

	for _, dc := range calls {
		r.State.SetBlendMode(dc.Blend)
		ta := dc.TexArray
		for i := 0; i < ta.Count; i++ {
			r.Texture.Bind(ta.Textures[i], i)
		}
		r.Geometry.Draw(gl.Triangles, dc.Size, dc.Start, 1)
	}

	b.release(calls)
}

// buildDrawCalls assigns sampler slots, cuts draw calls and serializes
// every element into the interleaved stream.
func (b *BatchRenderer) buildDrawCalls() []*BatchDrawCall {
	b.calls = b.calls[:0]
	b.vertexBytes = b.vertexBytes[:0]
	b.indexBytes = b.indexBytes[:0]

	tick := int(batchTickSource.Add(1))
	texArray := texArrayPool.Get().(*BatchTextureArray)
	var cur *BatchDrawCall
	indexStart := 0

	for _, el := range b.elements {
		base := el.BatchTexture()
		blend := correctBlendMode(el.BatchBlendMode(), base.Premultiplied())

		inArray := base.batchTick == tick
		if !inArray && texArray.Count >= b.maxTextures {
			// Sampler budget exhausted: the next call starts with a
			// fresh array. A new tick invalidates every slot stamp.
			tick = int(batchTickSource.Add(1))
			texArray = texArrayPool.Get().(*BatchTextureArray)
			cur = nil
		}
		if base.batchTick != tick {
			base.batchTick = tick
			base.batchSlot = texArray.Count
			if texArray.Count < len(texArray.Textures) {
				texArray.Textures[texArray.Count] = base
			} else {
				texArray.Textures = append(texArray.Textures, base)
			}
			texArray.Count++
		}
		if cur == nil || cur.Blend != blend {
			cur = drawCallPool.Get().(*BatchDrawCall)
			cur.TexArray = texArray
			cur.Blend = blend
			cur.Start = indexStart
			cur.Size = 0
			b.calls = append(b.calls, cur)
		}

		b.pack(el, base.batchSlot)
		n := len(el.BatchIndices())
		cur.Size += n
		indexStart += n
	}
	return b.calls
}

// pack appends el's vertices and indices to the streams, stamping every
// vertex with its color and sampler slot.
func (b *BatchRenderer) pack(el Batchable, slot int) {
	verts := el.BatchVertexData()
	uvs := el.BatchUVs()
	color := TintBytes(el.BatchTint(), el.BatchAlpha())
	texID := math.Float32bits(float32(slot))

	firstVertex := len(b.vertexBytes) / batchVertexBytes
	n := len(verts) / 2

	off := len(b.vertexBytes)
	b.vertexBytes = append(b.vertexBytes, make([]byte, n*batchVertexBytes)...)
	p := b.vertexBytes[off:]
	for i := 0; i < n; i++ {
		binary.NativeEndian.PutUint32(p[0:4], math.Float32bits(verts[i*2]))
		binary.NativeEndian.PutUint32(p[4:8], math.Float32bits(verts[i*2+1]))
		binary.NativeEndian.PutUint32(p[8:12], math.Float32bits(uvs[i*2]))
		binary.NativeEndian.PutUint32(p[12:16], math.Float32bits(uvs[i*2+1]))
		p[16], p[17], p[18], p[19] = color[0], color[1], color[2], color[3]
		binary.NativeEndian.PutUint32(p[20:24], texID)
		p = p[batchVertexBytes:]
	}

	var idx [2]byte
	for _, i := range el.BatchIndices() {
		binary.NativeEndian.PutUint16(idx[:], uint16(firstVertex+int(i)))
		b.indexBytes = append(b.indexBytes, idx[0], idx[1])
	}
}

// release returns the draw calls and texture arrays to their pools and
// clears the accumulators. Consecutive calls may share one array; each
// distinct array is returned once.
func (b *BatchRenderer) release(calls []*BatchDrawCall) {
	var prev *BatchTextureArray
	for _, dc := range calls {
		if dc.TexArray != prev {
			prev = dc.TexArray
			prev.clear()
			texArrayPool.Put(prev)
		}
		dc.TexArray = nil
		drawCallPool.Put(dc)
	}
	b.calls = b.calls[:0]
	b.elements = b.elements[:0]
	b.vertexCount = 0
	b.indexCount = 0
}

// Destroy implements ObjectRenderer.
func (b *BatchRenderer) Destroy() {
	b.geometry.Destroy()
	b.elements = nil
	b.shader = nil
}

// batchVertexSrc transforms world-space positions by the projection and
// forwards color and sampler slot to the fragment stage.
const batchVertexSrc = `
attribute vec2 aVertexPosition;
attribute vec2 aTextureCoord;
attribute vec4 aColor;
attribute float aTextureId;

uniform mat3 projectionMatrix;

varying vec2 vTextureCoord;
varying vec4 vColor;
varying float vTextureId;

void main(void)
{
	gl_Position = vec4((projectionMatrix * vec3(aVertexPosition, 1.0)).xy, 0.0, 1.0);
	vTextureCoord = aTextureCoord;
	vTextureId = aTextureId;
	vColor = aColor;
}
`

// batchFragmentSrc generates the sampler selection chain for count
// textures. Sampler indices arrive as floats, so the chain compares
// against half-open midpoints.
func batchFragmentSrc(count int) string {
	var sb strings.Builder
	sb.WriteString(`
varying vec2 vTextureCoord;
varying vec4 vColor;
varying float vTextureId;

uniform sampler2D uSamplers[`)
	fmt.Fprintf(&sb, "%d];\n\nvoid main(void)\n{\n\tvec4 color;\n", count)
	for i := 0; i < count; i++ {
		switch {
		case count == 1:
			sb.WriteString("\tcolor = texture2D(uSamplers[0], vTextureCoord);\n")
		case i == 0:
			fmt.Fprintf(&sb, "\tif (vTextureId < %d.5) color = texture2D(uSamplers[%d], vTextureCoord);\n", i, i)
		case i == count-1:
			fmt.Fprintf(&sb, "\telse color = texture2D(uSamplers[%d], vTextureCoord);\n", i)
		default:
			fmt.Fprintf(&sb, "\telse if (vTextureId < %d.5) color = texture2D(uSamplers[%d], vTextureCoord);\n", i, i)
		}
	}
	sb.WriteString("\tgl_FragColor = color * vColor;\n}\n")
	return sb.String()
}
