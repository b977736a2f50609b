// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gltest provides an in-memory gl.Device that records every call
// made against it. It exists for tests and headless environments: state
// changes, binds, uploads and draw calls are captured with enough detail
// to assert on batching, state diffing, masking and resource lifetimes
// without a GPU.
//
// The device also simulates context loss: LoseContext and RestoreContext
// drive the same handler path a real driver would, all resources created
// before the loss become stale, and stale or released resources fail the
// test loudly when touched.
//
// Importing the package registers the driver under gl.DriverTest.
package gltest

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

func init() {
	gl.Register(gl.DriverTest, func(opts gl.Options) (gl.Device, error) {
		d := New()
		d.Opts = opts
		return d, nil
	})
}

// DefaultCaps is the capability set a freshly constructed Device reports.
func DefaultCaps() gl.Caps {
	return gl.Caps{
		Features: gl.FeatureVertexArrays | gl.FeatureInstancing |
			gl.FeatureUint32Indices | gl.FeatureStencil | gl.FeatureMSAA |
			gl.FeatureBlit | gl.FeatureFloatTextures | gl.FeatureDepthTexture |
			gl.FeatureLoseContext,
		MaxTextureSize:   8192,
		MaxTextureUnits:  16,
		MaxSamples:       4,
		MaxVertexAttribs: 16,
	}
}

// DrawCall is the recorded form of one draw, including a snapshot of the
// state machine at submission time.
type DrawCall struct {
	Mode      gl.PrimitiveMode
	Count     int
	Type      gl.DataType
	Offset    int
	First     int
	Instances int
	Indexed   bool

	Program     *Program
	Framebuffer *Framebuffer // nil means the default backbuffer
	Textures    map[int]*Texture

	Blend       bool
	BlendFunc   [4]gl.BlendFactor
	ScissorOn   bool
	Scissor     [4]int
	StencilOn   bool
	StencilFunc gl.CompareFunc
	StencilRef  int
	Viewport    [4]int
}

// Device is a recording gl.Device. The zero value is not usable; call New
// or NewWithCaps.
type Device struct {
	Opts gl.Options

	// Resources in creation order, including released ones.
	Textures      []*Texture
	Buffers       []*Buffer
	Programs      []*Program
	Framebuffers  []*Framebuffer
	Renderbuffers []*Renderbuffer
	VertexArrays  []*VertexArray

	// Draws holds every draw call with its state snapshot.
	Draws []DrawCall

	// LostReleases counts Release calls issued against resources while
	// the context was lost. Well-behaved callers never delete on a dead
	// context, so tests assert this stays zero.
	LostReleases int

	// Ignored counts mutating device calls that arrived while lost.
	Ignored int

	caps     gl.Caps
	lost     bool
	released bool

	onLost, onRestored func()

	ops    []string
	counts map[string]int

	nextID int

	units      map[int]*Texture
	activeUnit int
	fb         *Framebuffer
	vao        *VertexArray
	program    *Program
	buffers    map[gl.BufferType]*Buffer

	blendOn      bool
	blendFunc    [4]gl.BlendFactor
	blendOp      gl.BlendOp
	blendOpAlpha gl.BlendOp
	depthOn      bool
	depthWrite   bool
	depthFunc    gl.CompareFunc
	cullOn       bool
	cullMode     gl.CullMode
	frontCW      bool
	offsetOn     bool
	offset       [2]float32
	scissorOn    bool
	scissor      [4]int
	stencilOn    bool
	stencilFn    gl.CompareFunc
	stencilRef   int
	stencilMask  uint32
	stencilOps   [3]gl.StencilOp
	colorMask    [4]bool
	viewport     [4]int
	clearColor   [4]float32
}

// New returns a device with DefaultCaps.
func New() *Device {
	return NewWithCaps(DefaultCaps())
}

// NewWithCaps returns a device reporting the given capabilities. Tests use
// reduced caps to exercise fallback paths (few texture units, no stencil,
// no multisampling).
func NewWithCaps(caps gl.Caps) *Device {
	return &Device{
		caps:       caps,
		counts:     make(map[string]int),
		units:      make(map[int]*Texture),
		buffers:    make(map[gl.BufferType]*Buffer),
		depthWrite: true,
		colorMask:  [4]bool{true, true, true, true},
	}
}

// gate validates and records a mutating call. It returns true when the
// call must be dropped because the context is lost.
func (d *Device) gate(op string) bool {
	if d.released {
		panic("gltest: call on released device: " + op)
	}
	if d.lost {
		d.Ignored++
		return true
	}
	d.ops = append(d.ops, op)
	d.counts[op]++
	return false
}

// use validates a resource operation against lifetime rules. It returns
// true when the operation must be dropped.
func (d *Device) use(op string, released, stale *bool) bool {
	if d.released {
		panic("gltest: call on released device: " + op)
	}
	if *released {
		panic("gltest: " + op + " on released resource")
	}
	if d.lost {
		d.Ignored++
		return true
	}
	if *stale {
		panic("gltest: " + op + " on resource from a lost context")
	}
	d.ops = append(d.ops, op)
	d.counts[op]++
	return false
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// Count returns how many times the named device call was recorded.
func (d *Device) Count(op string) int { return d.counts[op] }

// Ops returns the ordered call log.
func (d *Device) Ops() []string {
	out := make([]string, len(d.ops))
	copy(out, d.ops)
	return out
}

// ResetCalls clears the call log, counters and recorded draws. Resources
// and current bindings are kept, letting tests scope assertions to the
// code under test rather than renderer construction.
func (d *Device) ResetCalls() {
	d.ops = d.ops[:0]
	d.counts = make(map[string]int)
	d.Draws = nil
	d.Ignored = 0
	d.LostReleases = 0
}

// LoseContext simulates a context loss. All live resources become stale
// and the loss handler runs synchronously.
func (d *Device) LoseContext() {
	if d.lost || d.released {
		return
	}
	d.lost = true
	for _, t := range d.Textures {
		t.stale = true
	}
	for _, b := range d.Buffers {
		b.stale = true
	}
	for _, p := range d.Programs {
		p.stale = true
	}
	for _, f := range d.Framebuffers {
		f.stale = true
	}
	for _, r := range d.Renderbuffers {
		r.stale = true
	}
	for _, v := range d.VertexArrays {
		v.stale = true
	}
	if d.onLost != nil {
		d.onLost()
	}
}

// RestoreContext ends a simulated loss. Bindings reset to a fresh context
// and the restore handler runs synchronously.
func (d *Device) RestoreContext() {
	if !d.lost || d.released {
		return
	}
	d.lost = false
	d.units = make(map[int]*Texture)
	d.buffers = make(map[gl.BufferType]*Buffer)
	d.fb = nil
	d.vao = nil
	d.program = nil
	if d.onRestored != nil {
		d.onRestored()
	}
}

// LiveTextures returns the textures that are neither released nor stale.
func (d *Device) LiveTextures() []*Texture {
	var out []*Texture
	for _, t := range d.Textures {
		if !t.Released && !t.stale {
			out = append(out, t)
		}
	}
	return out
}

// Current bindings and state, for assertions.

func (d *Device) BoundTexture(unit int) *Texture     { return d.units[unit] }
func (d *Device) CurrentProgram() *Program           { return d.program }
func (d *Device) CurrentFramebuffer() *Framebuffer   { return d.fb }
func (d *Device) CurrentVertexArray() *VertexArray   { return d.vao }
func (d *Device) BlendEnabled() bool                 { return d.blendOn }
func (d *Device) BlendFuncState() [4]gl.BlendFactor  { return d.blendFunc }
func (d *Device) BlendOpState() (gl.BlendOp, gl.BlendOp) { return d.blendOp, d.blendOpAlpha }
func (d *Device) DepthTestEnabled() bool             { return d.depthOn }
func (d *Device) DepthWriteEnabled() bool            { return d.depthWrite }
func (d *Device) CullFaceEnabled() bool              { return d.cullOn }
func (d *Device) FrontFaceClockwise() bool           { return d.frontCW }
func (d *Device) PolygonOffsetEnabled() bool         { return d.offsetOn }
func (d *Device) PolygonOffsetState() [2]float32     { return d.offset }
func (d *Device) ScissorEnabled() bool               { return d.scissorOn }
func (d *Device) ScissorRect() [4]int                { return d.scissor }
func (d *Device) StencilEnabled() bool               { return d.stencilOn }
func (d *Device) StencilState() (gl.CompareFunc, int) { return d.stencilFn, d.stencilRef }
func (d *Device) StencilOpState() [3]gl.StencilOp    { return d.stencilOps }
func (d *Device) ViewportRect() [4]int               { return d.viewport }
func (d *Device) ClearColorState() [4]float32        { return d.clearColor }

// gl.Device implementation.

func (d *Device) Caps() gl.Caps { return d.caps }

func (d *Device) IsLost() bool { return d.lost }

func (d *Device) SetContextHandler(onLost, onRestored func()) {
	d.onLost, d.onRestored = onLost, onRestored
}

func (d *Device) NewBuffer(typ gl.BufferType) (gl.Buffer, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	b := &Buffer{d: d, ID: d.id(), Type: typ}
	d.Buffers = append(d.Buffers, b)
	d.gate("NewBuffer")
	return b, nil
}

func (d *Device) NewTexture() (gl.Texture, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	t := &Texture{d: d, ID: d.id()}
	d.Textures = append(d.Textures, t)
	d.gate("NewTexture")
	return t, nil
}

func (d *Device) NewRenderbuffer() (gl.Renderbuffer, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	r := &Renderbuffer{d: d, ID: d.id()}
	d.Renderbuffers = append(d.Renderbuffers, r)
	d.gate("NewRenderbuffer")
	return r, nil
}

func (d *Device) NewFramebuffer() (gl.Framebuffer, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	f := &Framebuffer{d: d, ID: d.id(), ColorTex: make(map[int]*Texture), ColorRB: make(map[int]*Renderbuffer)}
	d.Framebuffers = append(d.Framebuffers, f)
	d.gate("NewFramebuffer")
	return f, nil
}

func (d *Device) NewProgram(vertexSrc, fragmentSrc string) (gl.Program, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	if strings.TrimSpace(vertexSrc) == "" || strings.TrimSpace(fragmentSrc) == "" {
		return nil, fmt.Errorf("%w: empty shader source", gl.ErrShaderCompile)
	}
	p := &Program{
		d:             d,
		ID:            d.id(),
		VertexSrc:     vertexSrc,
		FragmentSrc:   fragmentSrc,
		Attribs:       parseAttributes(vertexSrc),
		uniforms:      map[string]int{},
		UniformValues: map[string]any{},
	}
	for _, name := range parseUniforms(vertexSrc, fragmentSrc) {
		p.uniforms[name] = len(p.uniforms)
	}
	p.locNames = make(map[int]string, len(p.uniforms))
	for name, loc := range p.uniforms {
		p.locNames[loc] = name
	}
	d.Programs = append(d.Programs, p)
	d.gate("NewProgram")
	return p, nil
}

func (d *Device) NewVertexArray() (gl.VertexArray, error) {
	if d.lost {
		return nil, gl.ErrContextLost
	}
	v := &VertexArray{d: d, ID: d.id(), Attribs: make(map[int]AttribPointer)}
	d.VertexArrays = append(d.VertexArrays, v)
	d.gate("NewVertexArray")
	return v, nil
}

func (d *Device) BindBuffer(typ gl.BufferType, b gl.Buffer) {
	if d.gate("BindBuffer") {
		return
	}
	var tb *Buffer
	if b != nil {
		tb = b.(*Buffer)
	}
	d.buffers[typ] = tb
	// Element buffer binding is part of vertex array state.
	if typ == gl.ElementArrayBuffer && d.vao != nil {
		d.vao.Element = tb
	}
}

func (d *Device) BindTexture(unit int, t gl.Texture) {
	if d.gate("BindTexture") {
		return
	}
	d.activeUnit = unit
	if t == nil {
		delete(d.units, unit)
		return
	}
	d.units[unit] = t.(*Texture)
}

func (d *Device) BindFramebuffer(f gl.Framebuffer) {
	if d.gate("BindFramebuffer") {
		return
	}
	if f == nil {
		d.fb = nil
		return
	}
	d.fb = f.(*Framebuffer)
}

func (d *Device) BindVertexArray(v gl.VertexArray) {
	if d.gate("BindVertexArray") {
		return
	}
	if v == nil {
		d.vao = nil
		return
	}
	d.vao = v.(*VertexArray)
}

func (d *Device) UseProgram(p gl.Program) {
	if d.gate("UseProgram") {
		return
	}
	if p == nil {
		d.program = nil
		return
	}
	d.program = p.(*Program)
}

func (d *Device) VertexAttribPointer(location, size int, typ gl.DataType, normalized bool, stride, offset int) {
	if d.gate("VertexAttribPointer") {
		return
	}
	if d.vao == nil {
		panic("gltest: VertexAttribPointer without a bound vertex array")
	}
	ap := d.vao.Attribs[location]
	ap.Buffer = d.buffers[gl.ArrayBuffer]
	ap.Size = size
	ap.Type = typ
	ap.Normalized = normalized
	ap.Stride = stride
	ap.Offset = offset
	d.vao.Attribs[location] = ap
}

func (d *Device) EnableVertexAttrib(location int) {
	if d.gate("EnableVertexAttrib") {
		return
	}
	if d.vao == nil {
		panic("gltest: EnableVertexAttrib without a bound vertex array")
	}
	ap := d.vao.Attribs[location]
	ap.Enabled = true
	d.vao.Attribs[location] = ap
}

func (d *Device) DisableVertexAttrib(location int) {
	if d.gate("DisableVertexAttrib") {
		return
	}
	if d.vao == nil {
		panic("gltest: DisableVertexAttrib without a bound vertex array")
	}
	ap := d.vao.Attribs[location]
	ap.Enabled = false
	d.vao.Attribs[location] = ap
}

func (d *Device) VertexAttribDivisor(location, divisor int) {
	if d.gate("VertexAttribDivisor") {
		return
	}
	if d.vao == nil {
		panic("gltest: VertexAttribDivisor without a bound vertex array")
	}
	ap := d.vao.Attribs[location]
	ap.Divisor = divisor
	d.vao.Attribs[location] = ap
}

func (d *Device) SetBlend(enable bool) {
	if d.gate("SetBlend") {
		return
	}
	d.blendOn = enable
}

func (d *Device) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gl.BlendFactor) {
	if d.gate("BlendFuncSeparate") {
		return
	}
	d.blendFunc = [4]gl.BlendFactor{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

func (d *Device) BlendEquationSeparate(rgb, alpha gl.BlendOp) {
	if d.gate("BlendEquationSeparate") {
		return
	}
	d.blendOp = rgb
	d.blendOpAlpha = alpha
}

func (d *Device) SetDepthTest(enable bool) {
	if d.gate("SetDepthTest") {
		return
	}
	d.depthOn = enable
}

func (d *Device) DepthFunc(f gl.CompareFunc) {
	if d.gate("DepthFunc") {
		return
	}
	d.depthFunc = f
}

func (d *Device) DepthMask(write bool) {
	if d.gate("DepthMask") {
		return
	}
	d.depthWrite = write
}

func (d *Device) SetCullFace(enable bool) {
	if d.gate("SetCullFace") {
		return
	}
	d.cullOn = enable
}

func (d *Device) CullFace(mode gl.CullMode) {
	if d.gate("CullFace") {
		return
	}
	d.cullMode = mode
}

func (d *Device) FrontFace(clockwise bool) {
	if d.gate("FrontFace") {
		return
	}
	d.frontCW = clockwise
}

func (d *Device) SetPolygonOffset(enable bool) {
	if d.gate("SetPolygonOffset") {
		return
	}
	d.offsetOn = enable
}

func (d *Device) PolygonOffset(factor, units float32) {
	if d.gate("PolygonOffset") {
		return
	}
	d.offset = [2]float32{factor, units}
}

func (d *Device) SetScissorTest(enable bool) {
	if d.gate("SetScissorTest") {
		return
	}
	d.scissorOn = enable
}

func (d *Device) Scissor(x, y, width, height int) {
	if d.gate("Scissor") {
		return
	}
	d.scissor = [4]int{x, y, width, height}
}

func (d *Device) SetStencilTest(enable bool) {
	if d.gate("SetStencilTest") {
		return
	}
	d.stencilOn = enable
}

func (d *Device) StencilFunc(f gl.CompareFunc, ref int, mask uint32) {
	if d.gate("StencilFunc") {
		return
	}
	d.stencilFn, d.stencilRef, d.stencilMask = f, ref, mask
}

func (d *Device) StencilOp(fail, zfail, zpass gl.StencilOp) {
	if d.gate("StencilOp") {
		return
	}
	d.stencilOps = [3]gl.StencilOp{fail, zfail, zpass}
}

func (d *Device) StencilMask(mask uint32) {
	if d.gate("StencilMask") {
		return
	}
	d.stencilMask = mask
}

func (d *Device) ColorMask(r, g, b, a bool) {
	if d.gate("ColorMask") {
		return
	}
	d.colorMask = [4]bool{r, g, b, a}
}

func (d *Device) Viewport(x, y, width, height int) {
	if d.gate("Viewport") {
		return
	}
	d.viewport = [4]int{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) {
	if d.gate("ClearColor") {
		return
	}
	d.clearColor = [4]float32{r, g, b, a}
}

func (d *Device) Clear(mask gl.ClearMask) {
	d.gate("Clear")
}

func (d *Device) DrawElements(mode gl.PrimitiveMode, count int, typ gl.DataType, byteOffset int) {
	if d.gate("DrawElements") {
		return
	}
	d.Draws = append(d.Draws, d.snapshot(DrawCall{
		Mode: mode, Count: count, Type: typ, Offset: byteOffset,
		Indexed: true, Instances: 1,
	}))
}

func (d *Device) DrawElementsInstanced(mode gl.PrimitiveMode, count int, typ gl.DataType, byteOffset, instanceCount int) {
	if d.gate("DrawElementsInstanced") {
		return
	}
	d.Draws = append(d.Draws, d.snapshot(DrawCall{
		Mode: mode, Count: count, Type: typ, Offset: byteOffset,
		Indexed: true, Instances: instanceCount,
	}))
}

func (d *Device) DrawArrays(mode gl.PrimitiveMode, first, count int) {
	if d.gate("DrawArrays") {
		return
	}
	d.Draws = append(d.Draws, d.snapshot(DrawCall{
		Mode: mode, First: first, Count: count, Instances: 1,
	}))
}

func (d *Device) DrawArraysInstanced(mode gl.PrimitiveMode, first, count, instanceCount int) {
	if d.gate("DrawArraysInstanced") {
		return
	}
	d.Draws = append(d.Draws, d.snapshot(DrawCall{
		Mode: mode, First: first, Count: count, Instances: instanceCount,
	}))
}

func (d *Device) snapshot(dc DrawCall) DrawCall {
	dc.Program = d.program
	dc.Framebuffer = d.fb
	dc.Textures = make(map[int]*Texture, len(d.units))
	for unit, t := range d.units {
		dc.Textures[unit] = t
	}
	dc.Blend = d.blendOn
	dc.BlendFunc = d.blendFunc
	dc.ScissorOn = d.scissorOn
	dc.Scissor = d.scissor
	dc.StencilOn = d.stencilOn
	dc.StencilFunc = d.stencilFn
	dc.StencilRef = d.stencilRef
	dc.Viewport = d.viewport
	return dc
}

func (d *Device) BlitFramebuffer(src, dst gl.Framebuffer, width, height int) {
	d.gate("BlitFramebuffer")
}

func (d *Device) Flush() {
	d.gate("Flush")
}

func (d *Device) Release() {
	d.released = true
}

// AttribPointer is the recorded layout of one vertex attribute location.
type AttribPointer struct {
	Buffer     *Buffer
	Size       int
	Type       gl.DataType
	Normalized bool
	Stride     int
	Offset     int
	Divisor    int
	Enabled    bool
}

// Buffer records buffer allocations and updates.
type Buffer struct {
	d    *Device
	ID   int
	Type gl.BufferType

	Uploads    int
	SubUploads int
	Usage      gl.BufferUsage
	Released   bool

	size  int
	stale bool
}

func (b *Buffer) Upload(data []byte, usage gl.BufferUsage) {
	if b.d.use("Buffer.Upload", &b.Released, &b.stale) {
		return
	}
	if b.d.buffers[b.Type] != b {
		panic("gltest: Buffer.Upload on unbound buffer")
	}
	b.size = len(data)
	b.Usage = usage
	b.Uploads++
}

func (b *Buffer) SubUpload(offset int, data []byte) {
	if b.d.use("Buffer.SubUpload", &b.Released, &b.stale) {
		return
	}
	if b.d.buffers[b.Type] != b {
		panic("gltest: Buffer.SubUpload on unbound buffer")
	}
	if offset+len(data) > b.size {
		panic(fmt.Sprintf("gltest: Buffer.SubUpload out of range: %d+%d > %d", offset, len(data), b.size))
	}
	b.SubUploads++
}

func (b *Buffer) Size() int { return b.size }

func (b *Buffer) Release() {
	if b.d.lost {
		b.d.LostReleases++
		return
	}
	if b.Released {
		panic("gltest: double release of buffer")
	}
	b.Released = true
	b.d.gate("Buffer.Release")
}

// Texture records storage, uploads and sampler state.
type Texture struct {
	d  *Device
	ID int

	W, H       int
	Format     gputypes.TextureFormat
	Storages   int
	Uploads    int
	LastUpload [4]int
	LastBytes  int
	MinFilter  gl.TextureFilter
	MagFilter  gl.TextureFilter
	WrapU      gl.TextureWrap
	WrapV      gl.TextureWrap
	Mipmaps    int
	Released   bool

	stale bool
}

func (t *Texture) boundCheck(op string) bool {
	if t.d.use(op, &t.Released, &t.stale) {
		return true
	}
	if t.d.units[t.d.activeUnit] != t {
		panic("gltest: " + op + " on texture not bound to the active unit")
	}
	return false
}

func (t *Texture) Storage(width, height int, format gputypes.TextureFormat) {
	if t.boundCheck("Texture.Storage") {
		return
	}
	t.W, t.H, t.Format = width, height, format
	t.Storages++
}

func (t *Texture) Upload(x, y, width, height int, pixels []byte) {
	if t.boundCheck("Texture.Upload") {
		return
	}
	if x+width > t.W || y+height > t.H {
		panic(fmt.Sprintf("gltest: Texture.Upload out of range: %d,%d %dx%d into %dx%d", x, y, width, height, t.W, t.H))
	}
	t.Uploads++
	t.LastUpload = [4]int{x, y, width, height}
	t.LastBytes = len(pixels)
}

func (t *Texture) SetFilter(min, mag gl.TextureFilter) {
	if t.boundCheck("Texture.SetFilter") {
		return
	}
	t.MinFilter, t.MagFilter = min, mag
}

func (t *Texture) SetWrap(u, v gl.TextureWrap) {
	if t.boundCheck("Texture.SetWrap") {
		return
	}
	t.WrapU, t.WrapV = u, v
}

func (t *Texture) GenerateMipmap() {
	if t.boundCheck("Texture.GenerateMipmap") {
		return
	}
	t.Mipmaps++
}

func (t *Texture) Release() {
	if t.d.lost {
		t.d.LostReleases++
		return
	}
	if t.Released {
		panic("gltest: double release of texture")
	}
	t.Released = true
	t.d.gate("Texture.Release")
	for unit, bound := range t.d.units {
		if bound == t {
			delete(t.d.units, unit)
		}
	}
}

// Renderbuffer records offscreen attachment storage.
type Renderbuffer struct {
	d  *Device
	ID int

	W, H     int
	Samples  int
	Format   gputypes.TextureFormat
	Released bool

	stale bool
}

func (r *Renderbuffer) Storage(width, height, samples int, format gputypes.TextureFormat) {
	if r.d.use("Renderbuffer.Storage", &r.Released, &r.stale) {
		return
	}
	r.W, r.H, r.Samples, r.Format = width, height, samples, format
}

func (r *Renderbuffer) Release() {
	if r.d.lost {
		r.d.LostReleases++
		return
	}
	if r.Released {
		panic("gltest: double release of renderbuffer")
	}
	r.Released = true
	r.d.gate("Renderbuffer.Release")
}

// Framebuffer records attachments and reads.
type Framebuffer struct {
	d  *Device
	ID int

	ColorTex     map[int]*Texture
	ColorRB      map[int]*Renderbuffer
	DepthStencil *Renderbuffer
	DepthTex     *Texture
	Reads        int
	Released     bool

	stale bool
}

func (f *Framebuffer) boundCheck(op string) bool {
	if f.d.use(op, &f.Released, &f.stale) {
		return true
	}
	if f.d.fb != f {
		panic("gltest: " + op + " on unbound framebuffer")
	}
	return false
}

func (f *Framebuffer) AttachColor(index int, t gl.Texture) {
	if f.boundCheck("Framebuffer.AttachColor") {
		return
	}
	f.ColorTex[index] = t.(*Texture)
}

func (f *Framebuffer) AttachColorRenderbuffer(index int, rb gl.Renderbuffer) {
	if f.boundCheck("Framebuffer.AttachColorRenderbuffer") {
		return
	}
	f.ColorRB[index] = rb.(*Renderbuffer)
}

func (f *Framebuffer) AttachDepthStencil(rb gl.Renderbuffer) {
	if f.boundCheck("Framebuffer.AttachDepthStencil") {
		return
	}
	f.DepthStencil = rb.(*Renderbuffer)
}

func (f *Framebuffer) AttachDepthTexture(t gl.Texture) {
	if f.boundCheck("Framebuffer.AttachDepthTexture") {
		return
	}
	f.DepthTex = t.(*Texture)
}

func (f *Framebuffer) IsComplete() error {
	if f.d.use("Framebuffer.IsComplete", &f.Released, &f.stale) {
		return gl.ErrContextLost
	}
	if len(f.ColorTex) == 0 && len(f.ColorRB) == 0 {
		return fmt.Errorf("%w: no color attachment", gl.ErrFramebufferIncomplete)
	}
	return nil
}

func (f *Framebuffer) ReadPixels(x, y, width, height int, dst []byte) error {
	if f.boundCheck("Framebuffer.ReadPixels") {
		return gl.ErrContextLost
	}
	if len(dst) < width*height*4 {
		return fmt.Errorf("gltest: ReadPixels destination too small: %d < %d", len(dst), width*height*4)
	}
	f.Reads++
	for i := range dst[:width*height*4] {
		dst[i] = 0
	}
	return nil
}

func (f *Framebuffer) Release() {
	if f.d.lost {
		f.d.LostReleases++
		return
	}
	if f.Released {
		panic("gltest: double release of framebuffer")
	}
	f.Released = true
	f.d.gate("Framebuffer.Release")
	if f.d.fb == f {
		f.d.fb = nil
	}
}

// VertexArray records attribute layout and the element buffer binding.
type VertexArray struct {
	d  *Device
	ID int

	Attribs  map[int]AttribPointer
	Element  *Buffer
	Released bool

	stale bool
}

func (v *VertexArray) Release() {
	if v.d.lost {
		v.d.LostReleases++
		return
	}
	if v.Released {
		panic("gltest: double release of vertex array")
	}
	v.Released = true
	v.d.gate("VertexArray.Release")
	if v.d.vao == v {
		v.d.vao = nil
	}
}

// Program parses attribute and uniform declarations out of the source so
// reflection works the way it does on a real driver.
type Program struct {
	d  *Device
	ID int

	VertexSrc   string
	FragmentSrc string
	Attribs     []string

	// UniformValues holds the last value stored per uniform name.
	UniformValues map[string]any

	Released bool

	uniforms map[string]int
	locNames map[int]string
	stale    bool
}

func (p *Program) AttribLocation(name string) int {
	for i, a := range p.Attribs {
		if a == name {
			return i
		}
	}
	return -1
}

func (p *Program) ActiveAttribs() []string {
	out := make([]string, len(p.Attribs))
	copy(out, p.Attribs)
	return out
}

func (p *Program) UniformLocation(name string) int {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (p *Program) set(op string, location int, v any) {
	if p.d.use(op, &p.Released, &p.stale) {
		return
	}
	if p.d.program != p {
		panic("gltest: uniform store on a program that is not in use")
	}
	name, ok := p.locNames[location]
	if !ok {
		panic(fmt.Sprintf("gltest: uniform store at unknown location %d", location))
	}
	p.UniformValues[name] = v
}

func (p *Program) Uniform1i(location int, v int) { p.set("Uniform1i", location, v) }

func (p *Program) Uniform1iv(location int, v []int32) {
	cp := make([]int32, len(v))
	copy(cp, v)
	p.set("Uniform1iv", location, cp)
}

func (p *Program) Uniform1f(location int, v float32) { p.set("Uniform1f", location, v) }

func (p *Program) Uniform2f(location int, v0, v1 float32) {
	p.set("Uniform2f", location, [2]float32{v0, v1})
}

func (p *Program) Uniform3f(location int, v0, v1, v2 float32) {
	p.set("Uniform3f", location, [3]float32{v0, v1, v2})
}

func (p *Program) Uniform4f(location int, v0, v1, v2, v3 float32) {
	p.set("Uniform4f", location, [4]float32{v0, v1, v2, v3})
}

func (p *Program) Uniform1fv(location int, v []float32) {
	cp := make([]float32, len(v))
	copy(cp, v)
	p.set("Uniform1fv", location, cp)
}

func (p *Program) Uniform4fv(location int, v []float32) {
	cp := make([]float32, len(v))
	copy(cp, v)
	p.set("Uniform4fv", location, cp)
}

func (p *Program) UniformMatrix3fv(location int, v [9]float32) {
	p.set("UniformMatrix3fv", location, v)
}

func (p *Program) Release() {
	if p.d.lost {
		p.d.LostReleases++
		return
	}
	if p.Released {
		panic("gltest: double release of program")
	}
	p.Released = true
	p.d.gate("Program.Release")
	if p.d.program == p {
		p.d.program = nil
	}
}

// parseAttributes extracts vertex attribute names in declaration order.
// Both GLSL ES 1.00 ("attribute vec2 aPos;") and core profile
// ("in vec2 aPos;") declarations are understood.
func parseAttributes(vertexSrc string) []string {
	var names []string
	for _, line := range strings.Split(vertexSrc, "\n") {
		line = strings.TrimSpace(line)
		var rest string
		switch {
		case strings.HasPrefix(line, "attribute "):
			rest = line[len("attribute "):]
		case strings.HasPrefix(line, "in "):
			rest = line[len("in "):]
		default:
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
		if len(fields) < 2 {
			continue
		}
		names = append(names, strings.TrimSuffix(fields[len(fields)-1], ";"))
	}
	return names
}

// parseUniforms extracts uniform names from both stages, first appearance
// order, arrays reduced to their base name.
func parseUniforms(srcs ...string) []string {
	var names []string
	seen := map[string]bool{}
	for _, src := range srcs {
		for _, line := range strings.Split(src, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "uniform ") {
				continue
			}
			fields := strings.Fields(strings.TrimSuffix(line, ";"))
			if len(fields) < 3 {
				continue
			}
			name := fields[len(fields)-1]
			name = strings.TrimSuffix(name, ";")
			if i := strings.IndexByte(name, '['); i >= 0 {
				name = name[:i]
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
