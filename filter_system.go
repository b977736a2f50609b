package stage

import (
	"errors"
	"sync"

	"github.com/gogpu/stage/gl"
)

// ErrFilterStackUnderflow is returned by FilterSystem.Pop when no filter
// pass is active.
var ErrFilterStackUnderflow = errors.New("stage: filter pop without matching push")

// filterState is one level of the filter stack: the capture texture,
// the frames it was captured under, and the binding to restore when the
// level pops.
type filterState struct {
	renderTexture *RenderTexture
	filters       []Filter

	// sourceFrame is the captured world-space region, padded and
	// snapped to the pixel grid.
	sourceFrame Rect
	resolution  float64

	// binding* restore the render target that was active at push time.
	bindingTexture          *RenderTexture
	bindingSourceFrame      Rect
	bindingDestinationFrame Rect
}

func (st *filterState) clear() {
	*st = filterState{filters: st.filters[:0]}
}

var filterStatePool = sync.Pool{New: func() any { return &filterState{} }}

// FilterSystem runs the post-process pipeline. Push redirects rendering
// into a temporary texture sized to the filtered content; Pop runs the
// filter passes over the capture, ping-ponging between pooled textures,
// and composites the final pass onto the previous render target.
type FilterSystem struct {
	renderer *Renderer

	stack       []*filterState
	activeState *filterState

	// globals carries the per-pass frame uniforms every filter shader
	// can read: outputFrame, inputSize, inputPixel, inputClamp,
	// filterArea, filterClamp and resolution.
	globals *UniformGroup

	// quad is the unit geometry most passes draw. quadUV is its textured
	// variant for shaders that sample through an aTextureCoord attribute;
	// created on first use.
	quad   *Quad
	quadUV *QuadUV

	// passthrough composites a level that ended up with no enabled
	// filters.
	passthrough *BaseFilter
}

func newFilterSystem(r *Renderer) *FilterSystem {
	return &FilterSystem{
		renderer:    r,
		globals:     NewUniformGroup(),
		quad:        NewQuad(),
		passthrough: NewFilter("", "", nil),
	}
}

// Depth returns the number of active filter levels.
func (s *FilterSystem) Depth() int { return len(s.stack) }

// Push starts a filter level over the world-space region target.
// Rendering is redirected into a pooled texture until the matching Pop.
// Disabled filters are skipped; the level still captures and composites
// so push/pop stay balanced.
func (s *FilterSystem) Push(target Rect, filters ...Filter) {
	rts := s.renderer.RenderTexture

	st := filterStatePool.Get().(*filterState)
	st.bindingTexture = rts.Current()
	st.bindingSourceFrame = rts.SourceFrame()
	st.bindingDestinationFrame = rts.DestinationFrame()

	padding := 0.0
	autoFit := true
	resolution := 0.0
	for _, f := range filters {
		cfg := f.Settings()
		if !cfg.Enabled {
			continue
		}
		st.filters = append(st.filters, f)
		if cfg.Padding > padding {
			padding = cfg.Padding
		}
		autoFit = autoFit && cfg.AutoFit
		if resolution == 0 {
			resolution = cfg.Resolution
		}
	}
	if resolution == 0 {
		resolution = s.renderer.Resolution()
	}
	st.resolution = resolution

	frame := target.Pad(padding)
	if autoFit {
		frame = frame.Fit(st.bindingSourceFrame)
	}
	frame = frame.Ceil(resolution)
	if frame.Width < 1 {
		frame.Width = 1
	}
	if frame.Height < 1 {
		frame.Height = 1
	}
	st.sourceFrame = frame

	st.renderTexture = s.renderer.TexturePool.GetOptimalTexture(frame.Width, frame.Height, resolution)
	st.renderTexture.filterFrame = &st.sourceFrame

	s.stack = append(s.stack, st)

	rts.Bind(st.renderTexture, st.sourceFrame, Rect{})
	rts.Clear(RGBA{}, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
}

// Pop ends the top filter level: the captured content is run through
// the level's filters and composited onto the render target that was
// active at push time.
func (s *FilterSystem) Pop() error {
	if len(s.stack) == 0 {
		return ErrFilterStackUnderflow
	}
	st := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.activeState = st

	// Everything batched under this level lands in the capture, then
	// the capture is resolved in case the level rendered multisampled.
	s.renderer.Batch.Flush()
	s.renderer.Framebuffer.Blit()

	var output *RenderTexture
	if len(s.stack) > 0 {
		output = s.stack[len(s.stack)-1].renderTexture
	}

	filters := st.filters
	switch len(filters) {
	case 0:
		s.passthrough.Apply(s, st.renderTexture, output, ClearModeBlend)
		s.ReturnFilterTexture(st.renderTexture)
	case 1:
		filters[0].Apply(s, st.renderTexture, output, ClearModeBlend)
		s.ReturnFilterTexture(st.renderTexture)
	default:
		flip := st.renderTexture
		flop := s.renderer.TexturePool.GetOptimalTexture(st.sourceFrame.Width, st.sourceFrame.Height, st.resolution)
		flop.filterFrame = flip.filterFrame

		i := 0
		for ; i < len(filters)-1; i++ {
			filters[i].Apply(s, flip, flop, ClearModeClear)
			flip, flop = flop, flip
		}
		filters[i].Apply(s, flip, output, ClearModeBlend)
		s.ReturnFilterTexture(flip)
		s.ReturnFilterTexture(flop)
	}

	st.clear()
	filterStatePool.Put(st)
	return nil
}

// ApplyFilter runs one pass: it binds output, uploads the frame
// uniforms for input, and draws the quad with the given shader. Custom
// Filter implementations call it from Apply.
//
// Shaders whose vertex stage declares an aTextureCoord attribute draw
// through a textured quad carrying the input coordinates instead of
// deriving them from the frame uniforms.
func (s *FilterSystem) ApplyFilter(shader *Shader, blend *State, input, output *RenderTexture, clear ClearMode) {
	r := s.renderer

	s.bindAndClear(output, clear)
	s.updateGlobals(input)
	shader.Uniforms.Set("uSampler", input.Texture)

	glProg, err := r.Shader.Bind(shader)
	if err != nil {
		Logger().Error("stage: filter shader failed", "error", err)
		return
	}
	r.Shader.SyncUniformGroup(r.globalUniforms)
	r.Shader.SyncUniformGroup(s.globals)

	r.State.SetState(blend)

	geo := s.quad.Geometry
	mode := gl.TriangleStrip
	count := 4
	if glProg.Prog.AttribLocation("aTextureCoord") >= 0 {
		geo = s.attribQuad(input).Geometry
		mode = gl.Triangles
		count = 6
	}
	if err := r.Geometry.Bind(geo, shader); err != nil {
		Logger().Error("stage: filter quad bind failed", "error", err)
		return
	}
	r.Geometry.Draw(mode, count, 0, 1)
}

// attribQuad maps the textured quad over the active pass: corners at the
// captured frame, coordinates over the used part of input.
func (s *FilterSystem) attribQuad(input *RenderTexture) *QuadUV {
	if s.quadUV == nil {
		s.quadUV = NewQuadUV()
	}
	src := s.activeState.sourceFrame
	s.quadUV.SetUVs(src, R(0, 0, src.Width, src.Height), input.Width(), input.Height())
	return s.quadUV
}

// bindAndClear binds a pass's output target. A nil output restores the
// binding captured at push time.
func (s *FilterSystem) bindAndClear(output *RenderTexture, clear ClearMode) {
	rts := s.renderer.RenderTexture
	switch {
	case output != nil && output.filterFrame != nil:
		dst := R(0, 0, output.filterFrame.Width, output.filterFrame.Height)
		rts.Bind(output, *output.filterFrame, dst)
	case output != nil:
		rts.Bind(output, Rect{}, Rect{})
	default:
		st := s.activeState
		rts.Bind(st.bindingTexture, st.bindingSourceFrame, st.bindingDestinationFrame)
	}

	if clear == ClearModeClear ||
		(clear == ClearModeAuto && output != nil && output.filterFrame != nil) {
		rts.Clear(RGBA{}, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
	}
}

// updateGlobals fills the frame uniforms for a pass sampling input.
// inputSize is in world units, inputPixel in device pixels, and
// inputClamp bounds sampling to the valid half-texel range of the
// capture inside the pooled texture.
func (s *FilterSystem) updateGlobals(input *RenderTexture) {
	st := s.activeState

	w := float32(input.Width())
	h := float32(input.Height())
	rw := float32(input.Base.RealWidth())
	rh := float32(input.Base.RealHeight())

	clamp := [4]float32{
		0.5 / rw,
		0.5 / rh,
		float32(st.sourceFrame.Width)/w - 0.5/rw,
		float32(st.sourceFrame.Height)/h - 0.5/rh,
	}

	s.globals.Set("outputFrame", st.sourceFrame)
	s.globals.Set("inputSize", [4]float32{w, h, 1 / w, 1 / h})
	s.globals.Set("inputPixel", [4]float32{rw, rh, 1 / rw, 1 / rh})
	s.globals.Set("inputClamp", clamp)
	// filterArea is the older spelling some shaders still read: input size
	// plus the source origin.
	s.globals.Set("filterArea", [4]float32{w, h, float32(st.sourceFrame.X), float32(st.sourceFrame.Y)})
	s.globals.Set("filterClamp", clamp)
	s.globals.Set("resolution", st.resolution)
}

// CalculateSpriteMatrix maps a pass's input texture coordinates to
// coordinates normalized against tex's logical size placed in the world
// by transform. The sprite mask filter samples its mask through it.
func (s *FilterSystem) CalculateSpriteMatrix(input *RenderTexture, transform Matrix, tex *Texture) Matrix {
	st := s.activeState
	return Scale(1/tex.Width(), 1/tex.Height()).
		Multiply(transform.Invert()).
		Multiply(Translate(st.sourceFrame.X, st.sourceFrame.Y)).
		Multiply(Scale(input.Width(), input.Height()))
}

// GetFilterTexture returns a pooled texture shaped like input, for
// filters that run extra scratch passes. A nil input means the active
// pass's capture; a non-positive resolution inherits input's.
func (s *FilterSystem) GetFilterTexture(input *RenderTexture, resolution float64) *RenderTexture {
	if input == nil {
		input = s.activeState.renderTexture
	}
	if resolution <= 0 {
		resolution = input.Base.Resolution()
	}
	rt := s.renderer.TexturePool.GetOptimalTexture(input.Width(), input.Height(), resolution)
	rt.filterFrame = input.filterFrame
	return rt
}

// ReturnFilterTexture gives a scratch texture back to the pool.
func (s *FilterSystem) ReturnFilterTexture(rt *RenderTexture) {
	s.renderer.TexturePool.ReturnTexture(rt)
}

// Destroy releases the quad geometries.
func (s *FilterSystem) Destroy() {
	s.quad.Dispose()
	if s.quadUV != nil {
		s.quadUV.Dispose()
	}
	s.stack = nil
	s.activeState = nil
}
