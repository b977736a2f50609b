package stage

import (
	"errors"
	"math"

	"github.com/gogpu/stage/gl"
)

// Sentinel errors returned by the renderer entry points.
var (
	// ErrInvalidSize is returned when a renderer is created with
	// non-positive dimensions.
	ErrInvalidSize = errors.New("stage: renderer dimensions must be positive")

	// ErrRendererDestroyed is returned when a destroyed renderer is asked
	// to render.
	ErrRendererDestroyed = errors.New("stage: renderer already destroyed")
)

// Renderable is anything that can draw itself through a renderer. Most
// implementations submit quads to r.Batch or bind their own shader and
// geometry directly.
type Renderable interface {
	Render(r *Renderer)
}

// Bounded is implemented by renderables that know their axis-aligned
// extent, letting GenerateTexture size its target automatically.
type Bounded interface {
	Bounds() Rect
}

// Masked is implemented by renderables whose output is clipped. Render
// pushes the mask before the object draws and pops it after. A nil
// mask disables clipping.
type Masked interface {
	Mask() *MaskData
}

// Filtered is implemented by renderables that are post-processed. The
// filter pipeline captures the object's output over its bounds and
// runs the returned passes. Objects returning filters should also be
// Bounded or the whole target is captured.
type Filtered interface {
	Filters() []Filter
}

// ContextChanger is implemented by systems holding per-context device
// state. The renderer invokes it after the context is (re)created so
// caches keyed by the old context UID can be dropped and rebuilt.
type ContextChanger interface {
	ContextChange(oldUID int)
}

// Postrenderer is implemented by systems that run housekeeping after a
// frame is presented.
type Postrenderer interface {
	Postrender()
}

// Destroyer is implemented by systems owning device resources.
type Destroyer interface {
	Destroy()
}

// FrameStats counts device work issued since the last Render call
// began. The counters are cumulative within a pass, including filter
// and mask sub-passes.
type FrameStats struct {
	// DrawCalls is the number of draw commands issued.
	DrawCalls int

	// TextureBinds counts sampler bindings that reached the device,
	// after the unit cache filtered redundant ones.
	TextureBinds int

	// BufferUploads counts vertex and index buffer uploads.
	BufferUploads int
}

// Renderer draws renderables onto the screen or into render textures.
// It owns one device context and a set of cooperating systems; each
// system manages one slice of device state and may be used directly for
// lower level work.
//
// A renderer is not safe for concurrent use. All calls must come from
// the goroutine that owns the device context.
type Renderer struct {
	Context     *ContextSystem
	State       *StateSystem
	Texture     *TextureSystem
	TextureGC   *TextureGCSystem
	Geometry    *GeometrySystem
	Shader      *ShaderSystem
	Framebuffer *FramebufferSystem

	RenderTexture *RenderTextureSystem
	Projection    *ProjectionSystem

	Mask    *MaskSystem
	Scissor *ScissorSystem
	Stencil *StencilSystem
	Filter  *FilterSystem
	Batch   *BatchSystem

	// TexturePool recycles render textures for filters and masks.
	TexturePool *RenderTexturePool

	// globalUniforms carries per-pass uniforms, currently the projection
	// matrix. Shaders nest it as the "globals" group.
	globalUniforms *UniformGroup

	// systems lists every system in construction order. Hooks walk it
	// forward, destruction walks it backward.
	systems []any

	width      int
	height     int
	resolution float64

	background        RGBA
	clearBeforeRender bool

	toScreen  bool
	stats     FrameStats
	destroyed bool
}

// NewRenderer opens a device context and builds a renderer around it.
// Width and height are logical units; the backing buffer is scaled by
// the configured resolution. Options adjust the context request or
// adopt an existing device.
func NewRenderer(width, height int, opts ...Option) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		width:             width,
		height:            height,
		resolution:        o.resolution,
		background:        o.background,
		clearBeforeRender: o.clearBeforeRender,
		toScreen:          true,
		globalUniforms:    NewUniformGroup(),
	}
	r.globalUniforms.Set("projectionMatrix", Identity())

	r.Context = newContextSystem(r)
	r.State = newStateSystem(r)
	r.Texture = newTextureSystem(r)
	r.TextureGC = newTextureGCSystem(r)
	r.Geometry = newGeometrySystem(r)
	r.Shader = newShaderSystem(r)
	r.Framebuffer = newFramebufferSystem(r)
	r.RenderTexture = newRenderTextureSystem(r)
	r.Projection = newProjectionSystem(r)
	r.Mask = newMaskSystem(r)
	r.Scissor = newScissorSystem(r)
	r.Stencil = newStencilSystem(r)
	r.Filter = newFilterSystem(r)
	r.Batch = newBatchSystem(r)
	r.TexturePool = NewRenderTexturePool()

	r.systems = []any{
		r.State, r.Texture, r.TextureGC, r.Geometry, r.Shader,
		r.Framebuffer, r.RenderTexture, r.Projection,
		r.Mask, r.Scissor, r.Stencil, r.Filter, r.Batch,
	}

	if o.device != nil {
		if err := r.Context.initFromDevice(o.device); err != nil {
			return nil, err
		}
	} else {
		pw, ph := scaled(width, o.resolution), scaled(height, o.resolution)
		glOpts := gl.Options{
			Width:                 pw,
			Height:                ph,
			Antialias:             o.antialias,
			Stencil:               true,
			PreserveDrawingBuffer: o.preserveDrawingBuffer,
			PremultipliedAlpha:    true,
			PowerPreference:       o.powerPreference,
		}
		if err := r.Context.initFromOptions(glOpts, o.driver); err != nil {
			return nil, err
		}
	}

	r.contextChange(0)
	r.TexturePool.SetScreenSize(r.pixelSize())
	r.RenderTexture.Bind(nil, Rect{}, Rect{})

	Logger().Info("renderer created",
		"width", width, "height", height, "resolution", r.resolution)
	return r, nil
}

// RenderOptions adjust a single Render call. The zero value renders to
// the screen with the renderer's clear default.
type RenderOptions struct {
	// Into redirects output into a render texture instead of the screen.
	Into *RenderTexture

	// SkipClear leaves the target's previous contents in place even when
	// the renderer clears before rendering by default.
	SkipClear bool
}

// Render draws obj into the screen or, when opts.Into is set, into a
// render texture. The pass binds the target, optionally clears it,
// lets obj submit its work and flushes the batch. Rendering is skipped
// while the context is lost.
func (r *Renderer) Render(obj Renderable, opts *RenderOptions) error {
	if r.destroyed {
		return ErrRendererDestroyed
	}
	if r.Context.IsLost() {
		Logger().Warn("render skipped, context lost")
		return nil
	}

	var into *RenderTexture
	skipClear := false
	if opts != nil {
		into = opts.Into
		skipClear = opts.SkipClear
	}
	r.toScreen = into == nil
	r.stats = FrameStats{}

	r.RenderTexture.Bind(into, Rect{}, Rect{})
	if r.clearBeforeRender && !skipClear {
		r.RenderTexture.Clear(r.background, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
	}

	r.renderObject(obj)
	r.Batch.Flush()
	r.RenderTexture.Flush()

	for _, s := range r.systems {
		if p, ok := s.(Postrenderer); ok {
			p.Postrender()
		}
	}
	return nil
}

// renderObject draws one renderable, wrapping it in its declared mask
// and filter passes.
func (r *Renderer) renderObject(obj Renderable) {
	var filters []Filter
	if f, ok := obj.(Filtered); ok {
		filters = f.Filters()
	}
	if len(filters) > 0 {
		bounds := r.RenderTexture.SourceFrame()
		if b, ok := obj.(Bounded); ok {
			if bb := b.Bounds(); !bb.IsEmpty() {
				bounds = bb
			}
		}
		r.Filter.Push(bounds, filters...)
	}
	var md *MaskData
	if m, ok := obj.(Masked); ok {
		md = m.Mask()
	}
	if md != nil {
		r.Mask.Push(md)
	}

	obj.Render(r)

	if md != nil {
		if err := r.Mask.Pop(); err != nil {
			Logger().Warn("unbalanced mask stack", "err", err)
		}
	}
	if len(filters) > 0 {
		if err := r.Filter.Pop(); err != nil {
			Logger().Warn("unbalanced filter stack", "err", err)
		}
	}
}

// GenerateTexture renders obj into a fresh render texture and returns
// it. The region selects the world-space rectangle to capture; when
// empty it falls back to obj's bounds. A non-positive resolution takes
// the renderer's. The caller owns the texture.
func (r *Renderer) GenerateTexture(obj Renderable, region Rect, resolution float64) (*RenderTexture, error) {
	if r.destroyed {
		return nil, ErrRendererDestroyed
	}
	if region.IsEmpty() {
		if b, ok := obj.(Bounded); ok {
			region = b.Bounds()
		}
	}
	region.Width = math.Max(region.Width, 1)
	region.Height = math.Max(region.Height, 1)
	if resolution <= 0 {
		resolution = r.resolution
	}

	rt := NewRenderTexture(&RenderTextureOptions{
		Width:      region.Width,
		Height:     region.Height,
		Resolution: resolution,
	})

	r.toScreen = false
	r.RenderTexture.Bind(rt, region, Rect{})
	r.RenderTexture.Clear(RGBA{}, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
	r.renderObject(obj)
	r.Batch.Flush()
	r.RenderTexture.Flush()
	r.RenderTexture.Bind(nil, Rect{}, Rect{})
	r.toScreen = true
	return rt, nil
}

// Clear fills the bound target with the background color.
func (r *Renderer) Clear() {
	r.RenderTexture.Clear(r.background, gl.ColorBufferBit|gl.DepthBufferBit|gl.StencilBufferBit)
}

// Reset drops cached device state so the next draw reapplies
// everything. Call it after issuing raw device commands behind the
// renderer's back.
func (r *Renderer) Reset() {
	r.Batch.Reset()
	r.State.ForceState(nil)
}

// Resize changes the logical screen dimensions. Render texture
// contents are unaffected; the screen target is rebound when active.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return
	}
	r.width, r.height = width, height
	r.TexturePool.SetScreenSize(r.pixelSize())
	if r.RenderTexture.Current() == nil {
		r.RenderTexture.Bind(nil, Rect{}, Rect{})
	}
	Logger().Info("renderer resized", "width", width, "height", height)
}

// Width returns the logical screen width.
func (r *Renderer) Width() int { return r.width }

// Height returns the logical screen height.
func (r *Renderer) Height() int { return r.height }

// Resolution returns the device pixel density of the screen target.
func (r *Renderer) Resolution() float64 { return r.resolution }

// Screen returns the screen rectangle in logical units.
func (r *Renderer) Screen() Rect {
	return R(0, 0, float64(r.width), float64(r.height))
}

// Background returns the clear color.
func (r *Renderer) Background() RGBA { return r.background }

// SetBackground changes the clear color used before each pass.
func (r *Renderer) SetBackground(c RGBA) { r.background = c }

// Stats reports the device work counters of the pass in progress, or
// of the last finished pass.
func (r *Renderer) Stats() FrameStats { return r.stats }

// GlobalUniforms returns the per-pass uniform group shared with every
// shader that nests a "globals" group, carrying the projection matrix.
func (r *Renderer) GlobalUniforms() *UniformGroup { return r.globalUniforms }

// Destroy flushes nothing, releases every device resource and closes
// the context. The renderer must not be used afterwards.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	r.TexturePool.Clear(true)
	for i := len(r.systems) - 1; i >= 0; i-- {
		if d, ok := r.systems[i].(Destroyer); ok {
			d.Destroy()
		}
	}
	r.Context.Destroy()
	Logger().Info("renderer destroyed")
}

// device returns the live context device. Systems call it on every
// command so a restored context is picked up transparently.
func (r *Renderer) device() gl.Device { return r.Context.Device() }

// contextUID identifies the current context incarnation; resources
// cache device handles keyed by it.
func (r *Renderer) contextUID() int { return r.Context.UID() }

// gcTick is the frame counter driving texture garbage collection.
func (r *Renderer) gcTick() int { return r.TextureGC.Count() }

// pixelSize returns the screen dimensions in device pixels.
func (r *Renderer) pixelSize() (int, int) {
	return scaled(r.width, r.resolution), scaled(r.height, r.resolution)
}

// renderingToScreen reports whether the active pass targets the screen.
// Filter and mask sub-passes do not change it.
func (r *Renderer) renderingToScreen() bool { return r.toScreen }

// contextChange tells every stateful system the device context was
// created or replaced.
func (r *Renderer) contextChange(oldUID int) {
	for _, s := range r.systems {
		if c, ok := s.(ContextChanger); ok {
			c.ContextChange(oldUID)
		}
	}
}

func scaled(v int, resolution float64) int {
	return int(math.Round(float64(v) * resolution))
}
